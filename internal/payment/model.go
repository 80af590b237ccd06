package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/printshop-orders/internal/fulfillment"
)

// Details carries what a method needs from the payer.
type Details struct {
	// Phone is the MSISDN an mpesa STK push is sent to.
	Phone string `json:"phone,omitempty" example:"254712345678"`
	// Email receives the card checkout link.
	Email string `json:"email,omitempty" example:"ana@example.com"`
}

// Initiation starts a payment attempt for an order.
// swagger:model PaymentInitiation
type Initiation struct {
	Method  fulfillment.Method `json:"method"  binding:"required" example:"mpesa"`
	Amount  decimal.Decimal    `json:"amount"  swaggertype:"string" example:"25.00"`
	Details Details            `json:"details"`
}

// Instructions tell the client how to finish the payment it just started.
// swagger:model PaymentInstructions
type Instructions struct {
	OrderID       string                    `json:"order_id"`
	Token         string                    `json:"token"`
	Method        fulfillment.Method        `json:"method"`
	Amount        decimal.Decimal           `json:"amount" swaggertype:"string"`
	PaymentStatus fulfillment.PaymentStatus `json:"payment_status"`
	OrderStatus   fulfillment.Status        `json:"order_status"`
	Message       string                    `json:"message"`
	// CheckoutRequestID identifies the mpesa STK push.
	CheckoutRequestID string `json:"checkout_request_id,omitempty"`
	CheckoutURL       string `json:"checkout_url,omitempty"`
	BankAccount       string `json:"bank_account,omitempty"`
	BankReference     string `json:"bank_reference,omitempty"`
}

// Result is the state of an order after a completion attempt. Changed is false when the
// token had already been settled and nothing was done.
// swagger:model PaymentResult
type Result struct {
	OrderID       string                    `json:"order_id"`
	Succeeded     bool                      `json:"succeeded"`
	Changed       bool                      `json:"changed"`
	PaymentStatus fulfillment.PaymentStatus `json:"payment_status"`
	OrderStatus   fulfillment.Status        `json:"order_status"`
	Receipt       string                    `json:"receipt,omitempty"`
}

type EventKind string

const (
	EventInitiated EventKind = "initiated"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

// Event is one row of the payment attempt log. The log is append-only; the order row
// only ever points at the latest attempt.
type Event struct {
	ID        string             `json:"id"         db:"id"`
	OrderID   string             `json:"order_id"   db:"order_id"`
	Token     string             `json:"token"      db:"token"`
	Method    fulfillment.Method `json:"method"     db:"method"`
	Kind      EventKind          `json:"kind"       db:"kind"`
	Amount    decimal.Decimal    `json:"amount"     db:"amount" swaggertype:"string"`
	Reference string             `json:"reference"  db:"reference"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
}

// Callback is the body a payment gateway posts once an attempt settles.
// swagger:model PaymentCallback
type Callback struct {
	Token     string `json:"token"`
	Succeeded bool   `json:"succeeded"`
}
