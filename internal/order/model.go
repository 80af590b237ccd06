package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/printshop-orders/internal/fulfillment"
)

type Shipping struct {
	Name       string `json:"shipping_name"        db:"shipping_name"`
	Phone      string `json:"shipping_phone"       db:"shipping_phone"`
	Address    string `json:"shipping_address"     db:"shipping_address"`
	City       string `json:"shipping_city"        db:"shipping_city"`
	PostalCode string `json:"shipping_postal_code" db:"shipping_postal_code"`
	Country    string `json:"shipping_country"     db:"shipping_country"`
}

type Order struct {
	ID            string                    `json:"id"             db:"id"`
	UserID        string                    `json:"user_id"        db:"user_id"`
	TotalPrice    decimal.Decimal           `json:"total_price"    db:"total_price"`
	Status        fulfillment.Status        `json:"status"         db:"status"`
	PaymentStatus fulfillment.PaymentStatus `json:"payment_status" db:"payment_status"`
	PaymentMethod fulfillment.Method        `json:"payment_method,omitempty" db:"payment_method"`
	PaymentID     string                    `json:"payment_id,omitempty"     db:"payment_id"`
	Shipping
	Notes     string    `json:"notes"      db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	Items     []Item    `json:"items,omitempty" db:"-"`
}

// State is what the fulfillment gate needs to judge a status change.
func (o *Order) State() fulfillment.State {
	return fulfillment.State{Status: o.Status, PaymentStatus: o.PaymentStatus, Method: o.PaymentMethod}
}

// Item is a purchased line. Name and price are snapshotted at purchase time.
type Item struct {
	ID                 string          `json:"id"                            db:"id"`
	OrderID            string          `json:"order_id"                      db:"order_id"`
	ProductID          string          `json:"product_id"                    db:"product_id"`
	ProductName        string          `json:"product_name"                  db:"product_name"`
	Price              decimal.Decimal `json:"price"                         db:"price"`
	Quantity           int             `json:"quantity"                      db:"quantity"`
	CustomizationText  string          `json:"customization_text,omitempty"  db:"customization_text"`
	CustomizationImage string          `json:"customization_image,omitempty" db:"customization_image"`
}

func (it Item) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Total sums price x quantity over items.
func Total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}
