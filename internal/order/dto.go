package order

import (
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/printshop-orders/internal/fulfillment"
)

// CreateOrderItem is one line of an order request.
// swagger:model CreateOrderItem
type CreateOrderItem struct {
	ProductID          string `json:"product_id"          example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Quantity           int    `json:"quantity"            example:"2"`
	CustomizationText  string `json:"customization_text"  example:"Happy birthday Ana"`
	CustomizationImage string `json:"customization_image" example:"uploads/ana.png"`
}

// CreateOrderRequest payload for order creation. user_id is taken from the caller unless
// an admin places the order on someone's behalf.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	UserID        string                    `json:"user_id"        example:"b2f5ff47-2b1e-4f22-8a96-5f3c1f2f2e7b"`
	Items         []CreateOrderItem         `json:"items"`
	Shipping      Shipping                  `json:"shipping"`
	Notes         string                    `json:"notes"`
	TotalPrice    *decimal.Decimal          `json:"total_price,omitempty" swaggertype:"string" example:"30.00"`
	Status        fulfillment.Status        `json:"status,omitempty"`
	PaymentStatus fulfillment.PaymentStatus `json:"payment_status,omitempty"`
	PaymentMethod fulfillment.Method        `json:"payment_method,omitempty"`
}

// Header converts the request into the service input.
func (r CreateOrderRequest) Header() Header {
	return Header{
		UserID:        r.UserID,
		Shipping:      r.Shipping,
		Notes:         r.Notes,
		TotalPrice:    r.TotalPrice,
		Status:        r.Status,
		PaymentStatus: r.PaymentStatus,
		PaymentMethod: r.PaymentMethod,
	}
}

// Lines converts the request items into service input lines.
func (r CreateOrderRequest) Lines() []Line {
	out := make([]Line, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, Line(it))
	}
	return out
}

// UpdateOrderRequest is a partial update; omitted fields stay as they are.
// swagger:model UpdateOrderRequest
type UpdateOrderRequest struct {
	ShippingName       *string `json:"shipping_name"`
	ShippingPhone      *string `json:"shipping_phone"`
	ShippingAddress    *string `json:"shipping_address"`
	ShippingCity       *string `json:"shipping_city"`
	ShippingPostalCode *string `json:"shipping_postal_code"`
	ShippingCountry    *string `json:"shipping_country"`
	Notes              *string `json:"notes"`
	PaymentStatus      *string `json:"payment_status"`
	PaymentMethod      *string `json:"payment_method"`
	PaymentID          *string `json:"payment_id"`
}

// Patch converts the request into the service input.
func (r UpdateOrderRequest) Patch() Patch {
	p := Patch{
		ShippingName:       r.ShippingName,
		ShippingPhone:      r.ShippingPhone,
		ShippingAddress:    r.ShippingAddress,
		ShippingCity:       r.ShippingCity,
		ShippingPostalCode: r.ShippingPostalCode,
		ShippingCountry:    r.ShippingCountry,
		Notes:              r.Notes,
		PaymentID:          r.PaymentID,
	}
	if r.PaymentStatus != nil {
		ps := fulfillment.PaymentStatus(*r.PaymentStatus)
		p.PaymentStatus = &ps
	}
	if r.PaymentMethod != nil {
		m := fulfillment.Method(*r.PaymentMethod)
		p.PaymentMethod = &m
	}
	return p
}

// TouchesPayment reports whether the update changes payment fields.
func (r UpdateOrderRequest) TouchesPayment() bool {
	return r.PaymentStatus != nil || r.PaymentMethod != nil || r.PaymentID != nil
}

// UpdateStatusRequest payload for status changes.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"shipped"`
}

// ListResponse is a page of a user's orders.
// swagger:model OrderListResponse
type ListResponse struct {
	UserID string  `json:"user_id"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Items  []Order `json:"items"`
}
