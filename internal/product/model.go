package product

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive  = "active"
	StatusDraft   = "draft"
	StatusDeleted = "deleted"
)

type Product struct {
	ID          string          `json:"id"                    db:"id"`
	Name        string          `json:"name"                  db:"name"`
	Description string          `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal `json:"price"                 db:"price" swaggertype:"string" example:"12.50"`
	Stock       int             `json:"stock"                 db:"stock"`
	// Customizable products accept a text and an image on each order line.
	Customizable bool      `json:"customizable"         db:"customizable"`
	Status       string    `json:"status"               db:"status"`
	Categories   []string  `json:"categories,omitempty" db:"-"`
	CreatedAt    time.Time `json:"created_at"           db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"           db:"updated_at"`
}

// ListResponse represents the paginated response of products.
// swagger:model
type ListResponse struct {
	// search query applied
	Q string `json:"q,omitempty"`
	// category filter applied
	Category string `json:"category,omitempty"`
	// limit applied
	Limit int `json:"limit"`
	// offset applied
	Offset int `json:"offset"`
	// items found
	Items []Product `json:"items"`
}
