package product

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
)

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	Name         string   `json:"name"         example:"Photo mug"`
	Description  string   `json:"description"  example:"11oz ceramic, full wrap print"`
	Price        string   `json:"price"        example:"12.50"`
	Stock        int      `json:"stock"        example:"10"`
	Customizable bool     `json:"customizable" example:"true"`
	Status       string   `json:"status"       example:"active"`
	Categories   []string `json:"categories"`
}

// Product validates the payload and builds the product to insert.
func (r CreateProductRequest) Product() (*Product, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}
	price, err := parsePrice(r.Price)
	if err != nil {
		return nil, err
	}
	if r.Stock < 0 {
		return nil, apperr.Invalid("stock must be >= 0")
	}
	status := r.Status
	if status == "" {
		status = StatusActive
	}
	if err := checkStatus(status); err != nil {
		return nil, err
	}
	return &Product{
		Name:         name,
		Description:  strings.TrimSpace(r.Description),
		Price:        price,
		Stock:        r.Stock,
		Customizable: r.Customizable,
		Status:       status,
		Categories:   cleanCategories(r.Categories),
	}, nil
}

// UpdateProductRequest payload of partial update. Omitted fields keep their value.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	Price        *string   `json:"price"`
	Stock        *int      `json:"stock"`
	Customizable *bool     `json:"customizable"`
	Status       *string   `json:"status"`
	Categories   *[]string `json:"categories"`
}

// Patch is the validated form of UpdateProductRequest.
type Patch struct {
	Name         *string
	Description  *string
	Price        *decimal.Decimal
	Stock        *int
	Customizable *bool
	Status       *string
	Categories   *[]string
}

func (r UpdateProductRequest) Patch() (Patch, error) {
	p := Patch{Description: r.Description, Customizable: r.Customizable}
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return Patch{}, apperr.Invalid("name cannot be empty")
		}
		p.Name = &name
	}
	if r.Price != nil {
		price, err := parsePrice(*r.Price)
		if err != nil {
			return Patch{}, err
		}
		p.Price = &price
	}
	if r.Stock != nil {
		if *r.Stock < 0 {
			return Patch{}, apperr.Invalid("stock must be >= 0")
		}
		p.Stock = r.Stock
	}
	if r.Status != nil {
		if err := checkStatus(*r.Status); err != nil {
			return Patch{}, err
		}
		p.Status = r.Status
	}
	if r.Categories != nil {
		cats := cleanCategories(*r.Categories)
		p.Categories = &cats
	}
	return p, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, apperr.Invalid("price is required")
	}
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperr.Invalid("price %q is not a number", s)
	}
	if price.IsNegative() {
		return decimal.Zero, apperr.Invalid("price must be >= 0")
	}
	return price.Round(2), nil
}

// Deleting goes through DELETE, not through the status field.
func checkStatus(s string) error {
	switch s {
	case StatusActive, StatusDraft:
		return nil
	}
	return apperr.Invalid("status must be %q or %q", StatusActive, StatusDraft)
}

func cleanCategories(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
