package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
	"github.com/MikeMC777/printshop-orders/internal/database"
	"github.com/MikeMC777/printshop-orders/internal/fulfillment"
)

// Repository is the order table gateway. Every method takes the querier it should run
// on, so the service decides what shares a transaction.
type Repository interface {
	Insert(ctx context.Context, q sqlx.ExtContext, o *Order) error
	InsertItems(ctx context.Context, q sqlx.ExtContext, items []Item) error
	Get(ctx context.Context, q sqlx.ExtContext, id string) (*Order, error)
	FindByPaymentID(ctx context.Context, q sqlx.ExtContext, ref string) (*Order, error)
	Items(ctx context.Context, q sqlx.ExtContext, orderID string) ([]Item, error)
	ListByUser(ctx context.Context, q sqlx.ExtContext, userID string, limit, offset int) ([]Order, error)
	SetStatus(ctx context.Context, q sqlx.ExtContext, id string, from, to fulfillment.Status, now time.Time) (bool, error)
	Patch(ctx context.Context, q sqlx.ExtContext, id string, p Patch, now time.Time) error
	Delete(ctx context.Context, q sqlx.ExtContext, id string) error
	ProductSnapshot(ctx context.Context, q sqlx.ExtContext, productID string) (string, decimal.Decimal, error)
}

type SQLRepo struct{}

func NewSQLRepo() *SQLRepo { return &SQLRepo{} }

const orderColumns = `
	id, user_id, total_price, status, payment_status,
	COALESCE(payment_method, '') AS payment_method,
	COALESCE(payment_id, '') AS payment_id,
	shipping_name, shipping_phone, shipping_address, shipping_city,
	shipping_postal_code, shipping_country, notes, created_at, updated_at`

func (r *SQLRepo) Insert(ctx context.Context, q sqlx.ExtContext, o *Order) error {
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO orders (
			id, user_id, total_price, status, payment_status, payment_method, payment_id,
			shipping_name, shipping_phone, shipping_address, shipping_city,
			shipping_postal_code, shipping_country, notes, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`), o.ID, o.UserID, o.TotalPrice, o.Status, o.PaymentStatus,
		database.NullIfEmpty(string(o.PaymentMethod)), database.NullIfEmpty(o.PaymentID),
		o.Name, o.Phone, o.Address, o.City, o.PostalCode, o.Country, o.Notes,
		o.CreatedAt, o.UpdatedAt)
	return database.Classify("insert order", err)
}

func (r *SQLRepo) InsertItems(ctx context.Context, q sqlx.ExtContext, items []Item) error {
	stmt := q.Rebind(`
		INSERT INTO order_items (
			id, order_id, product_id, product_name, price, quantity,
			customization_text, customization_image)
		VALUES (?,?,?,?,?,?,?,?)
	`)
	for _, it := range items {
		if _, err := q.ExecContext(ctx, stmt, it.ID, it.OrderID, it.ProductID, it.ProductName,
			it.Price, it.Quantity, it.CustomizationText, it.CustomizationImage); err != nil {
			return database.Classify("insert order item", err)
		}
	}
	return nil
}

func (r *SQLRepo) Get(ctx context.Context, q sqlx.ExtContext, id string) (*Order, error) {
	var o Order
	err := sqlx.GetContext(ctx, q, &o, q.Rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, apperr.Storage("get order", err)
	}
	return &o, nil
}

// FindByPaymentID returns the order whose current payment_id is ref.
func (r *SQLRepo) FindByPaymentID(ctx context.Context, q sqlx.ExtContext, ref string) (*Order, error) {
	var o Order
	err := sqlx.GetContext(ctx, q, &o, q.Rebind(`SELECT `+orderColumns+` FROM orders WHERE payment_id = ?`), ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrPaymentReferenceNotFound, ref)
	}
	if err != nil {
		return nil, apperr.Storage("find order by payment id", err)
	}
	return &o, nil
}

func (r *SQLRepo) Items(ctx context.Context, q sqlx.ExtContext, orderID string) ([]Item, error) {
	items := []Item{}
	err := sqlx.SelectContext(ctx, q, &items, q.Rebind(`
		SELECT id, order_id, product_id, product_name, price, quantity,
		       customization_text, customization_image
		FROM order_items
		WHERE order_id = ?
		ORDER BY product_name, id
	`), orderID)
	if err != nil {
		return nil, apperr.Storage("list order items", err)
	}
	return items, nil
}

func (r *SQLRepo) ListByUser(ctx context.Context, q sqlx.ExtContext, userID string, limit, offset int) ([]Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	out := []Order{}
	err := sqlx.SelectContext(ctx, q, &out, q.Rebind(`
		SELECT `+orderColumns+`
		FROM orders WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`), userID, limit, offset)
	if err != nil {
		return nil, apperr.Storage("list orders", err)
	}
	return out, nil
}

// SetStatus moves an order from one status to another. The WHERE clause on the current
// status makes concurrent writers race on the row, not on a stale read: false means
// the row was no longer in status from.
func (r *SQLRepo) SetStatus(ctx context.Context, q sqlx.ExtContext, id string, from, to fulfillment.Status, now time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE orders
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`), to, now, id, from)
	if err != nil {
		return false, database.Classify("update order status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Storage("update order status", err)
	}
	return n == 1, nil
}

func (r *SQLRepo) Patch(ctx context.Context, q sqlx.ExtContext, id string, p Patch, now time.Time) error {
	sets, args := p.assignments()
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now, id)

	res, err := q.ExecContext(ctx, q.Rebind(`UPDATE orders SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		return database.Classify("update order", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("update order", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", apperr.ErrOrderNotFound, id)
	}
	return nil
}

// Delete removes the items, then the header.
func (r *SQLRepo) Delete(ctx context.Context, q sqlx.ExtContext, id string) error {
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM order_items WHERE order_id = ?`), id); err != nil {
		return apperr.Storage("delete order items", err)
	}
	res, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM orders WHERE id = ?`), id)
	if err != nil {
		return apperr.Storage("delete order", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("delete order", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", apperr.ErrOrderNotFound, id)
	}
	return nil
}

// ProductSnapshot reads the name and current price of a product for an order line.
func (r *SQLRepo) ProductSnapshot(ctx context.Context, q sqlx.ExtContext, productID string) (string, decimal.Decimal, error) {
	var row struct {
		Name  string          `db:"name"`
		Price decimal.Decimal `db:"price"`
	}
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`SELECT name, price FROM products WHERE id = ?`), productID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", decimal.Zero, fmt.Errorf("%w: %s", apperr.ErrProductNotFound, productID)
	}
	if err != nil {
		return "", decimal.Zero, apperr.Storage("read product", err)
	}
	return row.Name, row.Price, nil
}

// Patch is a partial update of an order. Status is deliberately absent: it only moves
// through Service.Transition.
type Patch struct {
	ShippingName       *string
	ShippingPhone      *string
	ShippingAddress    *string
	ShippingCity       *string
	ShippingPostalCode *string
	ShippingCountry    *string
	Notes              *string
	PaymentStatus      *fulfillment.PaymentStatus
	PaymentMethod      *fulfillment.Method
	PaymentID          *string
}

func (p Patch) Empty() bool {
	sets, _ := p.assignments()
	return len(sets) == 0
}

func (p Patch) validate() error {
	if p.PaymentStatus != nil && !p.PaymentStatus.Valid() {
		return apperr.Invalid("unknown payment status %q", *p.PaymentStatus)
	}
	if p.PaymentMethod != nil && *p.PaymentMethod != "" && !p.PaymentMethod.Valid() {
		return apperr.Invalid("unknown payment method %q", *p.PaymentMethod)
	}
	return nil
}

func (p Patch) assignments() ([]string, []any) {
	var (
		sets []string
		args []any
	)
	text := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	text("shipping_name", p.ShippingName)
	text("shipping_phone", p.ShippingPhone)
	text("shipping_address", p.ShippingAddress)
	text("shipping_city", p.ShippingCity)
	text("shipping_postal_code", p.ShippingPostalCode)
	text("shipping_country", p.ShippingCountry)
	text("notes", p.Notes)
	if p.PaymentStatus != nil {
		sets = append(sets, "payment_status = ?")
		args = append(args, string(*p.PaymentStatus))
	}
	if p.PaymentMethod != nil {
		sets = append(sets, "payment_method = ?")
		args = append(args, database.NullIfEmpty(string(*p.PaymentMethod)))
	}
	if p.PaymentID != nil {
		sets = append(sets, "payment_id = ?")
		args = append(args, database.NullIfEmpty(*p.PaymentID))
	}
	return sets, args
}
