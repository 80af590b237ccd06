// Package inventory owns products.stock. Reserve and Release always run on the caller's
// transaction so stock moves commit or roll back together with the order rows.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
	"github.com/MikeMC777/printshop-orders/internal/database"
)

type Ledger struct {
	db    *sqlx.DB
	clock func() time.Time
}

func NewLedger(db *sqlx.DB) *Ledger {
	return &Ledger{db: db, clock: time.Now}
}

// Reserve takes qty units of a product. The check and the decrement are one conditional
// UPDATE, so two concurrent reservations can never both pass a stale stock read.
func (l *Ledger) Reserve(ctx context.Context, q sqlx.ExtContext, productID string, qty int) error {
	if qty <= 0 {
		return apperr.Invalid("quantity for product %s must be positive (got %d)", productID, qty)
	}

	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE products
		SET stock = stock - ?, updated_at = ?
		WHERE id = ? AND stock >= ? AND status <> 'deleted'
	`), qty, l.clock().UTC(), productID, qty)
	if err != nil {
		return database.Classify("reserve stock", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("reserve stock", err)
	}
	if n == 1 {
		return nil
	}

	// Nothing matched: tell a missing product apart from a short one.
	var stock int
	err = sqlx.GetContext(ctx, q, &stock, q.Rebind(`
		SELECT stock FROM products WHERE id = ? AND status <> 'deleted'
	`), productID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", apperr.ErrProductNotFound, productID)
	}
	if err != nil {
		return apperr.Storage("probe stock", err)
	}
	return fmt.Errorf("%w: product %s has %d, requested %d", apperr.ErrInsufficientStock, productID, stock, qty)
}

// Release puts qty units back. Deleted products still receive their stock back.
func (l *Ledger) Release(ctx context.Context, q sqlx.ExtContext, productID string, qty int) error {
	if qty <= 0 {
		return apperr.Invalid("quantity for product %s must be positive (got %d)", productID, qty)
	}

	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE products
		SET stock = stock + ?, updated_at = ?
		WHERE id = ?
	`), qty, l.clock().UTC(), productID)
	if err != nil {
		return database.Classify("release stock", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("release stock", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", apperr.ErrProductNotFound, productID)
	}
	return nil
}

// Available returns the current stock of a product outside any transaction.
func (l *Ledger) Available(ctx context.Context, productID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var stock int
	err := l.db.GetContext(ctx, &stock, l.db.Rebind(`
		SELECT stock FROM products WHERE id = ? AND status <> 'deleted'
	`), productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", apperr.ErrProductNotFound, productID)
	}
	if err != nil {
		return 0, apperr.Storage("read stock", err)
	}
	return stock, nil
}
