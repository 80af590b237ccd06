package payment

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
	"github.com/MikeMC777/printshop-orders/internal/database"
	"github.com/MikeMC777/printshop-orders/internal/fulfillment"
)

// Repository writes the payment columns of orders and the attempt log.
type Repository interface {
	Start(ctx context.Context, q sqlx.ExtContext, orderID string, method fulfillment.Method, status fulfillment.PaymentStatus, token string, now time.Time) (bool, error)
	Settle(ctx context.Context, q sqlx.ExtContext, token string, status fulfillment.PaymentStatus, ref string, now time.Time) (bool, error)
	LogEvent(ctx context.Context, q sqlx.ExtContext, ev Event) error
	History(ctx context.Context, q sqlx.ExtContext, orderID string) ([]Event, error)
}

type SQLRepo struct{}

func NewSQLRepo() *SQLRepo { return &SQLRepo{} }

// Start points the order at a new attempt. Any earlier token stops resolving. false
// means the order is finished or already paid.
func (r *SQLRepo) Start(ctx context.Context, q sqlx.ExtContext, orderID string, method fulfillment.Method, status fulfillment.PaymentStatus, token string, now time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE orders
		SET payment_method = ?, payment_status = ?, payment_id = ?, updated_at = ?
		WHERE id = ? AND status NOT IN ('canceled', 'delivered') AND payment_status <> 'completed'
	`), method, status, token, now, orderID)
	if err != nil {
		return false, database.Classify("start payment", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Storage("start payment", err)
	}
	return n == 1, nil
}

// Settle records the outcome of the attempt identified by token, if it is still open.
// ref replaces the token as payment_id. false means no open attempt carries token.
func (r *SQLRepo) Settle(ctx context.Context, q sqlx.ExtContext, token string, status fulfillment.PaymentStatus, ref string, now time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE orders
		SET payment_status = ?, payment_id = ?, updated_at = ?
		WHERE payment_id = ? AND payment_status IN ('pending', 'processing')
	`), status, ref, now, token)
	if err != nil {
		return false, database.Classify("settle payment", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Storage("settle payment", err)
	}
	return n == 1, nil
}

func (r *SQLRepo) LogEvent(ctx context.Context, q sqlx.ExtContext, ev Event) error {
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO payment_events (id, order_id, token, method, kind, amount, reference, created_at)
		VALUES (?,?,?,?,?,?,?,?)
	`), ev.ID, ev.OrderID, ev.Token, ev.Method, ev.Kind, ev.Amount, ev.Reference, ev.CreatedAt)
	return database.Classify("log payment event", err)
}

func (r *SQLRepo) History(ctx context.Context, q sqlx.ExtContext, orderID string) ([]Event, error) {
	out := []Event{}
	err := sqlx.SelectContext(ctx, q, &out, q.Rebind(`
		SELECT id, order_id, token, method, kind, amount, reference, created_at
		FROM payment_events
		WHERE order_id = ?
		ORDER BY created_at, id
	`), orderID)
	if err != nil {
		return nil, apperr.Storage("payment history", err)
	}
	return out, nil
}
