// Package notify delivers order and payment notifications. Delivery is best effort:
// callers log a failed send and carry on, a notification never undoes a committed change.
package notify

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderCreated struct {
	EventID    string          `json:"event_id"`
	OrderID    string          `json:"order_id"`
	UserID     string          `json:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ItemCount  int             `json:"item_count"`
	Status     string          `json:"status"`
	Timestamp  time.Time       `json:"timestamp"`
}

type PaymentResult struct {
	EventID   string    `json:"event_id"`
	OrderID   string    `json:"order_id"`
	Method    string    `json:"method"`
	Succeeded bool      `json:"succeeded"`
	Receipt   string    `json:"receipt,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Sender interface {
	OrderCreated(ctx context.Context, ev OrderCreated) error
	PaymentResult(ctx context.Context, ev PaymentResult) error
}

// LogSender writes notifications to the service log. It is the default when no
// broker is configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender { return &LogSender{log: log} }

func (s *LogSender) OrderCreated(_ context.Context, ev OrderCreated) error {
	s.log.Info("notify order created",
		zap.String("order_id", ev.OrderID),
		zap.String("user_id", ev.UserID),
		zap.String("total_price", ev.TotalPrice.StringFixed(2)),
		zap.Int("items", ev.ItemCount))
	return nil
}

func (s *LogSender) PaymentResult(_ context.Context, ev PaymentResult) error {
	s.log.Info("notify payment result",
		zap.String("order_id", ev.OrderID),
		zap.String("method", ev.Method),
		zap.Bool("succeeded", ev.Succeeded),
		zap.String("receipt", ev.Receipt))
	return nil
}

// Nop drops every notification.
type Nop struct{}

func (Nop) OrderCreated(context.Context, OrderCreated) error   { return nil }
func (Nop) PaymentResult(context.Context, PaymentResult) error { return nil }
