// Package payment tracks the payment side of an order: starting an attempt, settling it
// from an explicit outcome, a simulated roll or a signed gateway callback.
//
// An order carries one attempt at a time. Starting a new attempt replaces payment_id, so
// a late callback for the previous token fails with ErrPaymentReferenceNotFound; every
// attempt and outcome is still kept in payment_events.
package payment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
	"github.com/MikeMC777/printshop-orders/internal/database"
	"github.com/MikeMC777/printshop-orders/internal/fulfillment"
	"github.com/MikeMC777/printshop-orders/internal/notify"
	"github.com/MikeMC777/printshop-orders/internal/order"
	"github.com/MikeMC777/printshop-orders/internal/settings"
)

type Config struct {
	// SimulationEnabled and SuccessRate are defaults; the settings table overrides them.
	SimulationEnabled bool
	SuccessRate       int
	WebhookSecret     string
	Timeout           time.Duration
}

type Deps struct {
	DB       *sqlx.DB
	Orders   *order.Service
	Repo     Repository
	Settings *settings.Cache
	Notifier notify.Sender
	Log      *zap.Logger
	Config   Config
}

type Tracker struct {
	db       *sqlx.DB
	orders   *order.Service
	repo     Repository
	settings *settings.Cache
	notifier notify.Sender
	log      *zap.Logger
	cfg      Config
	clock    func() time.Time
	// roll returns a number in [0, 100).
	roll func() int
}

func NewTracker(d Deps) *Tracker {
	t := &Tracker{
		db:       d.DB,
		orders:   d.Orders,
		repo:     d.Repo,
		settings: d.Settings,
		notifier: d.Notifier,
		log:      d.Log,
		cfg:      d.Config,
		clock:    time.Now,
		roll:     func() int { return rand.IntN(100) },
	}
	if t.repo == nil {
		t.repo = NewSQLRepo()
	}
	if t.notifier == nil {
		t.notifier = notify.Nop{}
	}
	if t.log == nil {
		t.log = zap.NewNop()
	}
	if t.cfg.Timeout <= 0 {
		t.cfg.Timeout = 5 * time.Second
	}
	return t
}

// Initiate starts a payment attempt and returns the token plus what the client should
// do next. Cash on delivery has nothing to collect now: the payment stays pending and
// the order moves straight to processing.
func (t *Tracker) Initiate(ctx context.Context, orderID string, in Initiation) (*Instructions, error) {
	if !in.Method.Valid() {
		return nil, apperr.Invalid("unknown payment method %q", in.Method)
	}
	if !in.Amount.IsPositive() {
		return nil, apperr.Invalid("amount must be positive")
	}
	if in.Method == fulfillment.MethodMpesa && strings.TrimSpace(in.Details.Phone) == "" {
		return nil, apperr.Invalid("mpesa payments need details.phone")
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	var out *Instructions
	err := database.WithTx(ctx, t.db, func(tx *sqlx.Tx) error {
		o, err := t.orders.Load(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o.Status.Terminal() {
			return fmt.Errorf("%w: order is %s", apperr.ErrInvalidTransition, o.Status)
		}
		if o.PaymentStatus == fulfillment.PaymentCompleted {
			return fmt.Errorf("%w: order is already paid", apperr.ErrInvalidTransition)
		}
		// Past pending, only cash on delivery may still be unpaid.
		if o.Status != fulfillment.StatusPending && !in.Method.CollectsOnDelivery() {
			return fmt.Errorf("%w: order is %s, only %s can be started now",
				apperr.ErrInvalidTransition, o.Status, fulfillment.MethodCashOnDelivery)
		}
		if !in.Amount.Equal(o.TotalPrice) {
			return apperr.Invalid("amount %s does not match order total %s", in.Amount.StringFixed(2), o.TotalPrice.StringFixed(2))
		}

		now := t.clock().UTC()
		token := newToken(in.Method)
		status := fulfillment.PaymentProcessing
		if in.Method.CollectsOnDelivery() {
			status = fulfillment.PaymentPending
		}
		started, err := t.repo.Start(ctx, tx, o.ID, in.Method, status, token, now)
		if err != nil {
			return err
		}
		if !started {
			return fmt.Errorf("%w: order %s was finished or paid meanwhile", apperr.ErrInvalidTransition, o.ID)
		}
		o.PaymentMethod, o.PaymentStatus, o.PaymentID = in.Method, status, token

		if in.Method.CollectsOnDelivery() && o.Status == fulfillment.StatusPending {
			if _, err := t.orders.Transition(ctx, tx, o, fulfillment.StatusProcessing); err != nil {
				return err
			}
		}

		if err := t.repo.LogEvent(ctx, tx, Event{
			ID:        ulid.Make().String(),
			OrderID:   o.ID,
			Token:     token,
			Method:    in.Method,
			Kind:      EventInitiated,
			Amount:    in.Amount,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		out = instructionsFor(o, in, token)
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.log.Info("payment initiated",
		zap.String("order_id", out.OrderID),
		zap.String("method", string(out.Method)),
		zap.String("token", out.Token))
	return out, nil
}

// Complete settles the attempt currently identified by token. Settling twice is a no-op;
// a token that no order points at any more is ErrPaymentReferenceNotFound.
func (t *Tracker) Complete(ctx context.Context, token string, succeeded bool) (*Result, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Invalid("payment token is required")
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	var (
		res    *Result
		method fulfillment.Method
	)
	err := database.WithTx(ctx, t.db, func(tx *sqlx.Tx) error {
		o, err := t.orders.LoadByPaymentID(ctx, tx, token)
		if err != nil {
			return err
		}
		method = o.PaymentMethod
		if o.PaymentStatus.Settled() {
			res = &Result{
				OrderID:       o.ID,
				Succeeded:     o.PaymentStatus == fulfillment.PaymentCompleted,
				PaymentStatus: o.PaymentStatus,
				OrderStatus:   o.Status,
			}
			return nil
		}

		now := t.clock().UTC()
		status, ref, kind := fulfillment.PaymentFailed, token, EventFailed
		if succeeded {
			status, ref, kind = fulfillment.PaymentCompleted, newReceipt(), EventCompleted
		}
		ok, err := t.repo.Settle(ctx, tx, token, status, ref, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s was settled concurrently", apperr.ErrPaymentReferenceNotFound, token)
		}
		o.PaymentStatus, o.PaymentID = status, ref

		if succeeded && o.Status == fulfillment.StatusPending {
			if _, err := t.orders.Transition(ctx, tx, o, fulfillment.StatusProcessing); err != nil {
				return err
			}
		}

		if err := t.repo.LogEvent(ctx, tx, Event{
			ID:        ulid.Make().String(),
			OrderID:   o.ID,
			Token:     token,
			Method:    o.PaymentMethod,
			Kind:      kind,
			Amount:    o.TotalPrice,
			Reference: ref,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		res = &Result{
			OrderID:       o.ID,
			Succeeded:     succeeded,
			Changed:       true,
			PaymentStatus: o.PaymentStatus,
			OrderStatus:   o.Status,
		}
		if succeeded {
			res.Receipt = ref
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !res.Changed {
		t.log.Info("payment already settled", zap.String("order_id", res.OrderID), zap.String("token", token))
		return res, nil
	}

	t.log.Info("payment settled",
		zap.String("order_id", res.OrderID),
		zap.Bool("succeeded", res.Succeeded),
		zap.String("receipt", res.Receipt))

	ev := notify.PaymentResult{
		EventID:   uuid.NewString(),
		OrderID:   res.OrderID,
		Method:    string(method),
		Succeeded: res.Succeeded,
		Receipt:   res.Receipt,
		Timestamp: t.clock().UTC(),
	}
	if err := t.notifier.PaymentResult(ctx, ev); err != nil {
		t.log.Warn("payment result notification failed", zap.String("order_id", res.OrderID), zap.Error(err))
	}
	return res, nil
}

// Simulate settles token with an outcome drawn against the configured success rate.
// It stands in for a gateway in demos and test environments.
func (t *Tracker) Simulate(ctx context.Context, token string) (*Result, error) {
	enabled, rate := t.simulationSettings(ctx)
	if !enabled {
		return nil, fmt.Errorf("%w: payment simulation is disabled", apperr.ErrForbidden)
	}
	return t.Complete(ctx, token, t.roll() < rate)
}

func (t *Tracker) simulationSettings(ctx context.Context) (bool, int) {
	enabled, rate := t.cfg.SimulationEnabled, t.cfg.SuccessRate
	if t.settings != nil {
		var err error
		if enabled, err = t.settings.Bool(ctx, settings.KeyPaymentSimulation, enabled); err != nil {
			t.log.Warn("settings unavailable, using configured simulation flag", zap.Error(err))
		}
		if rate, err = t.settings.Int(ctx, settings.KeyPaymentSuccessRate, rate); err != nil {
			t.log.Warn("settings unavailable, using configured success rate", zap.Error(err))
		}
	}
	return enabled, min(max(rate, 0), 100)
}

// History lists every payment attempt and outcome of an order, oldest first.
func (t *Tracker) History(ctx context.Context, orderID string) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()
	return t.repo.History(ctx, t.db, orderID)
}

var tokenPrefix = map[fulfillment.Method]string{
	fulfillment.MethodMpesa:          "MPESA",
	fulfillment.MethodCard:           "CARD",
	fulfillment.MethodBankTransfer:   "BANK",
	fulfillment.MethodCashOnDelivery: "COD",
}

func newToken(m fulfillment.Method) string {
	return tokenPrefix[m] + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func newReceipt() string { return "RCPT-" + ulid.Make().String() }

func instructionsFor(o *order.Order, in Initiation, token string) *Instructions {
	out := &Instructions{
		OrderID:       o.ID,
		Token:         token,
		Method:        in.Method,
		Amount:        in.Amount,
		PaymentStatus: o.PaymentStatus,
		OrderStatus:   o.Status,
	}
	amount := in.Amount.StringFixed(2)
	switch in.Method {
	case fulfillment.MethodMpesa:
		out.CheckoutRequestID = "ws_CO_" + token[len("MPESA-"):]
		out.Message = fmt.Sprintf("Enter your M-Pesa PIN on %s to pay %s", in.Details.Phone, amount)
	case fulfillment.MethodCard:
		out.CheckoutURL = "/checkout/card/" + token
		out.Message = fmt.Sprintf("Complete the card payment of %s at the checkout page", amount)
	case fulfillment.MethodBankTransfer:
		out.BankAccount = virtualAccount(o.ID)
		out.BankReference = token
		out.Message = fmt.Sprintf("Transfer %s to account %s quoting reference %s", amount, out.BankAccount, token)
	case fulfillment.MethodCashOnDelivery:
		out.Message = fmt.Sprintf("Pay %s in cash when the order is delivered", amount)
	}
	return out
}

// virtualAccount derives a stable per-order collection account number.
func virtualAccount(orderID string) string {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return "VA-" + strings.ToUpper(orderID)
	}
	var n uint64
	for _, b := range id[:8] {
		n = n<<8 | uint64(b)
	}
	return fmt.Sprintf("VA-%010d", n%10_000_000_000)
}
