package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
	"github.com/MikeMC777/printshop-orders/internal/auth"
	"github.com/MikeMC777/printshop-orders/internal/database"
	"github.com/MikeMC777/printshop-orders/internal/fulfillment"
	"github.com/MikeMC777/printshop-orders/internal/inventory"
	"github.com/MikeMC777/printshop-orders/internal/notify"
)

const defaultTimeout = 5 * time.Second

// Header is the caller-supplied part of a new order. Zero values mean "use the default".
type Header struct {
	UserID        string
	Shipping      Shipping
	Notes         string
	TotalPrice    *decimal.Decimal
	Status        fulfillment.Status
	PaymentStatus fulfillment.PaymentStatus
	PaymentMethod fulfillment.Method
}

// Line is one requested item of a new order.
type Line struct {
	ProductID          string
	Quantity           int
	CustomizationText  string
	CustomizationImage string
}

type Deps struct {
	DB       *sqlx.DB
	Repo     Repository
	Ledger   *inventory.Ledger
	Notifier notify.Sender
	Log      *zap.Logger
	// Timeout bounds every service call; zero means five seconds.
	Timeout time.Duration
}

// Service is the order aggregate. It is the only code that writes orders.status.
type Service struct {
	db       *sqlx.DB
	repo     Repository
	ledger   *inventory.Ledger
	notifier notify.Sender
	log      *zap.Logger
	timeout  time.Duration
	clock    func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		db:       d.DB,
		repo:     d.Repo,
		ledger:   d.Ledger,
		notifier: d.Notifier,
		log:      d.Log,
		timeout:  d.Timeout,
		clock:    time.Now,
	}
	if s.repo == nil {
		s.repo = NewSQLRepo()
	}
	if s.ledger == nil {
		s.ledger = inventory.NewLedger(d.DB)
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	return s
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Create places an order: every line reserves stock and snapshots the product, then the
// header and items are written, all in one transaction. Any failure leaves no trace and
// matches both ErrOrderCreationFailed and its cause.
func (s *Service) Create(ctx context.Context, h Header, lines []Line) (*Order, error) {
	o, err := s.create(ctx, h, lines)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrOrderCreationFailed, err)
	}

	s.log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("user_id", o.UserID),
		zap.String("total_price", o.TotalPrice.StringFixed(2)),
		zap.Int("items", len(o.Items)))

	ev := notify.OrderCreated{
		EventID:    uuid.NewString(),
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice,
		ItemCount:  len(o.Items),
		Status:     string(o.Status),
		Timestamp:  o.CreatedAt,
	}
	if err := s.notifier.OrderCreated(ctx, ev); err != nil {
		s.log.Warn("order created notification failed", zap.String("order_id", o.ID), zap.Error(err))
	}
	return o, nil
}

func (s *Service) create(ctx context.Context, h Header, lines []Line) (*Order, error) {
	if err := validateCreate(h, lines); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	o := &Order{
		ID:            uuid.NewString(),
		UserID:        strings.TrimSpace(h.UserID),
		Status:        fulfillment.StatusPending,
		PaymentStatus: fulfillment.PaymentPending,
		PaymentMethod: h.PaymentMethod,
		Shipping:      h.Shipping,
		Notes:         h.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if h.PaymentStatus != "" {
		o.PaymentStatus = h.PaymentStatus
	}
	if h.Status != "" && h.Status != fulfillment.StatusPending {
		// An initial status is treated as a move away from pending.
		if h.Status == fulfillment.StatusCanceled {
			return nil, apperr.Invalid("an order cannot be created canceled")
		}
		if err := fulfillment.Check(o.State(), h.Status); err != nil {
			return nil, err
		}
		o.Status = h.Status
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		items := make([]Item, 0, len(lines))
		for _, ln := range lines {
			if err := s.ledger.Reserve(ctx, tx, ln.ProductID, ln.Quantity); err != nil {
				return err
			}
			name, price, err := s.repo.ProductSnapshot(ctx, tx, ln.ProductID)
			if err != nil {
				return err
			}
			items = append(items, Item{
				ID:                 uuid.NewString(),
				OrderID:            o.ID,
				ProductID:          ln.ProductID,
				ProductName:        name,
				Price:              price,
				Quantity:           ln.Quantity,
				CustomizationText:  ln.CustomizationText,
				CustomizationImage: ln.CustomizationImage,
			})
		}

		if h.TotalPrice != nil {
			o.TotalPrice = *h.TotalPrice
		} else {
			o.TotalPrice = Total(items)
		}
		if err := s.repo.Insert(ctx, tx, o); err != nil {
			return err
		}
		if err := s.repo.InsertItems(ctx, tx, items); err != nil {
			return err
		}
		o.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func validateCreate(h Header, lines []Line) error {
	var problems []string
	if strings.TrimSpace(h.UserID) == "" {
		problems = append(problems, "user_id is required")
	}
	if strings.TrimSpace(h.Shipping.Name) == "" {
		problems = append(problems, "shipping_name is required")
	}
	if strings.TrimSpace(h.Shipping.Address) == "" {
		problems = append(problems, "shipping_address is required")
	}
	if strings.TrimSpace(h.Shipping.City) == "" {
		problems = append(problems, "shipping_city is required")
	}
	if len(lines) == 0 {
		problems = append(problems, "at least one item is required")
	}
	for i, ln := range lines {
		if strings.TrimSpace(ln.ProductID) == "" {
			problems = append(problems, fmt.Sprintf("items[%d].product_id is required", i))
		}
		if ln.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("items[%d].quantity must be > 0", i))
		}
	}
	if h.TotalPrice != nil && h.TotalPrice.IsNegative() {
		problems = append(problems, "total_price must be >= 0")
	}
	if h.Status != "" && !h.Status.Valid() {
		problems = append(problems, fmt.Sprintf("unknown status %q", h.Status))
	}
	if h.PaymentStatus != "" && !h.PaymentStatus.Valid() {
		problems = append(problems, fmt.Sprintf("unknown payment_status %q", h.PaymentStatus))
	}
	if h.PaymentMethod != "" && !h.PaymentMethod.Valid() {
		problems = append(problems, fmt.Sprintf("unknown payment_method %q", h.PaymentMethod))
	}
	if len(problems) > 0 {
		return apperr.Invalid("%s", strings.Join(problems, "; "))
	}
	return nil
}

// Transition is the single writer of orders.status. It asks the fulfillment gate, then
// moves the row with a conditional update on the status it was read with. changed is
// false when there was nothing to do, including when a concurrent caller got there first.
func (s *Service) Transition(ctx context.Context, q sqlx.ExtContext, o *Order, to fulfillment.Status) (bool, error) {
	if err := fulfillment.Check(o.State(), to); err != nil {
		return false, err
	}
	if o.Status == to {
		return false, nil
	}

	now := s.clock().UTC()
	moved, err := s.repo.SetStatus(ctx, q, o.ID, o.Status, to, now)
	if err != nil {
		return false, err
	}
	if !moved {
		cur, err := s.repo.Get(ctx, q, o.ID)
		if err != nil {
			return false, err
		}
		if cur.Status == to {
			items := o.Items
			*o = *cur
			o.Items = items
			return false, nil
		}
		return false, fmt.Errorf("%w: order %s changed from %s to %s meanwhile", apperr.ErrInvalidTransition, o.ID, o.Status, cur.Status)
	}

	s.log.Info("order status changed",
		zap.String("order_id", o.ID),
		zap.String("from", string(o.Status)),
		zap.String("to", string(to)))
	o.Status = to
	o.UpdatedAt = now
	return true, nil
}

// Cancel cancels a pending or processing order and puts its stock back. Canceling an
// already canceled order changes nothing and releases nothing.
func (s *Service) Cancel(ctx context.Context, id string, actor auth.Actor) (*Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out *Order
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		o, err := s.repo.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		if !actor.CanAccess(o.UserID) {
			return fmt.Errorf("%w: order %s belongs to another user", apperr.ErrForbidden, id)
		}
		items, err := s.repo.Items(ctx, tx, id)
		if err != nil {
			return err
		}
		o.Items = items

		changed, err := s.Transition(ctx, tx, o, fulfillment.StatusCanceled)
		if err != nil {
			return err
		}
		if changed {
			for _, it := range items {
				if err := s.ledger.Release(ctx, tx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus moves an order to a new status. Cancellation goes through Cancel so the
// stock comes back; every other move is reserved to admins.
func (s *Service) UpdateStatus(ctx context.Context, id string, to fulfillment.Status, actor auth.Actor) (*Order, error) {
	if !to.Valid() {
		return nil, apperr.Invalid("unknown order status %q", to)
	}
	if to == fulfillment.StatusCanceled {
		return s.Cancel(ctx, id, actor)
	}
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only staff may set status %s", apperr.ErrForbidden, to)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out *Order
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		o, err := s.Load(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := s.Transition(ctx, tx, o, to); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a partial change to shipping, notes and payment fields.
func (s *Service) Update(ctx context.Context, id string, p Patch) (*Order, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out *Order
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if p.Empty() {
			o, err := s.Load(ctx, tx, id)
			out = o
			return err
		}
		if err := s.repo.Patch(ctx, tx, id, p, s.clock().UTC()); err != nil {
			return err
		}
		o, err := s.Load(ctx, tx, id)
		out = o
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an order and its items for good. Stock is not touched.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.repo.Delete(ctx, tx, id)
	})
}

// Get returns an order with its items.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.Load(ctx, s.db, id)
}

// Items returns the lines of an order.
func (s *Service) Items(ctx context.Context, id string) ([]Item, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return o.Items, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.ListByUser(ctx, s.db, userID, limit, offset)
}

// Load reads an order and its items on q, which may be a transaction.
func (s *Service) Load(ctx context.Context, q sqlx.ExtContext, id string) (*Order, error) {
	o, err := s.repo.Get(ctx, q, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.Items(ctx, q, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// LoadByPaymentID finds the order currently carrying payment reference ref.
func (s *Service) LoadByPaymentID(ctx context.Context, q sqlx.ExtContext, ref string) (*Order, error) {
	return s.repo.FindByPaymentID(ctx, q, ref)
}
