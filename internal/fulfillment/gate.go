package fulfillment

import (
	"fmt"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
)

// State is the part of an order the gate looks at.
type State struct {
	Status        Status
	PaymentStatus PaymentStatus
	Method        Method
}

// Check decides whether an order in state from may move to status to.
// A nil result for to == from.Status means "nothing to do".
//
// Rules, in evaluation order:
//   - delivered needs a completed payment, whatever the method or current status;
//   - canceled is reachable from pending/processing only (and is a no-op when already canceled);
//   - terminal orders never move, and status never moves backwards;
//   - processing and shipped need a completed payment unless the method collects on delivery.
func Check(from State, to Status) error {
	if !to.Valid() {
		return apperr.Invalid("unknown order status %q", to)
	}

	if to == StatusDelivered && from.PaymentStatus != PaymentCompleted {
		return fmt.Errorf("%w: order cannot be delivered while payment is %s", apperr.ErrPaymentRequired, paymentLabel(from.PaymentStatus))
	}

	if to == StatusCanceled {
		if from.Status == StatusCanceled || from.Status.Cancelable() {
			return nil
		}
		return fmt.Errorf("%w: %s order cannot be canceled", apperr.ErrInvalidTransition, from.Status)
	}

	if from.Status == to {
		return nil
	}
	if from.Status.Terminal() {
		return fmt.Errorf("%w: order is already %s", apperr.ErrInvalidTransition, from.Status)
	}
	if statusRank[to] < statusRank[from.Status] {
		return fmt.Errorf("%w: cannot move order back from %s to %s", apperr.ErrInvalidTransition, from.Status, to)
	}

	if (to == StatusProcessing || to == StatusShipped) && from.PaymentStatus != PaymentCompleted {
		if from.Method.CollectsOnDelivery() {
			return nil
		}
		return fmt.Errorf("%w: %s requires a completed payment for method %s (payment is %s)",
			apperr.ErrPaymentRequired, to, methodLabel(from.Method), paymentLabel(from.PaymentStatus))
	}
	return nil
}

func paymentLabel(p PaymentStatus) string {
	if p == "" {
		return string(PaymentPending)
	}
	return string(p)
}

func methodLabel(m Method) string {
	if m == "" {
		return "none"
	}
	return string(m)
}
