// Package apperr holds the error kinds shared by the order, payment and inventory packages.
// Callers wrap them with fmt.Errorf("%w: ...") and test them with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                 = errors.New("not found")
	ErrInvalidInput             = errors.New("invalid input")
	ErrInsufficientStock        = errors.New("insufficient stock")
	ErrInvalidTransition        = errors.New("invalid status transition")
	ErrPaymentRequired          = errors.New("payment required")
	ErrPaymentReferenceNotFound = errors.New("payment reference not found")
	ErrStorage                  = errors.New("storage failure")
	ErrForbidden                = errors.New("forbidden")

	// ErrOrderCreationFailed is always joined with the cause that aborted the create.
	ErrOrderCreationFailed = errors.New("order creation failed")

	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
)

// Storage wraps a driver error so it matches ErrStorage. nil stays nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// Invalid builds an ErrInvalidInput with a human readable message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
