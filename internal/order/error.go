package order

import (
	"errors"
	"fmt"
)

var (
	// -- Validation & Input --
	ErrInvalidItems = errors.New("invalid items: some dishes are missing or unavailable")

	// -- Resource State --
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// -- Authorization --
	ErrForbidden = errors.New("order belongs to another customer")

	// -- Persistence --
	ErrDuplicateOrderNo    = errors.New("order number already exists")
	ErrOrderCreationFailed = errors.New("order creation failed")
)

// InvalidItemsError lists the dish ids the catalog could not sell.
type InvalidItemsError struct {
	Missing []uint
}

func (e *InvalidItemsError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidItems.Error(), e.Missing)
}

func (e *InvalidItemsError) Is(target error) bool {
	return target == ErrInvalidItems
}

type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidStatusTransition
}
