// Package validation holds the field-level checks applied to request input
// before any transaction is opened.
package validation

import (
	"errors"
	"fmt"
)

const (
	MinQuantity      = 1
	MaxQuantity      = 99
	MaxOrderItems    = 50
	MaxBatchOrders   = 50
	MaxTableLabelLen = 20
	MaxNoteLen       = 500
	MaxReasonLen     = 200

	MaxTransactionIDLen = 100

	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ErrValidation is matched by every *Error via errors.Is.
var ErrValidation = errors.New("validation error")

type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == ErrValidation
}

func New(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

func Quantity(field string, qty int) error {
	if qty < MinQuantity {
		return New(field, "quantity must be a positive integer")
	}
	if qty > MaxQuantity {
		return New(field, fmt.Sprintf("quantity must not exceed %d", MaxQuantity))
	}
	return nil
}

func ID(field string, id uint) error {
	if id == 0 {
		return New(field, "is required")
	}
	return nil
}

// Pagination clamps list parameters; out-of-range input is corrected, not
// rejected.
func Pagination(limit, page int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return limit, page
}

func MaxLen(field string, s *string, max int) error {
	if s != nil && len([]rune(*s)) > max {
		return New(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return nil
}
