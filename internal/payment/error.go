package payment

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// -- Resource State --
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentExists        = errors.New("order already has a pending payment")
	ErrInvalidPaymentStatus = errors.New("invalid payment status for this operation")
	ErrOrderNotPayable      = errors.New("order cannot be paid in its current status")
	ErrOrderCannotRefund    = errors.New("completed orders cannot be refunded")

	// -- Gateway --
	ErrAmountMismatch     = errors.New("payment amount mismatch")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// -- Persistence --
	ErrDuplicatePaymentNo = errors.New("payment number already exists")
)

// AmountMismatchError leaves the payment pending for manual reconciliation.
type AmountMismatchError struct {
	Expected decimal.Decimal
	Received decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, received %s",
		ErrAmountMismatch.Error(), e.Expected.StringFixed(2), e.Received.StringFixed(2))
}

func (e *AmountMismatchError) Is(target error) bool {
	return target == ErrAmountMismatch
}
