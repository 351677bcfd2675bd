package payment

import (
	"time"

	"resto-be/internal/order"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodWechat Method = "wechat"
	MethodAlipay Method = "alipay"
	MethodCash   Method = "cash"
)

func (m Method) Valid() bool {
	switch m {
	case MethodWechat, MethodAlipay, MethodCash:
		return true
	}
	return false
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

type ListFilter struct {
	Status  *Status
	Method  *Method
	OrderNo string
	Limit   int
	Page    int
}

type PaymentList struct {
	Payments []*Payment `json:"payments"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

type Payment struct {
	ID            uint            `json:"id"`
	PaymentNo     string          `json:"paymentNo"`
	OrderID       uint            `json:"orderId"`
	Amount        decimal.Decimal `json:"amount"`
	Method        Method          `json:"paymentMethod"`
	Status        Status          `json:"status"`
	TransactionID *string         `json:"transactionId,omitempty"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	RefundReason  *string         `json:"refundReason,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	// linked order, read in the same statement as the payment
	OrderNo     string       `json:"orderNo"`
	CustomerID  uint         `json:"customerId"`
	OrderStatus order.Status `json:"orderStatus"`

	// client-side parameters from the gateway; never persisted
	Params map[string]string `json:"paymentParams,omitempty"`
}

type CreatePaymentInput struct {
	OrderID    uint
	Method     Method
	CustomerID uint
	IsAdmin    bool
}

type SettleInput struct {
	PaymentID     uint
	Outcome       Outcome
	TransactionID *string
	// Amount is what the gateway reports; nil skips the comparison.
	Amount *decimal.Decimal
}

type CallbackInput struct {
	PaymentNo     string
	Status        string
	TransactionID *string
	Amount        *decimal.Decimal
}

// Settlement is the outcome of a settle or refund call. Applied is false
// when the payment had already left pending and the call was a no-op.
type Settlement struct {
	Payment *Payment `json:"payment"`
	Applied bool     `json:"applied"`

	orderFrom order.Status
}

func (s *Settlement) orderChanged() bool {
	return s.Applied && s.orderFrom != s.Payment.OrderStatus
}
