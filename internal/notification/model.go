package notification

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindOrderCreated       Kind = "order.created"
	KindOrderStatusChanged Kind = "order.status_changed"
	KindPaymentCreated     Kind = "payment.created"
	KindPaymentSucceeded   Kind = "payment.succeeded"
	KindPaymentFailed      Kind = "payment.failed"
	KindPaymentRefunded    Kind = "payment.refunded"
)

// Target mirrors who should see a notification.
type Target string

const (
	TargetUser  Target = "user"
	TargetAdmin Target = "admin"
)

type Event struct {
	Kind       Kind              `json:"kind"`
	Target     Target            `json:"target"`
	CustomerID uint              `json:"customerId,omitempty"`
	OrderID    uint              `json:"orderId,omitempty"`
	OrderNo    string            `json:"orderNo,omitempty"`
	PaymentID  uint              `json:"paymentId,omitempty"`
	PaymentNo  string            `json:"paymentNo,omitempty"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Payload    map[string]string `json:"payload,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

var statusMessages = map[string]string{
	"confirmed": "has been confirmed and is being prepared",
	"cooking":   "is being cooked, thank you for waiting",
	"ready":     "is ready, please come to the counter",
	"completed": "is completed, thank you for dining with us",
	"cancelled": "has been cancelled",
}

func OrderCreated(orderID uint, orderNo string, customerID uint, total string) Event {
	return Event{
		Kind:       KindOrderCreated,
		Target:     TargetAdmin,
		CustomerID: customerID,
		OrderID:    orderID,
		OrderNo:    orderNo,
		Title:      "New order",
		Content:    fmt.Sprintf("Order %s placed, total %s", orderNo, total),
		Payload:    map[string]string{"total": total},
		OccurredAt: time.Now(),
	}
}

// OrderStatusChanged returns false when the new status has no
// customer-facing message (for example a move back to pending).
func OrderStatusChanged(orderID uint, orderNo string, customerID uint, from, to string) (Event, bool) {
	msg, ok := statusMessages[to]
	if !ok {
		return Event{}, false
	}
	return Event{
		Kind:       KindOrderStatusChanged,
		Target:     TargetUser,
		CustomerID: customerID,
		OrderID:    orderID,
		OrderNo:    orderNo,
		Title:      "Order status updated",
		Content:    fmt.Sprintf("Your order %s %s", orderNo, msg),
		Payload:    map[string]string{"from": from, "to": to},
		OccurredAt: time.Now(),
	}, true
}

func PaymentCreated(paymentID uint, paymentNo string, orderID uint, customerID uint, method, amount string) Event {
	return Event{
		Kind:       KindPaymentCreated,
		Target:     TargetAdmin,
		CustomerID: customerID,
		OrderID:    orderID,
		PaymentID:  paymentID,
		PaymentNo:  paymentNo,
		Title:      "Payment started",
		Content:    fmt.Sprintf("Payment %s via %s for %s", paymentNo, method, amount),
		Payload:    map[string]string{"method": method, "amount": amount},
		OccurredAt: time.Now(),
	}
}

func PaymentSucceeded(paymentID uint, paymentNo string, orderID uint, customerID uint, amount string) Event {
	return Event{
		Kind:       KindPaymentSucceeded,
		Target:     TargetUser,
		CustomerID: customerID,
		OrderID:    orderID,
		PaymentID:  paymentID,
		PaymentNo:  paymentNo,
		Title:      "Payment successful",
		Content:    fmt.Sprintf("Payment %s succeeded, amount %s", paymentNo, amount),
		Payload:    map[string]string{"amount": amount},
		OccurredAt: time.Now(),
	}
}

func PaymentFailed(paymentID uint, paymentNo string, orderID uint, customerID uint) Event {
	return Event{
		Kind:       KindPaymentFailed,
		Target:     TargetUser,
		CustomerID: customerID,
		OrderID:    orderID,
		PaymentID:  paymentID,
		PaymentNo:  paymentNo,
		Title:      "Payment failed",
		Content:    fmt.Sprintf("Payment %s failed, you can try again", paymentNo),
		OccurredAt: time.Now(),
	}
}

func PaymentRefunded(paymentID uint, paymentNo string, orderID uint, customerID uint, amount, reason string) Event {
	return Event{
		Kind:       KindPaymentRefunded,
		Target:     TargetUser,
		CustomerID: customerID,
		OrderID:    orderID,
		PaymentID:  paymentID,
		PaymentNo:  paymentNo,
		Title:      "Payment refunded",
		Content:    fmt.Sprintf("Payment %s refunded, amount %s", paymentNo, amount),
		Payload:    map[string]string{"amount": amount, "reason": reason},
		OccurredAt: time.Now(),
	}
}
