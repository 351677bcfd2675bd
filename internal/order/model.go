package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCooking   Status = "cooking"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Order struct {
	ID          uint            `json:"id"`
	OrderNo     string          `json:"orderNo"`
	CustomerID  uint            `json:"customerId"`
	Items       []OrderItem     `json:"items,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      Status          `json:"status"`
	TableLabel  *string         `json:"tableLabel,omitempty"`
	Note        *string         `json:"note,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// OrderItem is a frozen copy of catalog data taken when the order was placed.
type OrderItem struct {
	ID        uint            `json:"id"`
	OrderID   uint            `json:"orderId"`
	DishID    uint            `json:"dishId"`
	DishName  string          `json:"dishName"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type ItemInput struct {
	DishID   uint `json:"dishId"`
	Quantity int  `json:"quantity"`
}

type CreateOrderInput struct {
	CustomerID uint
	Items      []ItemInput
	TableLabel *string
	Note       *string
}

// ListFilter narrows an order listing. A zero CustomerID spans every
// customer; From and To bound created_at inclusively.
type ListFilter struct {
	CustomerID uint
	Status     *Status
	From       *time.Time
	To         *time.Time
	Limit      int
	Page       int
}

// OrderList is one page of orders, newest first, without their items.
type OrderList struct {
	Orders []*Order `json:"orders"`
	Page   int      `json:"page"`
	Limit  int      `json:"limit"`
}

// Checkout is the result of turning a cart into an order.
type Checkout struct {
	Order       *Order `json:"order"`
	CartCleared bool   `json:"cartCleared"`
}

// Change records a committed single-order status move.
type Change struct {
	Order *Order
	From  Status
}

const SkipNotFound = "not_found"

type Skipped struct {
	ID     uint   `json:"id"`
	Reason string `json:"reason"`
}

type BatchResult struct {
	Target         Status    `json:"target"`
	RequestedCount int       `json:"requestedCount"`
	UpdatedCount   int       `json:"updatedCount"`
	Updated        []uint    `json:"updated"`
	Skipped        []Skipped `json:"skipped"`

	changes []Change
}
