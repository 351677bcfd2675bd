package transport

import (
	"context"

	"resto-be/internal/cart"
	"resto-be/internal/order"
	"resto-be/internal/payment"

	"github.com/stretchr/testify/mock"
)

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Add(ctx context.Context, customerID, dishID uint, qty int) (*cart.Snapshot, error) {
	args := m.Called(ctx, customerID, dishID, qty)
	s, _ := args.Get(0).(*cart.Snapshot)
	return s, args.Error(1)
}

func (m *MockCartService) SetQuantity(ctx context.Context, customerID, dishID uint, qty int) (*cart.Snapshot, error) {
	args := m.Called(ctx, customerID, dishID, qty)
	s, _ := args.Get(0).(*cart.Snapshot)
	return s, args.Error(1)
}

func (m *MockCartService) Remove(ctx context.Context, customerID, dishID uint) (*cart.Snapshot, error) {
	args := m.Called(ctx, customerID, dishID)
	s, _ := args.Get(0).(*cart.Snapshot)
	return s, args.Error(1)
}

func (m *MockCartService) Clear(ctx context.Context, customerID uint) error {
	return m.Called(ctx, customerID).Error(0)
}

func (m *MockCartService) RemoveLines(ctx context.Context, customerID uint, lines []cart.Item) error {
	return m.Called(ctx, customerID, lines).Error(0)
}

func (m *MockCartService) Snapshot(ctx context.Context, customerID uint) (*cart.Snapshot, error) {
	args := m.Called(ctx, customerID)
	s, _ := args.Get(0).(*cart.Snapshot)
	return s, args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, in order.CreateOrderInput) (*order.Order, error) {
	args := m.Called(ctx, in)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) CheckoutCart(ctx context.Context, customerID uint, tableLabel, note *string) (*order.Checkout, error) {
	args := m.Called(ctx, customerID, tableLabel, note)
	c, _ := args.Get(0).(*order.Checkout)
	return c, args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID, customerID uint, isAdmin bool) (*order.Order, error) {
	args := m.Called(ctx, orderID, customerID, isAdmin)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) TransitionStatus(ctx context.Context, orderID uint, to order.Status) (*order.Order, error) {
	args := m.Called(ctx, orderID, to)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) BatchTransitionStatus(ctx context.Context, ids []uint, to order.Status) (*order.BatchResult, error) {
	args := m.Called(ctx, ids, to)
	b, _ := args.Get(0).(*order.BatchResult)
	return b, args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, orderID, customerID uint, isAdmin bool) (*order.Order, error) {
	args := m.Called(ctx, orderID, customerID, isAdmin)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) ListMyOrders(ctx context.Context, customerID uint, f order.ListFilter) (*order.OrderList, error) {
	args := m.Called(ctx, customerID, f)
	l, _ := args.Get(0).(*order.OrderList)
	return l, args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, f order.ListFilter) (*order.OrderList, error) {
	args := m.Called(ctx, f)
	l, _ := args.Get(0).(*order.OrderList)
	return l, args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreatePayment(ctx context.Context, in payment.CreatePaymentInput) (*payment.Payment, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

func (m *MockPaymentService) SettlePayment(ctx context.Context, in payment.SettleInput) (*payment.Settlement, error) {
	args := m.Called(ctx, in)
	s, _ := args.Get(0).(*payment.Settlement)
	return s, args.Error(1)
}

func (m *MockPaymentService) HandleCallback(ctx context.Context, in payment.CallbackInput) (*payment.Settlement, error) {
	args := m.Called(ctx, in)
	s, _ := args.Get(0).(*payment.Settlement)
	return s, args.Error(1)
}

func (m *MockPaymentService) Refund(ctx context.Context, paymentID uint, reason string) (*payment.Settlement, error) {
	args := m.Called(ctx, paymentID, reason)
	s, _ := args.Get(0).(*payment.Settlement)
	return s, args.Error(1)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, id, customerID uint, isAdmin bool) (*payment.Payment, error) {
	args := m.Called(ctx, id, customerID, isAdmin)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

func (m *MockPaymentService) GetLatestByOrderNo(ctx context.Context, orderNo string, customerID uint, isAdmin bool) (*payment.Payment, error) {
	args := m.Called(ctx, orderNo, customerID, isAdmin)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

func (m *MockPaymentService) ListPayments(ctx context.Context, f payment.ListFilter) (*payment.PaymentList, error) {
	args := m.Called(ctx, f)
	l, _ := args.Get(0).(*payment.PaymentList)
	return l, args.Error(1)
}
