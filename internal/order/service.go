package order

import (
	"context"
	"fmt"

	"resto-be/internal/cart"
	"resto-be/internal/logger"
	"resto-be/internal/notification"
	"resto-be/internal/validation"

	"go.uber.org/zap"
)

type Service interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error)
	CheckoutCart(ctx context.Context, customerID uint, tableLabel, note *string) (*Checkout, error)
	GetOrder(ctx context.Context, orderID, customerID uint, isAdmin bool) (*Order, error)
	TransitionStatus(ctx context.Context, orderID uint, to Status) (*Order, error)
	BatchTransitionStatus(ctx context.Context, ids []uint, to Status) (*BatchResult, error)
	CancelOrder(ctx context.Context, orderID, customerID uint, isAdmin bool) (*Order, error)
	ListMyOrders(ctx context.Context, customerID uint, f ListFilter) (*OrderList, error)
	ListOrders(ctx context.Context, f ListFilter) (*OrderList, error)
}

// CartStore is the part of the cart service checkout depends on.
type CartStore interface {
	Snapshot(ctx context.Context, customerID uint) (*cart.Snapshot, error)
	RemoveLines(ctx context.Context, customerID uint, lines []cart.Item) error
}

type service struct {
	repo     Repository
	factory  Factory
	carts    CartStore
	notifier notification.Dispatcher
}

func NewService(repo Repository, factory Factory, carts CartStore, notifier notification.Dispatcher) Service {
	return &service{
		repo:     repo,
		factory:  factory,
		carts:    carts,
		notifier: notifier,
	}
}

func (s *service) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	o, err := s.factory.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, notification.OrderCreated(o.ID, o.OrderNo, o.CustomerID, o.TotalAmount.StringFixed(2)))
	return o, nil
}

// CheckoutCart places an order from the re-validated cart snapshot. The
// ordered lines leave the cart only once the order has committed, so any
// failure before that leaves it exactly as it was. Lines added while the
// order was being placed stay in the cart.
func (s *service) CheckoutCart(ctx context.Context, customerID uint, tableLabel, note *string) (*Checkout, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CheckoutCart"),
		zap.Uint("customer_id", customerID),
	)

	snap, err := s.carts.Snapshot(ctx, customerID)
	if err != nil {
		log.Error("failed to load cart snapshot", zap.Error(err))
		return nil, err
	}
	if snap.IsEmpty() {
		return nil, cart.ErrCartEmpty
	}

	items := make([]ItemInput, 0, len(snap.Items))
	ordered := make([]cart.Item, 0, len(snap.Items))
	for _, line := range snap.Items {
		items = append(items, ItemInput{DishID: line.DishID, Quantity: line.Quantity})
		ordered = append(ordered, cart.Item{DishID: line.DishID, Quantity: line.Quantity})
	}

	o, err := s.CreateOrder(ctx, CreateOrderInput{
		CustomerID: customerID,
		Items:      items,
		TableLabel: tableLabel,
		Note:       note,
	})
	if err != nil {
		log.Warn("checkout failed, cart kept", zap.Error(err))
		return nil, err
	}

	cleared := true
	if err := s.carts.RemoveLines(ctx, customerID, ordered); err != nil {
		// the order stands; the customer can clear the cart manually
		log.Error("failed to clear cart after checkout",
			zap.Uint("order_id", o.ID),
			zap.Error(err),
		)
		cleared = false
	}

	return &Checkout{Order: o, CartCleared: cleared}, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, customerID uint, isAdmin bool) (*Order, error) {
	if err := validation.ID("order_id", orderID); err != nil {
		return nil, err
	}

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.CustomerID != customerID {
		logger.FromCtx(ctx).Warn("order access denied",
			zap.String("layer", "service"),
			zap.Uint("order_id", orderID),
		)
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// ListMyOrders pages through the caller's own orders; any CustomerID in f
// is overridden.
func (s *service) ListMyOrders(ctx context.Context, customerID uint, f ListFilter) (*OrderList, error) {
	if customerID == 0 {
		return nil, ErrForbidden
	}
	f.CustomerID = customerID
	return s.list(ctx, f)
}

func (s *service) ListOrders(ctx context.Context, f ListFilter) (*OrderList, error) {
	return s.list(ctx, f)
}

func (s *service) list(ctx context.Context, f ListFilter) (*OrderList, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, validation.New("status", fmt.Sprintf("unknown status %q", *f.Status))
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, validation.New("from", "must not be after to")
	}
	f.Limit, f.Page = validation.Pagination(f.Limit, f.Page)

	orders, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &OrderList{Orders: orders, Page: f.Page, Limit: f.Limit}, nil
}

// TransitionStatus is the staff-driven move along the order graph.
func (s *service) TransitionStatus(ctx context.Context, orderID uint, to Status) (*Order, error) {
	if err := validation.ID("order_id", orderID); err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, validation.New("status", fmt.Sprintf("unknown status %q", to))
	}

	change, err := s.repo.Transition(ctx, orderID, to, 0)
	if err != nil {
		return nil, err
	}

	s.notifyChange(ctx, *change)
	return change.Order, nil
}

func (s *service) BatchTransitionStatus(ctx context.Context, ids []uint, to Status) (*BatchResult, error) {
	if !to.Valid() {
		return nil, validation.New("status", fmt.Sprintf("unknown status %q", to))
	}
	if len(ids) == 0 {
		return nil, validation.New("orderIds", "must not be empty")
	}
	if len(ids) > validation.MaxBatchOrders {
		return nil, validation.New("orderIds", fmt.Sprintf("must not exceed %d ids", validation.MaxBatchOrders))
	}

	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for i, id := range ids {
		if err := validation.ID(fmt.Sprintf("orderIds[%d]", i), id); err != nil {
			return nil, err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	res, err := s.repo.BatchTransition(ctx, unique, to)
	if err != nil {
		return nil, err
	}

	for _, c := range res.changes {
		s.notifyChange(ctx, c)
	}
	return res, nil
}

// CancelOrder lets a customer cancel their own order while it is still
// pending or confirmed. Admins may cancel any order on the same edges.
func (s *service) CancelOrder(ctx context.Context, orderID, customerID uint, isAdmin bool) (*Order, error) {
	if err := validation.ID("order_id", orderID); err != nil {
		return nil, err
	}

	owner := customerID
	if isAdmin {
		owner = 0
	} else if owner == 0 {
		return nil, ErrForbidden
	}

	change, err := s.repo.Transition(ctx, orderID, StatusCancelled, owner)
	if err != nil {
		return nil, err
	}

	s.notifyChange(ctx, *change)
	return change.Order, nil
}

func (s *service) notifyChange(ctx context.Context, c Change) {
	e, ok := notification.OrderStatusChanged(c.Order.ID, c.Order.OrderNo, c.Order.CustomerID, string(c.From), string(c.Order.Status))
	if ok {
		s.notifier.Notify(ctx, e)
	}
}
