package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"resto-be/internal/cart"
	"resto-be/internal/notification"
	"resto-be/internal/utils"
	"resto-be/internal/validation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type serviceDeps struct {
	repo     *MockRepository
	factory  *MockFactory
	carts    *MockCartStore
	notifier *recordingDispatcher
}

func newTestService() (Service, *serviceDeps) {
	d := &serviceDeps{
		repo:     new(MockRepository),
		factory:  new(MockFactory),
		carts:    new(MockCartStore),
		notifier: &recordingDispatcher{},
	}
	return NewService(d.repo, d.factory, d.carts, d.notifier), d
}

func placedOrder() *Order {
	return &Order{
		ID:          10,
		OrderNo:     "ORD1",
		CustomerID:  7,
		Status:      StatusPending,
		TotalAmount: decimal.RequireFromString("74.00"),
	}
}

func TestService_CreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("NotifiesAfterCommit", func(t *testing.T) {
		svc, d := newTestService()
		in := CreateOrderInput{CustomerID: 7, Items: []ItemInput{{DishID: 1, Quantity: 1}}}
		d.factory.On("Create", ctx, in).Return(placedOrder(), nil)

		o, err := svc.CreateOrder(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "ORD1", o.OrderNo)
		assert.Equal(t, []notification.Kind{notification.KindOrderCreated}, d.notifier.kinds())
		assert.Equal(t, "74.00", d.notifier.events[0].Payload["total"])
	})

	t.Run("NoNotificationOnFailure", func(t *testing.T) {
		svc, d := newTestService()
		in := CreateOrderInput{CustomerID: 7}
		d.factory.On("Create", ctx, in).Return(nil, validation.New("items", "must not be empty"))

		_, err := svc.CreateOrder(ctx, in)
		assert.ErrorIs(t, err, validation.ErrValidation)
		assert.Empty(t, d.notifier.kinds())
	})
}

func TestService_CheckoutCart(t *testing.T) {
	ctx := context.Background()
	snapshot := &cart.Snapshot{
		Items: []cart.Line{
			{DishID: 1, Quantity: 2},
			{DishID: 2, Quantity: 1},
		},
		ItemCount: 3,
	}
	expectedInput := CreateOrderInput{
		CustomerID: 7,
		Items:      []ItemInput{{DishID: 1, Quantity: 2}, {DishID: 2, Quantity: 1}},
		TableLabel: utils.StrPtr("A3"),
	}
	ordered := []cart.Item{{DishID: 1, Quantity: 2}, {DishID: 2, Quantity: 1}}

	t.Run("RemovesOrderedLinesAfterCommit", func(t *testing.T) {
		svc, d := newTestService()
		d.carts.On("Snapshot", ctx, uint(7)).Return(snapshot, nil)
		d.factory.On("Create", ctx, expectedInput).Return(placedOrder(), nil)
		d.carts.On("RemoveLines", ctx, uint(7), ordered).Return(nil)

		res, err := svc.CheckoutCart(ctx, 7, utils.StrPtr("A3"), nil)
		require.NoError(t, err)
		assert.True(t, res.CartCleared)
		assert.Equal(t, uint(10), res.Order.ID)
		d.carts.AssertExpectations(t)
	})

	t.Run("FailedOrderKeepsCart", func(t *testing.T) {
		svc, d := newTestService()
		d.carts.On("Snapshot", ctx, uint(7)).Return(snapshot, nil)
		d.factory.On("Create", ctx, expectedInput).Return(nil, &InvalidItemsError{Missing: []uint{2}})

		_, err := svc.CheckoutCart(ctx, 7, utils.StrPtr("A3"), nil)
		assert.ErrorIs(t, err, ErrInvalidItems)
		d.carts.AssertNotCalled(t, "RemoveLines", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		svc, d := newTestService()
		d.carts.On("Snapshot", ctx, uint(7)).Return(&cart.Snapshot{}, nil)

		_, err := svc.CheckoutCart(ctx, 7, nil, nil)
		assert.ErrorIs(t, err, cart.ErrCartEmpty)
		d.factory.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("ClearFailureStillReturnsOrder", func(t *testing.T) {
		svc, d := newTestService()
		d.carts.On("Snapshot", ctx, uint(7)).Return(snapshot, nil)
		d.factory.On("Create", ctx, expectedInput).Return(placedOrder(), nil)
		d.carts.On("RemoveLines", ctx, uint(7), ordered).Return(errors.New("redis down"))

		res, err := svc.CheckoutCart(ctx, 7, utils.StrPtr("A3"), nil)
		require.NoError(t, err)
		assert.False(t, res.CartCleared)
		assert.NotNil(t, res.Order)
	})
}

func TestService_ListOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("MineOverridesCustomer", func(t *testing.T) {
		svc, d := newTestService()
		d.repo.On("List", ctx, ListFilter{CustomerID: 7, Limit: 20, Page: 1}).
			Return([]*Order{placedOrder()}, nil)

		res, err := svc.ListMyOrders(ctx, 7, ListFilter{CustomerID: 8})
		require.NoError(t, err)
		assert.Len(t, res.Orders, 1)
		assert.Equal(t, 20, res.Limit)
		assert.Equal(t, 1, res.Page)
	})

	t.Run("MineAnonymous", func(t *testing.T) {
		svc, d := newTestService()
		_, err := svc.ListMyOrders(ctx, 0, ListFilter{})
		assert.ErrorIs(t, err, ErrForbidden)
		d.repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("ClampsLimit", func(t *testing.T) {
		svc, d := newTestService()
		d.repo.On("List", ctx, ListFilter{Limit: validation.MaxPageSize, Page: 4}).Return([]*Order{}, nil)

		res, err := svc.ListOrders(ctx, ListFilter{Limit: 1000, Page: 4})
		require.NoError(t, err)
		assert.Equal(t, validation.MaxPageSize, res.Limit)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		svc, d := newTestService()
		paid := Status("paid")
		_, err := svc.ListOrders(ctx, ListFilter{Status: &paid})
		assert.ErrorIs(t, err, validation.ErrValidation)
		d.repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("InvertedRange", func(t *testing.T) {
		svc, _ := newTestService()
		from := time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)
		to := from.Add(-time.Hour)
		_, err := svc.ListOrders(ctx, ListFilter{From: &from, To: &to})
		assert.ErrorIs(t, err, validation.ErrValidation)
	})
}

func TestService_GetOrder(t *testing.T) {
	ctx := context.Background()
	svc, d := newTestService()
	d.repo.On("GetByID", ctx, uint(10)).Return(placedOrder(), nil)

	t.Run("Owner", func(t *testing.T) {
		o, err := svc.GetOrder(ctx, 10, 7, false)
		require.NoError(t, err)
		assert.Equal(t, uint(10), o.ID)
	})

	t.Run("Admin", func(t *testing.T) {
		_, err := svc.GetOrder(ctx, 10, 1, true)
		assert.NoError(t, err)
	})

	t.Run("OtherCustomerSeesNotFound", func(t *testing.T) {
		_, err := svc.GetOrder(ctx, 10, 8, false)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestService_TransitionStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, d := newTestService()
		moved := placedOrder()
		moved.Status = StatusConfirmed
		d.repo.On("Transition", ctx, uint(10), StatusConfirmed, uint(0)).
			Return(&Change{Order: moved, From: StatusPending}, nil)

		o, err := svc.TransitionStatus(ctx, 10, StatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, o.Status)
		require.Len(t, d.notifier.events, 1)
		assert.Equal(t, "confirmed", d.notifier.events[0].Payload["to"])
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		svc, d := newTestService()
		_, err := svc.TransitionStatus(ctx, 10, Status("paid"))
		assert.ErrorIs(t, err, validation.ErrValidation)
		d.repo.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("IllegalEdgeNotNotified", func(t *testing.T) {
		svc, d := newTestService()
		d.repo.On("Transition", ctx, uint(10), StatusCancelled, uint(0)).
			Return(nil, &TransitionError{From: StatusReady, To: StatusCancelled})

		_, err := svc.TransitionStatus(ctx, 10, StatusCancelled)
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
		assert.Empty(t, d.notifier.kinds())
	})
}

func TestService_BatchTransitionStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("DedupesAndNotifiesUpdated", func(t *testing.T) {
		svc, d := newTestService()
		moved := placedOrder()
		moved.Status = StatusCooking
		res := &BatchResult{
			Target:         StatusCooking,
			RequestedCount: 2,
			UpdatedCount:   1,
			Updated:        []uint{10},
			Skipped:        []Skipped{{ID: 11, Reason: "ready"}},
			changes:        []Change{{Order: moved, From: StatusConfirmed}},
		}
		d.repo.On("BatchTransition", ctx, []uint{10, 11}, StatusCooking).Return(res, nil)

		got, err := svc.BatchTransitionStatus(ctx, []uint{10, 11, 10}, StatusCooking)
		require.NoError(t, err)
		assert.Equal(t, 1, got.UpdatedCount)
		assert.Equal(t, []notification.Kind{notification.KindOrderStatusChanged}, d.notifier.kinds())
	})

	t.Run("Limits", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.BatchTransitionStatus(ctx, nil, StatusCooking)
		assert.ErrorIs(t, err, validation.ErrValidation)

		ids := make([]uint, validation.MaxBatchOrders+1)
		for i := range ids {
			ids[i] = uint(i + 1)
		}
		_, err = svc.BatchTransitionStatus(ctx, ids, StatusCooking)
		assert.ErrorIs(t, err, validation.ErrValidation)

		_, err = svc.BatchTransitionStatus(ctx, []uint{1, 0}, StatusCooking)
		assert.ErrorIs(t, err, validation.ErrValidation)
	})
}

func TestService_CancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerScoped", func(t *testing.T) {
		svc, d := newTestService()
		cancelled := placedOrder()
		cancelled.Status = StatusCancelled
		d.repo.On("Transition", ctx, uint(10), StatusCancelled, uint(7)).
			Return(&Change{Order: cancelled, From: StatusPending}, nil)

		o, err := svc.CancelOrder(ctx, 10, 7, false)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, o.Status)
		assert.Equal(t, []notification.Kind{notification.KindOrderStatusChanged}, d.notifier.kinds())
	})

	t.Run("AdminUnscoped", func(t *testing.T) {
		svc, d := newTestService()
		cancelled := placedOrder()
		cancelled.Status = StatusCancelled
		d.repo.On("Transition", ctx, uint(10), StatusCancelled, uint(0)).
			Return(&Change{Order: cancelled, From: StatusConfirmed}, nil)

		_, err := svc.CancelOrder(ctx, 10, 1, true)
		assert.NoError(t, err)
	})

	t.Run("Anonymous", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.CancelOrder(ctx, 10, 0, false)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}
