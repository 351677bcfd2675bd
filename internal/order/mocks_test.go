package order

import (
	"context"
	"sync"

	"resto-be/internal/cart"
	"resto-be/internal/catalog"
	"resto-be/internal/notification"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Insert(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uint) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, f ListFilter) ([]*Order, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) Transition(ctx context.Context, id uint, to Status, customerID uint) (*Change, error) {
	args := m.Called(ctx, id, to, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Change), args.Error(1)
}

func (m *MockRepository) BatchTransition(ctx context.Context, ids []uint, to Status) (*BatchResult, error) {
	args := m.Called(ctx, ids, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BatchResult), args.Error(1)
}

type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) Resolve(ctx context.Context, ids []uint) (map[uint]catalog.Dish, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]catalog.Dish), args.Error(1)
}

type MockFactory struct {
	mock.Mock
}

func (m *MockFactory) Create(ctx context.Context, in CreateOrderInput) (*Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

type MockCartStore struct {
	mock.Mock
}

func (m *MockCartStore) Snapshot(ctx context.Context, customerID uint) (*cart.Snapshot, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Snapshot), args.Error(1)
}

func (m *MockCartStore) RemoveLines(ctx context.Context, customerID uint, lines []cart.Item) error {
	args := m.Called(ctx, customerID, lines)
	return args.Error(0)
}

// recordingDispatcher captures events synchronously.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []notification.Event
}

func (d *recordingDispatcher) Notify(_ context.Context, e notification.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

func (d *recordingDispatcher) kinds() []notification.Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notification.Kind, len(d.events))
	for i, e := range d.events {
		out[i] = e.Kind
	}
	return out
}
