package cart

import (
	"context"

	"resto-be/internal/catalog"
	"resto-be/internal/logger"
	"resto-be/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service defines the business logic for carts.
type Service interface {
	Add(ctx context.Context, customerID, dishID uint, qty int) (*Snapshot, error)
	SetQuantity(ctx context.Context, customerID, dishID uint, qty int) (*Snapshot, error)
	Remove(ctx context.Context, customerID, dishID uint) (*Snapshot, error)
	Clear(ctx context.Context, customerID uint) error
	RemoveLines(ctx context.Context, customerID uint, lines []Item) error
	Snapshot(ctx context.Context, customerID uint) (*Snapshot, error)
}

type service struct {
	repo    Repository
	catalog catalog.Lookup

	// serializes read-modify-write cycles per customer
	locks *keyedMutex
}

// NewService creates a new cart service
func NewService(repo Repository, lookup catalog.Lookup) Service {
	return &service{repo: repo, catalog: lookup, locks: newKeyedMutex()}
}

func (s *service) lock(customerID uint) func() {
	return s.locks.lock(customerID)
}

// Add puts qty of a dish into the cart, merging with an existing line.
// A merge that would push the line above 99 is rejected, never clamped.
func (s *service) Add(ctx context.Context, customerID, dishID uint, qty int) (*Snapshot, error) {
	if err := validation.ID("dish_id", dishID); err != nil {
		return nil, err
	}
	if err := validation.Quantity("quantity", qty); err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddToCart"),
		zap.Uint("dish_id", dishID),
		zap.Int("quantity", qty),
	)

	dishes, err := s.catalog.Resolve(ctx, []uint{dishID})
	if err != nil {
		return nil, err
	}
	if _, ok := dishes[dishID]; !ok {
		log.Warn("dish unavailable")
		return nil, ErrDishUnavailable
	}

	unlock := s.lock(customerID)
	defer unlock()

	c, err := s.repo.Load(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if i := c.find(dishID); i >= 0 {
		merged := c.Items[i].Quantity + qty
		if merged > validation.MaxQuantity {
			log.Warn("quantity exceeded", zap.Int("current", c.Items[i].Quantity))
			return nil, ErrQuantityExceeded
		}
		c.Items[i].Quantity = merged
	} else {
		c.Items = append(c.Items, Item{DishID: dishID, Quantity: qty})
	}

	if err := s.repo.Save(ctx, customerID, c); err != nil {
		return nil, err
	}

	log.Info("dish added to cart")
	return s.price(ctx, c)
}

// SetQuantity overwrites a line's quantity; zero removes the line.
func (s *service) SetQuantity(ctx context.Context, customerID, dishID uint, qty int) (*Snapshot, error) {
	if err := validation.ID("dish_id", dishID); err != nil {
		return nil, err
	}
	if qty == 0 {
		return s.Remove(ctx, customerID, dishID)
	}
	if err := validation.Quantity("quantity", qty); err != nil {
		return nil, err
	}

	unlock := s.lock(customerID)
	defer unlock()

	c, err := s.repo.Load(ctx, customerID)
	if err != nil {
		return nil, err
	}

	i := c.find(dishID)
	if i < 0 {
		return nil, ErrCartItemNotFound
	}
	c.Items[i].Quantity = qty

	if err := s.repo.Save(ctx, customerID, c); err != nil {
		return nil, err
	}
	return s.price(ctx, c)
}

func (s *service) Remove(ctx context.Context, customerID, dishID uint) (*Snapshot, error) {
	if err := validation.ID("dish_id", dishID); err != nil {
		return nil, err
	}

	unlock := s.lock(customerID)
	defer unlock()

	c, err := s.repo.Load(ctx, customerID)
	if err != nil {
		return nil, err
	}

	i := c.find(dishID)
	if i < 0 {
		return nil, ErrCartItemNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)

	if err := s.repo.Save(ctx, customerID, c); err != nil {
		return nil, err
	}
	return s.price(ctx, c)
}

// Clear empties the cart. Checkout calls it only after the order commits.
func (s *service) Clear(ctx context.Context, customerID uint) error {
	unlock := s.lock(customerID)
	defer unlock()

	return s.repo.Clear(ctx, customerID)
}

// RemoveLines takes the given quantities out of the stored cart. Lines
// added or topped up after the caller read its snapshot keep the surplus.
func (s *service) RemoveLines(ctx context.Context, customerID uint, lines []Item) error {
	if len(lines) == 0 {
		return nil
	}

	unlock := s.lock(customerID)
	defer unlock()

	c, err := s.repo.Load(ctx, customerID)
	if err != nil {
		return err
	}

	taken := make(map[uint]int, len(lines))
	for _, l := range lines {
		taken[l.DishID] += l.Quantity
	}

	changed := false
	kept := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		if n := taken[it.DishID]; n > 0 {
			it.Quantity -= n
			changed = true
		}
		if it.Quantity > 0 {
			kept = append(kept, it)
		}
	}
	if !changed {
		return nil
	}

	c.Items = kept
	return s.repo.Save(ctx, customerID, c)
}

// Snapshot re-validates every stored line against the catalog. Lines for
// dishes that are gone or unavailable are dropped from the result and the
// totals are recomputed; the stored cart itself is left untouched.
func (s *service) Snapshot(ctx context.Context, customerID uint) (*Snapshot, error) {
	c, err := s.repo.Load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, c)
}

func (s *service) price(ctx context.Context, c *Cart) (*Snapshot, error) {
	snap := &Snapshot{Items: []Line{}, Total: decimal.Zero}
	if len(c.Items) == 0 {
		return snap, nil
	}

	dishes, err := s.catalog.Resolve(ctx, c.DishIDs())
	if err != nil {
		return nil, err
	}

	dropped := 0
	for _, it := range c.Items {
		d, ok := dishes[it.DishID]
		if !ok {
			dropped++
			continue
		}
		subtotal := d.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		snap.Items = append(snap.Items, Line{
			DishID:   d.ID,
			Name:     d.Name,
			Price:    d.Price,
			Quantity: it.Quantity,
			Subtotal: subtotal,
		})
		snap.Total = snap.Total.Add(subtotal)
		snap.ItemCount += it.Quantity
	}

	if dropped > 0 {
		logger.FromCtx(ctx).Info("dropped unavailable cart lines", zap.Int("dropped", dropped))
	}
	return snap, nil
}
