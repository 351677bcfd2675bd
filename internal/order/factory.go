package order

import (
	"context"
	"errors"
	"fmt"

	"resto-be/internal/catalog"
	"resto-be/internal/logger"
	"resto-be/internal/utils"
	"resto-be/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Factory turns a list of dish ids and quantities into a persisted order.
// It has no side effects besides persistence.
type Factory interface {
	Create(ctx context.Context, in CreateOrderInput) (*Order, error)
}

type factory struct {
	repo      Repository
	catalog   catalog.Lookup
	newNumber func() string
}

func NewFactory(repo Repository, lookup catalog.Lookup) Factory {
	return &factory{
		repo:    repo,
		catalog: lookup,
		newNumber: func() string {
			return utils.GenerateNumber("ORD")
		},
	}
}

// Validate checks the input shape. It runs before any lookup or transaction.
func (in CreateOrderInput) Validate() error {
	if err := validation.ID("customer_id", in.CustomerID); err != nil {
		return err
	}
	if len(in.Items) == 0 {
		return validation.New("items", "must not be empty")
	}
	if len(in.Items) > validation.MaxOrderItems {
		return validation.New("items", fmt.Sprintf("must not exceed %d entries", validation.MaxOrderItems))
	}
	for i, it := range in.Items {
		if err := validation.ID(fmt.Sprintf("items[%d].dishId", i), it.DishID); err != nil {
			return err
		}
		if err := validation.Quantity(fmt.Sprintf("items[%d].quantity", i), it.Quantity); err != nil {
			return err
		}
	}
	if err := validation.MaxLen("tableLabel", in.TableLabel, validation.MaxTableLabelLen); err != nil {
		return err
	}
	return validation.MaxLen("note", in.Note, validation.MaxNoteLen)
}

func (f *factory) Create(ctx context.Context, in CreateOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "factory"),
		zap.String("method", "CreateOrder"),
		zap.Uint("customer_id", in.CustomerID),
		zap.Int("item_count", len(in.Items)),
	)

	if err := in.Validate(); err != nil {
		log.Warn("invalid order input", zap.Error(err))
		return nil, err
	}

	ids := distinctDishIDs(in.Items)
	dishes, err := f.catalog.Resolve(ctx, ids)
	if err != nil {
		log.Error("catalog lookup failed", zap.Error(err))
		return nil, err
	}

	var missing []uint
	for _, id := range ids {
		if _, ok := dishes[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		log.Warn("order references unavailable dishes", zap.Any("missing", missing))
		return nil, &InvalidItemsError{Missing: missing}
	}

	o := &Order{
		CustomerID:  in.CustomerID,
		Status:      StatusPending,
		TableLabel:  utils.TrimToNil(in.TableLabel),
		Note:        utils.TrimToNil(in.Note),
		TotalAmount: decimal.Zero,
		Items:       make([]OrderItem, 0, len(in.Items)),
	}
	// prices come from the catalog only
	for _, it := range in.Items {
		d := dishes[it.DishID]
		subtotal := d.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		o.Items = append(o.Items, OrderItem{
			DishID:    d.ID,
			DishName:  d.Name,
			UnitPrice: d.Price,
			Quantity:  it.Quantity,
			Subtotal:  subtotal,
		})
		o.TotalAmount = o.TotalAmount.Add(subtotal)
	}

	for attempt := 1; attempt <= 2; attempt++ {
		o.OrderNo = f.newNumber()

		err = f.repo.Insert(ctx, o)
		if err == nil {
			log.Info("order created",
				zap.Uint("order_id", o.ID),
				zap.String("order_no", o.OrderNo),
				zap.String("total", o.TotalAmount.StringFixed(2)),
			)
			return o, nil
		}
		if !errors.Is(err, ErrDuplicateOrderNo) {
			return nil, err
		}
		log.Warn("regenerating order number", zap.Int("attempt", attempt), zap.String("order_no", o.OrderNo))
	}

	log.Error("order number collided twice")
	return nil, fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
}

func distinctDishIDs(items []ItemInput) []uint {
	seen := make(map[uint]struct{}, len(items))
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.DishID]; ok {
			continue
		}
		seen[it.DishID] = struct{}{}
		ids = append(ids, it.DishID)
	}
	return ids
}
