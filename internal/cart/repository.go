package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resto-be/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Repository persists one cart per customer.
type Repository interface {
	Load(ctx context.Context, customerID uint) (*Cart, error)
	Save(ctx context.Context, customerID uint, c *Cart) error
	Clear(ctx context.Context, customerID uint) error
}

type redisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepository stores carts as JSON under cart:<customerID>. A zero
// ttl keeps carts until they are explicitly cleared.
func NewRedisRepository(client *redis.Client, ttl time.Duration) Repository {
	return &redisRepository{client: client, ttl: ttl}
}

func cartKey(customerID uint) string {
	return fmt.Sprintf("cart:%d", customerID)
}

func (r *redisRepository) Load(ctx context.Context, customerID uint) (*Cart, error) {
	raw, err := r.client.Get(ctx, cartKey(customerID)).Result()
	if errors.Is(err, redis.Nil) {
		return &Cart{Items: []Item{}}, nil
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load cart",
			zap.Uint("customer_id", customerID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrFailedLoadCart, err)
	}

	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("%w: corrupt payload: %v", ErrFailedLoadCart, err)
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	return &c, nil
}

func (r *redisRepository) Save(ctx context.Context, customerID uint, c *Cart) error {
	if len(c.Items) == 0 {
		return r.Clear(ctx, customerID)
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedSaveCart, err)
	}

	if err := r.client.Set(ctx, cartKey(customerID), string(payload), r.ttl).Err(); err != nil {
		logger.FromCtx(ctx).Error("failed to save cart",
			zap.Uint("customer_id", customerID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrFailedSaveCart, err)
	}
	return nil
}

func (r *redisRepository) Clear(ctx context.Context, customerID uint) error {
	if err := r.client.Del(ctx, cartKey(customerID)).Err(); err != nil {
		logger.FromCtx(ctx).Error("failed to clear cart",
			zap.Uint("customer_id", customerID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrFailedClearCart, err)
	}
	return nil
}
