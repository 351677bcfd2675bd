package catalog

import (
	"context"
	"database/sql"

	"resto-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Lookup resolves dish ids to their current name and price. Only available
// dishes in active categories are returned; missing or unavailable ids are
// simply absent from the result.
type Lookup interface {
	Resolve(ctx context.Context, ids []uint) (map[uint]Dish, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Lookup {
	return &repository{db: db}
}

func (r *repository) Resolve(ctx context.Context, ids []uint) (map[uint]Dish, error) {
	result := make(map[uint]Dish, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Resolve"),
		zap.Int("requested", len(ids)),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.price
		FROM dishes d
		JOIN categories c ON c.id = d.category_id
		WHERE d.id = ANY($1)
		  AND d.status = 'available'
		  AND c.status = 'active'
	`, pq.Array(toInt64s(ids)))
	if err != nil {
		log.Error("failed to query dishes", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var d Dish
		if err := rows.Scan(&d.ID, &d.Name, &d.Price); err != nil {
			log.Error("failed to scan dish row", zap.Error(err))
			return nil, err
		}
		result[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	log.Debug("dishes resolved", zap.Int("found", len(result)))
	return result, nil
}

func toInt64s(ids []uint) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
