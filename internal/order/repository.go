package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"resto-be/internal/db"
	"resto-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	Insert(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uint) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]*Order, error)
	Transition(ctx context.Context, id uint, to Status, customerID uint) (*Change, error)
	BatchTransition(ctx context.Context, ids []uint, to Status) (*BatchResult, error)
}

type repository struct {
	db        *sql.DB
	txTimeout time.Duration
}

func NewRepository(database *sql.DB, txTimeout time.Duration) Repository {
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}
	return &repository{db: database, txTimeout: txTimeout}
}

const selectOrder = `
		SELECT id, order_no, customer_id, total_amount, status,
		       table_label, note, created_at, updated_at
		FROM orders`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o          Order
		status     string
		tableLabel sql.NullString
		note       sql.NullString
	)
	err := row.Scan(
		&o.ID,
		&o.OrderNo,
		&o.CustomerID,
		&o.TotalAmount,
		&status,
		&tableLabel,
		&note,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Status = Status(status)
	if tableLabel.Valid {
		o.TableLabel = &tableLabel.String
	}
	if note.Valid {
		o.Note = &note.String
	}
	return &o, nil
}

// Insert writes the order header and every item in one transaction. On
// success o receives its id and timestamps; on failure o is left as given.
func (r *repository) Insert(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "InsertOrder"),
		zap.String("order_no", o.OrderNo),
		zap.Int("item_count", len(o.Items)),
	)

	ctx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			} else {
				log.Debug("transaction rolled back")
			}
		}
	}()

	var (
		id                   uint
		createdAt, updatedAt time.Time
	)
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			order_no, customer_id, total_amount, status, table_label, note
		) VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at
	`,
		o.OrderNo,
		o.CustomerID,
		o.TotalAmount,
		string(o.Status),
		o.TableLabel,
		o.Note,
	).Scan(&id, &createdAt, &updatedAt)
	if err != nil {
		if constraint, ok := db.UniqueViolation(err); ok {
			log.Warn("order number collision", zap.String("constraint", constraint))
			return ErrDuplicateOrderNo
		}
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	itemIDs := make([]uint, len(o.Items))
	for i, item := range o.Items {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (
				order_id, dish_id, dish_name, unit_price, quantity, subtotal
			) VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id
		`,
			id,
			item.DishID,
			item.DishName,
			item.UnitPrice,
			item.Quantity,
			item.Subtotal,
		).Scan(&itemIDs[i])
		if err != nil {
			log.Error("failed to insert order item",
				zap.Int("item_index", i),
				zap.Uint("dish_id", item.DishID),
				zap.Error(err),
			)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order transaction", zap.Error(err))
		return err
	}
	committed = true

	o.ID = id
	o.CreatedAt = createdAt
	o.UpdatedAt = updatedAt
	for i := range o.Items {
		o.Items[i].ID = itemIDs[i]
		o.Items[i].OrderID = id
	}

	log.Info("order persisted", zap.Uint("order_id", id))
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetOrderByID"),
		zap.Uint("order_id", id),
	)

	o, err := scanOrder(r.db.QueryRowContext(ctx, selectOrder+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		log.Error("failed to fetch order", zap.Error(err))
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, dish_id, dish_name, unit_price, quantity, subtotal
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		log.Error("failed to fetch order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID,
			&it.OrderID,
			&it.DishID,
			&it.DishName,
			&it.UnitPrice,
			&it.Quantity,
			&it.Subtotal,
		); err != nil {
			log.Error("failed to scan order item", zap.Error(err))
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	return o, nil
}

// List returns order headers matching f, newest first. f.Limit and f.Page
// must already be normalized.
func (r *repository) List(ctx context.Context, f ListFilter) ([]*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListOrders"),
		zap.Uint("customer_id", f.CustomerID),
		zap.Int("limit", f.Limit),
		zap.Int("page", f.Page),
	)

	query := selectOrder + ` WHERE 1=1`
	args := []any{}

	if f.CustomerID != 0 {
		args = append(args, f.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	log.Debug("orders listed", zap.Int("count", len(orders)))
	return orders, nil
}

// Transition locks the order row, checks the edge against the current
// status and updates it in the same transaction. A non-zero customerID
// restricts the move to that customer's own order.
func (r *repository) Transition(ctx context.Context, id uint, to Status, customerID uint) (*Change, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "TransitionOrder"),
		zap.Uint("order_id", id),
		zap.String("to", string(to)),
	)

	ctx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	o, err := scanOrder(tx.QueryRowContext(ctx, selectOrder+` WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		log.Error("failed to lock order", zap.Error(err))
		return nil, err
	}

	if customerID != 0 && o.CustomerID != customerID {
		return nil, ErrForbidden
	}
	if err := checkTransition(o.Status, to); err != nil {
		log.Warn("illegal status transition", zap.String("from", string(o.Status)))
		return nil, err
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING updated_at
	`, string(to), id).Scan(&o.UpdatedAt)
	if err != nil {
		log.Error("failed to update order status", zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transition", zap.Error(err))
		return nil, err
	}
	committed = true

	from := o.Status
	o.Status = to
	log.Info("order status updated", zap.String("from", string(from)))
	return &Change{Order: o, From: from}, nil
}

// BatchTransition applies the single-order rule to every id under one
// transaction. Missing ids and ids whose status forbids the target are
// reported as skipped, never as an error.
func (r *repository) BatchTransition(ctx context.Context, ids []uint, to Status) (*BatchResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "BatchTransitionOrders"),
		zap.Int("requested", len(ids)),
		zap.String("to", string(to)),
	)

	ctx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	rows, err := tx.QueryContext(ctx,
		selectOrder+` WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		pq.Array(toInt64s(ids)),
	)
	if err != nil {
		log.Error("failed to lock orders", zap.Error(err))
		return nil, err
	}

	found := make(map[uint]*Order, len(ids))
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			log.Error("failed to scan order", zap.Error(err))
			return nil, err
		}
		found[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}
	rows.Close()

	res := &BatchResult{
		Target:         to,
		RequestedCount: len(ids),
		Updated:        []uint{},
		Skipped:        []Skipped{},
	}
	var eligible []uint
	for _, id := range ids {
		o, ok := found[id]
		switch {
		case !ok:
			res.Skipped = append(res.Skipped, Skipped{ID: id, Reason: SkipNotFound})
		case !CanTransition(o.Status, to):
			res.Skipped = append(res.Skipped, Skipped{ID: id, Reason: string(o.Status)})
		default:
			eligible = append(eligible, id)
		}
	}

	if len(eligible) > 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET status = $1, updated_at = NOW()
			WHERE id = ANY($2)
		`, string(to), pq.Array(toInt64s(eligible))); err != nil {
			log.Error("failed to update order statuses", zap.Error(err))
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit batch transition", zap.Error(err))
		return nil, err
	}
	committed = true

	now := time.Now()
	for _, id := range eligible {
		o := found[id]
		from := o.Status
		o.Status = to
		o.UpdatedAt = now
		res.Updated = append(res.Updated, id)
		res.changes = append(res.changes, Change{Order: o, From: from})
	}
	res.UpdatedCount = len(res.Updated)

	log.Info("batch transition applied",
		zap.Int("updated", res.UpdatedCount),
		zap.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

func toInt64s(ids []uint) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
