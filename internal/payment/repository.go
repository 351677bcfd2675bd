package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"resto-be/internal/db"
	"resto-be/internal/logger"
	"resto-be/internal/order"

	"go.uber.org/zap"
)

// OnePendingIndex backs the one-pending-payment-per-order rule in storage.
const OnePendingIndex = "payments_one_pending_per_order"

type Repository interface {
	Create(ctx context.Context, p *Payment, customerID uint) (*Settlement, error)
	Settle(ctx context.Context, in SettleInput) (*Settlement, error)
	Refund(ctx context.Context, paymentID uint, reason string) (*Settlement, error)
	GetByID(ctx context.Context, id uint) (*Payment, error)
	GetByNumber(ctx context.Context, paymentNo string) (*Payment, error)
	GetLatestByOrderNo(ctx context.Context, orderNo string) (*Payment, error)
	List(ctx context.Context, f ListFilter) ([]*Payment, error)
}

type repository struct {
	db        *sql.DB
	txTimeout time.Duration
	now       func() time.Time
}

func NewRepository(database *sql.DB, txTimeout time.Duration) Repository {
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}
	return &repository{db: database, txTimeout: txTimeout, now: time.Now}
}

const selectPayment = `
		SELECT p.id, p.payment_no, p.order_id, p.amount, p.method, p.status,
		       p.transaction_id, p.paid_at, p.refund_reason, p.created_at, p.updated_at,
		       o.order_no, o.customer_id, o.status
		FROM payments p
		JOIN orders o ON o.id = p.order_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*Payment, error) {
	var (
		p             Payment
		method        string
		status        string
		orderStatus   string
		transactionID sql.NullString
		paidAt        sql.NullTime
		refundReason  sql.NullString
	)
	err := row.Scan(
		&p.ID,
		&p.PaymentNo,
		&p.OrderID,
		&p.Amount,
		&method,
		&status,
		&transactionID,
		&paidAt,
		&refundReason,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.OrderNo,
		&p.CustomerID,
		&orderStatus,
	)
	if err != nil {
		return nil, err
	}

	p.Method = Method(method)
	p.Status = Status(status)
	p.OrderStatus = order.Status(orderStatus)
	if transactionID.Valid {
		p.TransactionID = &transactionID.String
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	if refundReason.Valid {
		p.RefundReason = &refundReason.String
	}
	return &p, nil
}

func (r *repository) begin(ctx context.Context, log *zap.Logger) (*sql.Tx, func(), error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return nil, nil, err
	}
	rollback := func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error("failed to rollback transaction", zap.Error(rbErr))
		}
	}
	return tx, rollback, nil
}

// lockPayment locks the payment and its order in one statement so that no
// write happens before both rows are held.
func lockPayment(ctx context.Context, tx *sql.Tx, id uint) (*Payment, error) {
	p, err := scanPayment(tx.QueryRowContext(ctx, selectPayment+` WHERE p.id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

func setOrderStatus(ctx context.Context, tx *sql.Tx, orderID uint, to order.Status) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, string(to), orderID)
	return err
}

// Create locks the order, checks it is payable and has no outstanding
// payment, then inserts the payment. Cash settles inside the same
// transaction and confirms a pending order.
func (r *repository) Create(ctx context.Context, p *Payment, customerID uint) (*Settlement, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreatePayment"),
		zap.Uint("order_id", p.OrderID),
		zap.String("payment_no", p.PaymentNo),
		zap.String("payment_method", string(p.Method)),
	)

	ctx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	tx, rollback, err := r.begin(ctx, log)
	if err != nil {
		return nil, err
	}
	defer rollback()

	var (
		orderStatus string
		orderOwner  uint
	)
	err = tx.QueryRowContext(ctx, `
		SELECT order_no, customer_id, total_amount, status
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, p.OrderID).Scan(&p.OrderNo, &orderOwner, &p.Amount, &orderStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		log.Error("failed to lock order", zap.Error(err))
		return nil, err
	}
	if customerID != 0 && orderOwner != customerID {
		return nil, order.ErrForbidden
	}

	from := order.Status(orderStatus)
	if from != order.StatusPending && from != order.StatusConfirmed {
		log.Warn("order not payable", zap.String("order_status", orderStatus))
		return nil, ErrOrderNotPayable
	}

	var existing uint
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM payments
		WHERE order_id = $1 AND status = 'pending'
		LIMIT 1
	`, p.OrderID).Scan(&existing)
	switch {
	case err == nil:
		log.Warn("pending payment already exists", zap.Uint("payment_id", existing))
		return nil, ErrPaymentExists
	case !errors.Is(err, sql.ErrNoRows):
		log.Error("failed to check pending payments", zap.Error(err))
		return nil, err
	}

	p.CustomerID = orderOwner
	p.OrderStatus = from
	p.Status = StatusPending
	if p.Method == MethodCash {
		now := r.now()
		txID := fmt.Sprintf("CASH_%d", now.UnixMilli())
		p.Status = StatusSuccess
		p.PaidAt = &now
		p.TransactionID = &txID
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO payments (
			payment_no, order_id, amount, method, status, transaction_id, paid_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at
	`,
		p.PaymentNo,
		p.OrderID,
		p.Amount,
		string(p.Method),
		string(p.Status),
		p.TransactionID,
		p.PaidAt,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if constraint, ok := db.UniqueViolation(err); ok {
			if constraint == OnePendingIndex {
				return nil, ErrPaymentExists
			}
			return nil, ErrDuplicatePaymentNo
		}
		log.Error("failed to insert payment", zap.Error(err))
		return nil, err
	}

	if p.Status == StatusSuccess && from == order.StatusPending {
		if err := setOrderStatus(ctx, tx, p.OrderID, order.StatusConfirmed); err != nil {
			log.Error("failed to confirm order", zap.Error(err))
			return nil, err
		}
		p.OrderStatus = order.StatusConfirmed
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit payment", zap.Error(err))
		return nil, err
	}

	log.Info("payment created", zap.Uint("payment_id", p.ID), zap.String("status", string(p.Status)))
	return &Settlement{Payment: p, Applied: true, orderFrom: from}, nil
}

// Settle applies a gateway outcome exactly once. A payment that already
// left pending is returned unchanged with Applied=false.
func (r *repository) Settle(ctx context.Context, in SettleInput) (*Settlement, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "SettlePayment"),
		zap.Uint("payment_id", in.PaymentID),
		zap.String("outcome", string(in.Outcome)),
	)

	ctx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	tx, rollback, err := r.begin(ctx, log)
	if err != nil {
		return nil, err
	}
	defer rollback()

	p, err := lockPayment(ctx, tx, in.PaymentID)
	if err != nil {
		if !errors.Is(err, ErrPaymentNotFound) {
			log.Error("failed to lock payment", zap.Error(err))
		}
		return nil, err
	}

	if p.Status != StatusPending {
		log.Info("payment already settled", zap.String("status", string(p.Status)))
		return &Settlement{Payment: p, Applied: false, orderFrom: p.OrderStatus}, nil
	}

	if in.Amount != nil && !in.Amount.Equal(p.Amount) {
		log.Warn("payment amount mismatch",
			zap.String("expected", p.Amount.String()),
			zap.String("received", in.Amount.String()),
		)
		return nil, &AmountMismatchError{Expected: p.Amount, Received: *in.Amount}
	}

	from := p.OrderStatus
	switch in.Outcome {
	case OutcomeSuccess:
		txID := fmt.Sprintf("AUTO_%d", r.now().UnixMilli())
		if in.TransactionID != nil && *in.TransactionID != "" {
			txID = *in.TransactionID
		}

		var paidAt time.Time
		err = tx.QueryRowContext(ctx, `
			UPDATE payments
			SET status = 'success', transaction_id = $1, paid_at = NOW(), updated_at = NOW()
			WHERE id = $2
			RETURNING paid_at, updated_at
		`, txID, p.ID).Scan(&paidAt, &p.UpdatedAt)
		if err != nil {
			log.Error("failed to mark payment success", zap.Error(err))
			return nil, err
		}
		p.Status = StatusSuccess
		p.TransactionID = &txID
		p.PaidAt = &paidAt

		if from == order.StatusPending {
			if err := setOrderStatus(ctx, tx, p.OrderID, order.StatusConfirmed); err != nil {
				log.Error("failed to confirm order", zap.Error(err))
				return nil, err
			}
			p.OrderStatus = order.StatusConfirmed
		}

	case OutcomeFailure:
		err = tx.QueryRowContext(ctx, `
			UPDATE payments
			SET status = 'failed', updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`, p.ID).Scan(&p.UpdatedAt)
		if err != nil {
			log.Error("failed to mark payment failed", zap.Error(err))
			return nil, err
		}
		p.Status = StatusFailed

	default:
		return nil, fmt.Errorf("unknown payment outcome %q", in.Outcome)
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit settlement", zap.Error(err))
		return nil, err
	}

	log.Info("payment settled",
		zap.String("status", string(p.Status)),
		zap.String("order_status", string(p.OrderStatus)),
	)
	return &Settlement{Payment: p, Applied: true, orderFrom: from}, nil
}

// Refund moves a successful payment to refunded and cancels its order in
// one transaction. Completed orders are never refunded.
func (r *repository) Refund(ctx context.Context, paymentID uint, reason string) (*Settlement, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "RefundPayment"),
		zap.Uint("payment_id", paymentID),
	)

	ctx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	tx, rollback, err := r.begin(ctx, log)
	if err != nil {
		return nil, err
	}
	defer rollback()

	p, err := lockPayment(ctx, tx, paymentID)
	if err != nil {
		if !errors.Is(err, ErrPaymentNotFound) {
			log.Error("failed to lock payment", zap.Error(err))
		}
		return nil, err
	}

	if p.Status != StatusSuccess {
		log.Warn("refund rejected", zap.String("status", string(p.Status)))
		return nil, ErrInvalidPaymentStatus
	}
	if p.OrderStatus == order.StatusCompleted {
		return nil, ErrOrderCannotRefund
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE payments
		SET status = 'refunded', refund_reason = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING updated_at
	`, reason, p.ID).Scan(&p.UpdatedAt)
	if err != nil {
		log.Error("failed to mark payment refunded", zap.Error(err))
		return nil, err
	}

	from := p.OrderStatus
	if from != order.StatusCancelled {
		if err := setOrderStatus(ctx, tx, p.OrderID, order.StatusCancelled); err != nil {
			log.Error("failed to cancel order", zap.Error(err))
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit refund", zap.Error(err))
		return nil, err
	}

	p.Status = StatusRefunded
	p.RefundReason = &reason
	p.OrderStatus = order.StatusCancelled

	log.Info("payment refunded", zap.String("order_from", string(from)))
	return &Settlement{Payment: p, Applied: true, orderFrom: from}, nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Payment, error) {
	return r.getOne(ctx, "GetPaymentByID", ` WHERE p.id = $1`, id)
}

func (r *repository) GetByNumber(ctx context.Context, paymentNo string) (*Payment, error) {
	return r.getOne(ctx, "GetPaymentByNumber", ` WHERE p.payment_no = $1`, paymentNo)
}

func (r *repository) GetLatestByOrderNo(ctx context.Context, orderNo string) (*Payment, error) {
	return r.getOne(ctx, "GetLatestPaymentByOrderNo",
		` WHERE o.order_no = $1 ORDER BY p.created_at DESC, p.id DESC LIMIT 1`, orderNo)
}

// List returns payments matching f, newest first. f.Limit and f.Page must
// already be normalized.
func (r *repository) List(ctx context.Context, f ListFilter) ([]*Payment, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListPayments"),
		zap.Int("limit", f.Limit),
		zap.Int("page", f.Page),
	)

	query := selectPayment + ` WHERE 1=1`
	args := []any{}

	if f.Status != nil {
		args = append(args, string(*f.Status))
		query += fmt.Sprintf(" AND p.status = $%d", len(args))
	}
	if f.Method != nil {
		args = append(args, string(*f.Method))
		query += fmt.Sprintf(" AND p.method = $%d", len(args))
	}
	if f.OrderNo != "" {
		args = append(args, f.OrderNo)
		query += fmt.Sprintf(" AND o.order_no = $%d", len(args))
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query += fmt.Sprintf(" ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query payments", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	payments := []*Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			log.Error("failed to scan payment row", zap.Error(err))
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	return payments, nil
}

func (r *repository) getOne(ctx context.Context, method, where string, arg any) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, selectPayment+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to fetch payment",
			zap.String("layer", "repository"),
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, err
	}
	return p, nil
}
