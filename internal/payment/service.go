package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resto-be/internal/logger"
	"resto-be/internal/notification"
	"resto-be/internal/order"
	"resto-be/internal/utils"
	"resto-be/internal/validation"

	"go.uber.org/zap"
)

type Service interface {
	CreatePayment(ctx context.Context, in CreatePaymentInput) (*Payment, error)
	SettlePayment(ctx context.Context, in SettleInput) (*Settlement, error)
	HandleCallback(ctx context.Context, in CallbackInput) (*Settlement, error)
	Refund(ctx context.Context, paymentID uint, reason string) (*Settlement, error)
	GetPayment(ctx context.Context, id, customerID uint, isAdmin bool) (*Payment, error)
	GetLatestByOrderNo(ctx context.Context, orderNo string, customerID uint, isAdmin bool) (*Payment, error)
	ListPayments(ctx context.Context, f ListFilter) (*PaymentList, error)
}

type service struct {
	repo      Repository
	gateway   Gateway
	notifier  notification.Dispatcher
	newNumber func() string
}

func NewService(repo Repository, gateway Gateway, notifier notification.Dispatcher) Service {
	return &service{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		newNumber: func() string {
			return utils.GenerateNumber("PAY")
		},
	}
}

func (s *service) CreatePayment(ctx context.Context, in CreatePaymentInput) (*Payment, error) {
	if err := validation.ID("orderId", in.OrderID); err != nil {
		return nil, err
	}
	if !in.Method.Valid() {
		return nil, validation.New("paymentMethod", "must be one of wechat, alipay, cash")
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreatePayment"),
		zap.Uint("order_id", in.OrderID),
		zap.String("payment_method", string(in.Method)),
	)

	owner := in.CustomerID
	if in.IsAdmin {
		owner = 0
	} else if owner == 0 {
		return nil, order.ErrForbidden
	}

	var (
		res *Settlement
		err error
	)
	for attempt := 1; attempt <= 2; attempt++ {
		p := &Payment{
			PaymentNo: s.newNumber(),
			OrderID:   in.OrderID,
			Method:    in.Method,
		}
		res, err = s.repo.Create(ctx, p, owner)
		if !errors.Is(err, ErrDuplicatePaymentNo) {
			break
		}
		log.Warn("regenerating payment number", zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	p := res.Payment
	s.notifier.Notify(ctx, notification.PaymentCreated(
		p.ID, p.PaymentNo, p.OrderID, p.CustomerID, string(p.Method), p.Amount.StringFixed(2),
	))

	if p.Method == MethodCash {
		s.notifySettlement(ctx, res)
		return p, nil
	}

	params, err := s.gateway.Prepare(ctx, p)
	if err != nil {
		log.Error("gateway prepare failed, failing payment", zap.Uint("payment_id", p.ID), zap.Error(err))
		// release the pending slot so the customer can retry
		if _, ferr := s.SettlePayment(ctx, SettleInput{PaymentID: p.ID, Outcome: OutcomeFailure}); ferr != nil {
			log.Error("failed to fail payment after gateway error", zap.Error(ferr))
		}
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}
	p.Params = params

	log.Info("payment awaiting gateway", zap.Uint("payment_id", p.ID), zap.String("payment_no", p.PaymentNo))
	return p, nil
}

// SettlePayment is safe to call any number of times for the same payment;
// only the first call that sees it pending has an effect.
func (s *service) SettlePayment(ctx context.Context, in SettleInput) (*Settlement, error) {
	if err := validation.ID("paymentId", in.PaymentID); err != nil {
		return nil, err
	}
	if in.Outcome != OutcomeSuccess && in.Outcome != OutcomeFailure {
		return nil, validation.New("outcome", "must be success or failure")
	}
	if err := validation.MaxLen("transactionId", in.TransactionID, validation.MaxTransactionIDLen); err != nil {
		return nil, err
	}

	res, err := s.repo.Settle(ctx, in)
	if err != nil {
		return nil, err
	}

	s.notifySettlement(ctx, res)
	return res, nil
}

// HandleCallback resolves the payment by number and settles it. Any status
// other than success counts as a failure.
func (s *service) HandleCallback(ctx context.Context, in CallbackInput) (*Settlement, error) {
	if strings.TrimSpace(in.PaymentNo) == "" {
		return nil, validation.New("paymentNo", "is required")
	}
	if strings.TrimSpace(in.Status) == "" {
		return nil, validation.New("status", "is required")
	}

	p, err := s.repo.GetByNumber(ctx, in.PaymentNo)
	if err != nil {
		return nil, err
	}

	outcome := OutcomeFailure
	if strings.EqualFold(in.Status, "success") {
		outcome = OutcomeSuccess
	}

	logger.FromCtx(ctx).Info("payment callback received",
		zap.String("layer", "service"),
		zap.String("payment_no", in.PaymentNo),
		zap.String("gateway_status", in.Status),
		zap.String("transaction_id", utils.PtrString(in.TransactionID)),
	)

	return s.SettlePayment(ctx, SettleInput{
		PaymentID:     p.ID,
		Outcome:       outcome,
		TransactionID: in.TransactionID,
		Amount:        in.Amount,
	})
}

func (s *service) Refund(ctx context.Context, paymentID uint, reason string) (*Settlement, error) {
	if err := validation.ID("paymentId", paymentID); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "refund requested"
	}
	if err := validation.MaxLen("reason", &reason, validation.MaxReasonLen); err != nil {
		return nil, err
	}

	res, err := s.repo.Refund(ctx, paymentID, reason)
	if err != nil {
		return nil, err
	}

	p := res.Payment
	s.notifier.Notify(ctx, notification.PaymentRefunded(
		p.ID, p.PaymentNo, p.OrderID, p.CustomerID, p.Amount.StringFixed(2), reason,
	))
	s.notifyOrder(ctx, res)
	return res, nil
}

func (s *service) GetPayment(ctx context.Context, id, customerID uint, isAdmin bool) (*Payment, error) {
	if err := validation.ID("paymentId", id); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return visibleTo(p, customerID, isAdmin)
}

func (s *service) GetLatestByOrderNo(ctx context.Context, orderNo string, customerID uint, isAdmin bool) (*Payment, error) {
	if strings.TrimSpace(orderNo) == "" {
		return nil, validation.New("orderNo", "is required")
	}
	p, err := s.repo.GetLatestByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	return visibleTo(p, customerID, isAdmin)
}

func (s *service) ListPayments(ctx context.Context, f ListFilter) (*PaymentList, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, validation.New("status", fmt.Sprintf("unknown status %q", *f.Status))
	}
	if f.Method != nil && !f.Method.Valid() {
		return nil, validation.New("paymentMethod", "must be one of wechat, alipay, cash")
	}
	f.OrderNo = strings.TrimSpace(f.OrderNo)
	f.Limit, f.Page = validation.Pagination(f.Limit, f.Page)

	payments, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &PaymentList{Payments: payments, Page: f.Page, Limit: f.Limit}, nil
}

func visibleTo(p *Payment, customerID uint, isAdmin bool) (*Payment, error) {
	if !isAdmin && p.CustomerID != customerID {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

func (s *service) notifySettlement(ctx context.Context, res *Settlement) {
	if !res.Applied {
		return
	}

	p := res.Payment
	switch p.Status {
	case StatusSuccess:
		s.notifier.Notify(ctx, notification.PaymentSucceeded(p.ID, p.PaymentNo, p.OrderID, p.CustomerID, p.Amount.StringFixed(2)))
	case StatusFailed:
		s.notifier.Notify(ctx, notification.PaymentFailed(p.ID, p.PaymentNo, p.OrderID, p.CustomerID))
	}
	s.notifyOrder(ctx, res)
}

func (s *service) notifyOrder(ctx context.Context, res *Settlement) {
	if !res.orderChanged() {
		return
	}
	p := res.Payment
	if e, ok := notification.OrderStatusChanged(p.OrderID, p.OrderNo, p.CustomerID, string(res.orderFrom), string(p.OrderStatus)); ok {
		s.notifier.Notify(ctx, e)
	}
}
