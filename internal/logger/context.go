package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey  ctxKey = "request_id"
	customerIDKey ctxKey = "customer_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithCustomerID tags every log line written through FromCtx with the
// authenticated customer.
func WithCustomerID(ctx context.Context, customerID uint) context.Context {
	return context.WithValue(ctx, customerIDKey, customerID)
}

// FromCtx returns logger with request_id (and customer_id when known) attached
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if reqID := RequestIDFrom(ctx); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	if cid, ok := ctx.Value(customerIDKey).(uint); ok && cid != 0 {
		l = l.With(zap.Uint("customer_id", cid))
	}
	return l
}
