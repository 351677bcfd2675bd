package notification

import (
	"context"
	"time"

	"resto-be/internal/logger"

	"go.uber.org/zap"
)

// Dispatcher is the fire-and-forget hook invoked after state transitions
// commit. Implementations must never block the caller on delivery.
type Dispatcher interface {
	Notify(ctx context.Context, e Event)
}

// Publisher delivers a single event to a transport.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type asyncDispatcher struct {
	publisher Publisher
	timeout   time.Duration
}

// NewAsyncDispatcher publishes each event on its own goroutine with a
// bounded timeout. Failures are logged and dropped.
func NewAsyncDispatcher(p Publisher, timeout time.Duration) Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &asyncDispatcher{publisher: p, timeout: timeout}
}

func (d *asyncDispatcher) Notify(ctx context.Context, e Event) {
	// detach from the request so a finished response does not cancel delivery
	reqID := logger.RequestIDFrom(ctx)

	go func() {
		pubCtx, cancel := context.WithTimeout(logger.WithRequestID(context.Background(), reqID), d.timeout)
		defer cancel()

		if err := d.publisher.Publish(pubCtx, e); err != nil {
			logger.FromCtx(pubCtx).Warn("notification dispatch failed",
				zap.String("kind", string(e.Kind)),
				zap.Uint("order_id", e.OrderID),
				zap.Uint("payment_id", e.PaymentID),
				zap.Error(err),
			)
		}
	}()
}

type logPublisher struct{}

// NewLogPublisher writes events to the structured log only. Used when no
// broker is configured.
func NewLogPublisher() Publisher {
	return logPublisher{}
}

func (logPublisher) Publish(ctx context.Context, e Event) error {
	logger.FromCtx(ctx).Info("notification",
		zap.String("kind", string(e.Kind)),
		zap.String("target", string(e.Target)),
		zap.Uint("customer_id", e.CustomerID),
		zap.Uint("order_id", e.OrderID),
		zap.Uint("payment_id", e.PaymentID),
		zap.String("content", e.Content),
	)
	return nil
}

type noopDispatcher struct{}

func NewNoopDispatcher() Dispatcher { return noopDispatcher{} }

func (noopDispatcher) Notify(context.Context, Event) {}
