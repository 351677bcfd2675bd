package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resto-be/internal/cart"
	"resto-be/internal/catalog"
	"resto-be/internal/config"
	"resto-be/internal/db"
	"resto-be/internal/logger"
	"resto-be/internal/middleware"
	"resto-be/internal/notification"
	"resto-be/internal/order"
	"resto-be/internal/payment"
	"resto-be/internal/payment/webhook"
	"resto-be/internal/transport"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	notifyTimeout   = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Swapped in tests.
var (
	initDBFunc      = db.InitDB
	newRedisFunc    = newRedisClient
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv, cfg.LogLevel, "api")
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	rdb := newRedisFunc(cfg)
	defer rdb.Close()

	notifier, closeNotifier, err := newDispatcher(cfg)
	if err != nil {
		return err
	}
	defer closeNotifier()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewRateLimiter(cfg.InternalSecretKey)
	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(cfg, database, rdb, notifier, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer stop()
		logger.L().Info("http server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := startServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.L().Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})

	return g.Wait()
}

func newRedisClient(cfg *config.Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.L().Warn("redis not reachable at startup", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	return rdb
}

// newDispatcher publishes to RabbitMQ when AMQP_URL is set and only logs
// events otherwise.
func newDispatcher(cfg *config.Config) (notification.Dispatcher, func(), error) {
	if cfg.AMQPURL == "" {
		logger.L().Info("AMQP_URL not set, notifications are logged only")
		return notification.NewAsyncDispatcher(notification.NewLogPublisher(), notifyTimeout), func() {}, nil
	}

	pub, err := notification.DialAMQP(cfg.AMQPURL)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := pub.Close(); err != nil {
			logger.L().Warn("failed to close amqp publisher", zap.Error(err))
		}
	}
	return notification.NewAsyncDispatcher(pub, notifyTimeout), closeFn, nil
}

func newServer(
	cfg *config.Config,
	database *sql.DB,
	rdb *redis.Client,
	notifier notification.Dispatcher,
	limiter *middleware.RateLimiter,
) http.Handler {
	dishes := catalog.NewRepository(database)

	cartSvc := cart.NewService(cart.NewRedisRepository(rdb, cfg.CartTTL), dishes)

	orderRepo := order.NewRepository(database, cfg.TxTimeout)
	orderSvc := order.NewService(orderRepo, order.NewFactory(orderRepo, dishes), cartSvc, notifier)

	paymentRepo := payment.NewRepository(database, cfg.TxTimeout)
	gateway := payment.NewMockGateway(cfg.WechatAppID, cfg.AlipayAppID)
	paymentSvc := payment.NewService(paymentRepo, gateway, notifier)

	deps := transport.Deps{
		Cart:     transport.NewCartHandler(cartSvc),
		Orders:   transport.NewOrderHandler(orderSvc),
		Payments: transport.NewPaymentHandler(paymentSvc, !cfg.IsProduction()),
		Webhook:  webhook.NewWebhookHandler(paymentSvc, cfg.PaymentCallbackToken),
		CORS:     middleware.NewCORS(cfg.CORSOrigins),
		Auth:     middleware.NewAuthMiddleware(cfg.SecretKey),
	}
	if limiter != nil {
		deps.RateLimit = limiter.Middleware
	}

	return transport.NewRouter(deps)
}
