package transport

import (
	"net/http"

	"resto-be/internal/logger"
	"resto-be/internal/payment/webhook"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Deps carries everything the router mounts. Nil middlewares are skipped.
type Deps struct {
	Cart     *CartHandler
	Orders   *OrderHandler
	Payments *PaymentHandler
	Webhook  *webhook.Handler

	CORS      func(http.Handler) http.Handler
	Auth      func(http.Handler) http.Handler
	RateLimit func(http.Handler) http.Handler
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(logger.RequestIDMiddleware)
	use(r, d.CORS)
	use(r, d.Auth)
	r.Use(logger.LoggingMiddleware)
	use(r, d.RateLimit)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		if d.Cart != nil {
			r.Route("/cart", d.Cart.RegisterRoutes)
		}
		if d.Orders != nil {
			r.Route("/orders", d.Orders.RegisterRoutes)
		}
		r.Route("/payments", func(r chi.Router) {
			// Gateway callbacks authenticate with the shared callback
			// token, not a customer session.
			if d.Webhook != nil {
				r.Post("/notify", d.Webhook.PaymentNotifyHandler)
			}
			if d.Payments != nil {
				r.Group(d.Payments.RegisterRoutes)
			}
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	return r
}

func use(r chi.Router, mw func(http.Handler) http.Handler) {
	if mw != nil {
		r.Use(mw)
	}
}
