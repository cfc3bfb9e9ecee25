// Package streamcheckout собирает HTTP-приложение сервиса.
package streamcheckout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/stream-checkout/internal/config"
	"github.com/magabrotheeeer/stream-checkout/internal/http/handlers/health"
	"github.com/magabrotheeeer/stream-checkout/internal/http/handlers/order/finalize"
	"github.com/magabrotheeeer/stream-checkout/internal/http/handlers/order/initiate"
	"github.com/magabrotheeeer/stream-checkout/internal/http/handlers/queue"
	"github.com/magabrotheeeer/stream-checkout/internal/http/handlers/raffle"
	"github.com/magabrotheeeer/stream-checkout/internal/http/middlewarectx"
)

// Deps зависимости маршрутов.
type Deps struct {
	Logger   *slog.Logger
	Orders   OrderService
	Tokens   middlewarectx.TokenParser
	Queues   queue.Pusher
	Health   health.Pinger
	Gatherer prometheus.Gatherer
	Limit    config.RateLimit
}

// OrderService операции заказа, которые обслуживают маршруты /api/v1/orders.
type OrderService interface {
	initiate.Service
	finalize.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"*"},
			ExposedHeaders: []string{"*"},
			MaxAge:         300,
		}),
	)

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(d.Logger, d.Limit))
		r.Post("/initiate", initiate.New(d.Logger, d.Orders).ServeHTTP)
		r.With(middlewarectx.FinalizeTokenMiddleware(d.Tokens, d.Logger)).
			Post("/{session_id}/finalize", finalize.New(d.Logger, d.Orders).ServeHTTP)
	})

	r.Get("/queue/{queue_name}", queue.New(d.Logger, d.Queues).ServeHTTP)
	r.Route("/stream/raffle", raffle.New(d.Logger).Routes)

	r.Get("/health", health.New(d.Logger, d.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
