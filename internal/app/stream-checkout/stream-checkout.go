package streamcheckout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/stream-checkout/internal/cache"
	"github.com/magabrotheeeer/stream-checkout/internal/config"
	"github.com/magabrotheeeer/stream-checkout/internal/ebay"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/jwt"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/sl"
	"github.com/magabrotheeeer/stream-checkout/internal/metrics"
	"github.com/magabrotheeeer/stream-checkout/internal/services/checkout"
	"github.com/magabrotheeeer/stream-checkout/internal/session"
)

const shutdownTimeout = 15 * time.Second

// broker публикует события заказов и обслуживает именованные очереди.
type broker interface {
	checkout.EventPublisher
	Push(ctx context.Context, queueName string, message any) (int, error)
}

type App struct {
	server *http.Server
	logger *slog.Logger
	cache  *cache.Cache
	amqp   *amqp.Connection
	amqpCh *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "streamcheckout.New"

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}
	app := &App{logger: logger, cache: cacheRedis}

	var events broker = rabbitmq.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, err
		}
		app.amqp = conn
		ch, err := rabbitmq.SetupChannel(conn, cfg.OrdersExchange)
		if err != nil {
			app.close()
			return nil, err
		}
		app.amqpCh = ch
		events = rabbitmq.NewPublisher(ch, cfg.OrdersExchange)
	} else {
		logger.Warn("rabbitmq url is empty, order events and queues are disabled", sl.Op(op))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	tokens := ebay.NewTokenProvider(cfg.Ebay, httpClient).WithObserver(m)
	client := ebay.NewClient(cfg.Ebay, tokens, httpClient).WithObserver(m)

	maker := jwt.NewJWTMaker(cfg.FinalizeTokenSecret, cfg.SessionTTL)
	store := session.NewStore(cacheRedis, cfg.SessionTTL)
	// finalize делает до трёх вызовов eBay подряд и укладывается в три четверти блокировки
	checkoutService := checkout.New(client, store, maker, events, m, logger, 4*cfg.RequestTimeout)

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Logger:   logger,
		Orders:   checkoutService,
		Tokens:   maker,
		Queues:   events,
		Health:   cacheRedis,
		Gatherer: reg,
		Limit:    cfg.RateLimit,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.amqpCh != nil {
		if err := a.amqpCh.Close(); err != nil {
			a.logger.Warn("failed to close amqp channel", sl.Err(err))
		}
	}
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			a.logger.Warn("failed to close amqp connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
	}
}
