// Package ordernotifier собирает воркер, который читает события order.placed
// и рассылает письма покупателям.
package ordernotifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/stream-checkout/internal/config"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/sl"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/smtp"
	"github.com/magabrotheeeer/stream-checkout/internal/services/notifier"
)

type App struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	notifier *notifier.Service
	queue    string
	workers  int
	logger   *slog.Logger
}

func New(cfg *config.Notifier, logger *slog.Logger) (*App, error) {
	const op = "ordernotifier.New"

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to RabbitMQ", sl.Op(op))

	ch, err := rabbitmq.SetupChannel(conn, cfg.OrdersExchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	app := &App{
		conn:    conn,
		ch:      ch,
		queue:   cfg.Queue,
		workers: cfg.Workers,
		logger:  logger,
	}

	if err := rabbitmq.BindQueue(ch, cfg.Queue, cfg.OrdersExchange, rabbitmq.EventOrderPlaced); err != nil {
		app.close()
		return nil, err
	}
	if err := ch.Qos(cfg.Workers, 0, false); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app.notifier = notifier.New(smtp.NewTransport(cfg.SMTP, logger), logger)
	return app, nil
}

// Run читает очередь до отмены ctx и закрывает соединение с брокером.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	a.logger.Info("order notifier consuming", slog.String("queue", a.queue), slog.Int("workers", a.workers))
	if err := rabbitmq.Consume(ctx, a.ch, a.logger, a.queue, a.workers, a.notifier.HandleOrderPlaced); err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", a.queue), sl.Err(err))
		return err
	}

	a.logger.Info("order notifier shutting down gracefully")
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
