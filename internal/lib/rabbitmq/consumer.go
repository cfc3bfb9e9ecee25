package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/stream-checkout/internal/lib/sl"
)

// ErrMalformedMessage сообщение, которое не получится обработать при повторной доставке.
// Такие сообщения отбрасываются без возврата в очередь.
var ErrMalformedMessage = errors.New("malformed message")

// Handler обрабатывает тело одного сообщения.
type Handler func(ctx context.Context, body []byte) error

// Consumer часть amqp.Channel, нужная для чтения очереди.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// QueueBinder часть amqp.Channel, нужная для привязки очереди к exchange.
type QueueBinder interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// BindQueue объявляет durable-очередь и привязывает её к exchange по routingKey.
func BindQueue(ch QueueBinder, queueName, exchange, routingKey string) error {
	const op = "rabbitmq.BindQueue"

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("%s: declare %s: %w", op, queueName, err)
	}
	if err := ch.QueueBind(queueName, routingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("%s: bind %s to %s: %w", op, queueName, exchange, err)
	}
	return nil
}

// Consume читает очередь и отдаёт сообщения handler, не больше workers одновременно.
// Успешно обработанные подтверждаются, упавшие возвращаются в очередь,
// ErrMalformedMessage отбрасывается. Блокируется до отмены ctx или закрытия канала
// доставки и дожидается обработчиков, которые уже запущены.
func Consume(ctx context.Context, ch Consumer, log *slog.Logger, queueName string, workers int, handler Handler) error {
	const op = "rabbitmq.Consume"

	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if workers < 1 {
		workers = 1
	}
	log = log.With(slog.String("op", op), slog.String("queue", queueName))

	var wg sync.WaitGroup
	defer wg.Wait()

	sem := make(chan struct{}, workers)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				log.Info("delivery channel closed")
				return nil
			}
			// пока все воркеры заняты, отмена ctx всё равно завершает цикл;
			// неподтверждённое сообщение брокер вернёт в очередь после закрытия канала
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				log.Info("stopped while workers were busy", slog.Uint64("delivery_tag", d.DeliveryTag))
				return nil
			}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				handle(ctx, log, d, handler)
			}(d)
		case <-ctx.Done():
			return nil
		}
	}
}

func handle(ctx context.Context, log *slog.Logger, d amqp.Delivery, handler Handler) {
	log = log.With(slog.String("message_id", d.MessageId))

	err := handler(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
	case errors.Is(err, ErrMalformedMessage):
		log.Warn("dropping malformed message", sl.Err(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	default:
		log.Error("failed to handle message", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	}
}
