package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// ErrDisabled брокер не настроен.
var ErrDisabled = errors.New("rabbitmq is disabled")

// Routing keys событий заказов.
const (
	EventOrderInitiated = "order.initiated"
	EventOrderPlaced    = "order.placed"
)

// Channel методы amqp.Channel, которые использует Publisher.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueInspect(name string) (amqp.Queue, error)
}

// Event конверт события, уходящего в exchange.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Publisher публикует JSON-сообщения в канал. amqp.Channel не потокобезопасен,
// поэтому все вызовы идут под мьютексом.
type Publisher struct {
	mu       sync.Mutex
	ch       Channel
	exchange string
	now      func() time.Time
}

// NewPublisher создаёт Publisher для exchange.
func NewPublisher(ch Channel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, now: time.Now}
}

// Publish отправляет событие eventType с данными data, eventType служит routing key.
func (p *Publisher) Publish(ctx context.Context, eventType string, data any) error {
	const op = "rabbitmq.Publish"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: p.now().UTC(),
		Data:       data,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Publish(p.exchange, eventType, false, false, newPublishing(event.ID, body, event.OccurredAt)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Push кладёт message в durable-очередь queueName (объявляя её при первом обращении)
// и возвращает число сообщений в очереди после публикации.
func (p *Publisher) Push(ctx context.Context, queueName string, message any) (int, error) {
	const op = "rabbitmq.Push"
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if queueName == "" {
		return 0, fmt.Errorf("%s: empty queue name", op)
	}

	body, err := json.Marshal(message)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return 0, fmt.Errorf("%s: failed to declare queue %s: %w", op, queueName, err)
	}
	if err := p.ch.Publish("", queueName, false, false, newPublishing(uuid.NewString(), body, p.now().UTC())); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	q, err := p.ch.QueueInspect(queueName)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to inspect queue %s: %w", op, queueName, err)
	}
	return q.Messages, nil
}

func newPublishing(id string, body []byte, ts time.Time) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    id,
		Timestamp:    ts,
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}
}

// NoopPublisher используется, когда URL брокера не задан.
type NoopPublisher struct{}

// Publish ничего не делает.
func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

// Push всегда возвращает ErrDisabled.
func (NoopPublisher) Push(context.Context, string, any) (int, error) {
	return 0, fmt.Errorf("rabbitmq.Push: %w", ErrDisabled)
}
