// Package notifier рассылает покупателям подтверждения размещённых заказов.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/stream-checkout/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/sl"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/smtp"
	"github.com/magabrotheeeer/stream-checkout/internal/models"
)

const orderPlacedSubject = "Your order has been placed"

// Service превращает события order.placed в письма.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

type orderPlacedEvent struct {
	ID   string             `json:"id"`
	Type string             `json:"type"`
	Data models.OrderPlaced `json:"data"`
}

// HandleOrderPlaced разбирает конверт события и отправляет письмо на contact_email заказа.
// Сообщения, которые нельзя разобрать, возвращают rabbitmq.ErrMalformedMessage.
func (s *Service) HandleOrderPlaced(ctx context.Context, body []byte) error {
	const op = "notifier.HandleOrderPlaced"

	var event orderPlacedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%s: %w: %v", op, rabbitmq.ErrMalformedMessage, err)
	}
	if event.Type != rabbitmq.EventOrderPlaced {
		return fmt.Errorf("%s: %w: unexpected event type %q", op, rabbitmq.ErrMalformedMessage, event.Type)
	}
	order := event.Data
	if order.ContactEmail == "" || order.PurchaseOrderID == "" {
		return fmt.Errorf("%s: %w: event %s has no contact email or purchase order id", op, rabbitmq.ErrMalformedMessage, event.ID)
	}

	log := s.log.With(
		slog.String("op", op),
		slog.String("event_id", event.ID),
		slog.String("purchase_order_id", order.PurchaseOrderID),
	)

	if err := s.sendEmail(ctx, log, []string{order.ContactEmail}, orderPlacedSubject, orderPlacedBody(order)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func orderPlacedBody(order models.OrderPlaced) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello!\n\nYour order %s has been placed.\n", order.PurchaseOrderID)
	if len(order.ItemIDs) > 0 {
		b.WriteString("\nItems:\n")
		for _, id := range order.ItemIDs {
			fmt.Fprintf(&b, "  - %s\n", id)
		}
	}
	b.WriteString("\nThank you for shopping with us on stream.\n")
	return b.String()
}

func (s *Service) sendEmail(ctx context.Context, log *slog.Logger, to []string, subject, bodyText string) error {
	from := s.transport.Sender()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect(ctx)
	if err != nil {
		log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		// после Quit соединение уже закрыто, ошибка Close тут ожидаема
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
