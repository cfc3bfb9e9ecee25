// Package checkout оркестрирует гостевое оформление заказа: initiate открывает
// сессию в eBay, finalize обновляет адрес получателя и размещает заказ.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/stream-checkout/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/sl"
	"github.com/magabrotheeeer/stream-checkout/internal/models"
)

var (
	// ErrSessionNotFound сессии нет в хранилище или истёк её срок.
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrSessionFinalized заказ по сессии уже размещён.
	ErrSessionFinalized = errors.New("checkout session already finalized")
	// ErrSessionBusy по сессии уже идёт finalize.
	ErrSessionBusy = errors.New("checkout session is being finalized")
)

// Этапы для метрик.
const (
	StageInitiate = "initiate"
	StageFinalize = "finalize"
)

// Upstream вызовы Buy Order API.
type Upstream interface {
	InitiateCheckout(ctx context.Context, req models.CheckoutInitiationRequest) (string, error)
	UpdateShippingAddress(ctx context.Context, sessionID string, req models.RecipientUpdateRequest) (string, error)
	PlaceOrder(ctx context.Context, sessionID string) (string, error)
}

// SessionStore хранилище checkout-сессий.
type SessionStore interface {
	Save(ctx context.Context, sess models.CheckoutSession) error
	Get(ctx context.Context, sessionID string) (*models.CheckoutSession, bool, error)
	Lock(ctx context.Context, sessionID string, ttl time.Duration) (owner string, ok bool, err error)
	Unlock(ctx context.Context, sessionID, owner string) (released bool, err error)
}

// TokenIssuer выпускает finalize-токен для сессии.
type TokenIssuer interface {
	GenerateToken(sessionID string) (string, error)
}

// EventPublisher публикует события заказов.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// MetricsObserver считает завершённые этапы.
type MetricsObserver interface {
	ObserveOrder(stage string, err error)
}

// InitiateResult ответ initiate.
type InitiateResult struct {
	SessionID     string
	FinalizeToken string
}

// Service оркестратор заказа.
type Service struct {
	upstream Upstream
	store    SessionStore
	tokens   TokenIssuer
	events   EventPublisher
	metrics  MetricsObserver
	log      *slog.Logger
	lockTTL  time.Duration
	now      func() time.Time
}

// New создаёт Service. lockTTL ограничивает время, на которое сессия
// захватывается одним finalize. Сам finalize обрывается раньше, через workTimeout.
func New(upstream Upstream, store SessionStore, tokens TokenIssuer, events EventPublisher, metrics MetricsObserver, log *slog.Logger, lockTTL time.Duration) *Service {
	return &Service{
		upstream: upstream,
		store:    store,
		tokens:   tokens,
		events:   events,
		metrics:  metrics,
		log:      log,
		lockTTL:  lockTTL,
		now:      time.Now,
	}
}

// Initiate открывает сессию в eBay, сохраняет её и выпускает finalize-токен.
func (s *Service) Initiate(ctx context.Context, req models.CheckoutInitiationRequest) (res InitiateResult, err error) {
	const op = "checkout.Initiate"
	log := s.log.With(sl.Op(op))
	defer func() { s.metrics.ObserveOrder(StageInitiate, err) }()

	sessionID, err := s.upstream.InitiateCheckout(ctx, req)
	if err != nil {
		return InitiateResult{}, fmt.Errorf("%s: %w", op, err)
	}

	items := req.ItemIDs
	if items == nil {
		items = []string{}
	}
	sess := models.CheckoutSession{
		SessionID:    sessionID,
		Status:       models.SessionInitiated,
		ContactEmail: req.ContactEmail,
		ItemIDs:      items,
		CreatedAt:    s.now().UTC(),
	}
	if err = s.store.Save(ctx, sess); err != nil {
		return InitiateResult{}, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.tokens.GenerateToken(sessionID)
	if err != nil {
		return InitiateResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if pubErr := s.events.Publish(ctx, rabbitmq.EventOrderInitiated, models.OrderInitiated{SessionID: sessionID, ItemIDs: items}); pubErr != nil {
		log.Warn("failed to publish event", slog.String("session_id", sessionID), sl.Err(pubErr))
	}

	log.Info("checkout session initiated", slog.String("session_id", sessionID), slog.Int("items", len(items)))
	return InitiateResult{SessionID: sessionID, FinalizeToken: token}, nil
}

// workTimeout срок работы finalize: на четверть короче блокировки,
// чтобы запоздавший вызов не пережил её.
func (s *Service) workTimeout() time.Duration {
	return s.lockTTL - s.lockTTL/4
}

// Finalize заменяет адрес доставки и размещает заказ. place_order вызывается только
// после успешного update_shipping_address и с идентификатором из его ответа.
func (s *Service) Finalize(ctx context.Context, sessionID string, req models.RecipientUpdateRequest) (poID string, err error) {
	const op = "checkout.Finalize"
	log := s.log.With(sl.Op(op), slog.String("session_id", sessionID))
	defer func() { s.metrics.ObserveOrder(StageFinalize, err) }()

	owner, locked, err := s.store.Lock(ctx, sessionID, s.lockTTL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !locked {
		return "", fmt.Errorf("%s: %w", op, ErrSessionBusy)
	}
	defer func() {
		released, unlockErr := s.store.Unlock(context.WithoutCancel(ctx), sessionID, owner)
		switch {
		case unlockErr != nil:
			log.Warn("failed to unlock session", sl.Err(unlockErr))
		case !released:
			log.Warn("session lock expired before finalize finished")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.workTimeout())
	defer cancel()

	sess, found, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return "", fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}
	switch sess.Status {
	case models.SessionFinalized:
		return "", fmt.Errorf("%s: %w", op, ErrSessionFinalized)
	case models.SessionPlacing:
		return "", fmt.Errorf("%s: %w", op, ErrSessionBusy)
	}

	// после прошлой неудачной попытки eBay мог уже выдать новый идентификатор
	currentID := sess.SessionID
	if sess.UpstreamSessionID != "" {
		currentID = sess.UpstreamSessionID
	}

	updatedID, err := s.upstream.UpdateShippingAddress(ctx, currentID, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if updatedID != currentID {
		log.Info("upstream returned new session id", slog.String("upstream_session_id", updatedID))
	}

	sess.UpstreamSessionID = ""
	if updatedID != sess.SessionID {
		sess.UpstreamSessionID = updatedID
	}
	sess.Status = models.SessionPlacing
	if err = s.store.Save(ctx, *sess); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	poID, err = s.upstream.PlaceOrder(ctx, updatedID)
	if err != nil {
		sess.Status = models.SessionInitiated
		if saveErr := s.store.Save(context.WithoutCancel(ctx), *sess); saveErr != nil {
			log.Error("failed to release session after place_order failure", sl.Err(saveErr))
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	// заказ уже размещён, ошибки ниже не должны приводить к повторной попытке клиента
	finalizedAt := s.now().UTC()
	sess.Status = models.SessionFinalized
	sess.PurchaseOrderID = poID
	sess.FinalizedAt = &finalizedAt
	if saveErr := s.store.Save(context.WithoutCancel(ctx), *sess); saveErr != nil {
		log.Error("failed to save finalized session", slog.String("purchase_order_id", poID), sl.Err(saveErr))
	}
	if pubErr := s.events.Publish(ctx, rabbitmq.EventOrderPlaced, models.OrderPlaced{
		SessionID:       sessionID,
		PurchaseOrderID: poID,
		ContactEmail:    sess.ContactEmail,
		ItemIDs:         sess.ItemIDs,
	}); pubErr != nil {
		log.Warn("failed to publish event", sl.Err(pubErr))
	}

	log.Info("order placed", slog.String("purchase_order_id", poID))
	return poID, nil
}
