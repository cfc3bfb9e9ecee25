// Package queue реализует именованные очереди сообщений стрима поверх RabbitMQ.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/stream-checkout/internal/http/response"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/sl"
)

// Pusher кладёт сообщение в очередь и возвращает её размер.
type Pusher interface {
	Push(ctx context.Context, queueName string, message any) (int, error)
}

// Message конверт запроса, который попадает в очередь.
type Message struct {
	RequestID  string              `json:"request_id,omitempty"`
	Method     string              `json:"method"`
	Path       string              `json:"path"`
	Query      map[string][]string `json:"query,omitempty"`
	RemoteAddr string              `json:"remote_addr"`
	ReceivedAt time.Time           `json:"received_at"`
}

// Result ответ с размером очереди.
type Result struct {
	QueueSize int `json:"queue_size"`
}

// Handler обрабатывает GET /queue/{queue_name}.
type Handler struct {
	log    *slog.Logger
	pusher Pusher
}

// New создаёт Handler.
func New(log *slog.Logger, pusher Pusher) *Handler {
	return &Handler{log: log, pusher: pusher}
}

// ServeHTTP godoc
// @Summary Положить запрос в очередь
// @Description Кладёт конверт запроса в очередь queue_name, создавая её при первом обращении.
// @Tags Queue
// @Produce  json
// @Param queue_name path string true "Имя очереди"
// @Success 200 {object} Result
// @Failure 503 {object} response.ErrorResponse "Брокер не настроен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /queue/{queue_name} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.queue"

	reqID := middleware.GetReqID(r.Context())
	name := chi.URLParam(r, "queue_name")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", reqID),
		slog.String("queue", name),
	)

	msg := Message{
		RequestID:  reqID,
		Method:     r.Method,
		Path:       r.URL.Path,
		Query:      r.URL.Query(),
		RemoteAddr: r.RemoteAddr,
		ReceivedAt: time.Now().UTC(),
	}
	size, err := h.pusher.Push(r.Context(), name, msg)
	if err != nil {
		log.Error("failed to push message", sl.Err(err))
		if errors.Is(err, rabbitmq.ErrDisabled) {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("queues are disabled"))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to push message"))
		return
	}

	log.Debug("message queued", slog.Int("queue_size", size))
	render.JSON(w, r, Result{QueueSize: size})
}
