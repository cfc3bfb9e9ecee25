// Package raffle содержит заглушки розыгрышей стрима. Состояние не хранится:
// обработчики проверяют входные данные и отдают фиксированные ответы.
package raffle

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/stream-checkout/internal/http/response"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/sl"
)

// StubRaffleID единственный розыгрыш, который считается существующим.
const StubRaffleID = "123"

// StubWinnerID победитель любого розыгрыша.
const StubWinnerID = "123"

// StartRequest тело запроса start.
type StartRequest struct {
	RaffleType     string          `json:"raffle_type" validate:"required,oneof=custom trivia boundary random"`
	RaffleMetadata json.RawMessage `json:"raffle_metadata,omitempty"`
}

// StartResult ответ start.
type StartResult struct {
	StartTime string         `json:"start_time"`
	RaffleID  string         `json:"raffle_id"`
	StreamID  string         `json:"stream_id"`
	Payload   map[string]any `json:"payload"`
}

// UserRequest тело запросов join, accept_win и winner_details.
type UserRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// Handler набор обработчиков /stream/raffle.
type Handler struct {
	log      *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// New создаёт Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{
		log:      log,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, response.Error(msg))
}

// Start godoc
// @Summary Начать розыгрыш
// @Tags Raffle
// @Accept  json
// @Produce  json
// @Param stream_id path string true "Идентификатор стрима"
// @Param request body StartRequest true "Тип розыгрыша"
// @Success 200 {object} response.Response{data=StartResult}
// @Failure 400 {object} response.ErrorResponse "Неизвестный тип розыгрыша"
// @Router /stream/raffle/start/{stream_id} [post]
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.raffle.start")

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		badRequest(w, r, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("unknown raffle type", slog.String("raffle_type", req.RaffleType))
		badRequest(w, r, "raffle_type must be one of [custom trivia boundary random]")
		return
	}

	render.JSON(w, r, response.OKWithData(StartResult{
		StartTime: strconv.FormatInt(h.now().UnixMilli(), 10),
		RaffleID:  StubRaffleID,
		StreamID:  chi.URLParam(r, "stream_id"),
		Payload:   map[string]any{},
	}))
}

func (h *Handler) decodeUser(w http.ResponseWriter, r *http.Request, log *slog.Logger) (UserRequest, bool) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		badRequest(w, r, "invalid request body")
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		badRequest(w, r, "user_id is required")
		return req, false
	}
	return req, true
}

// Join godoc
// @Summary Участвовать в розыгрыше
// @Tags Raffle
// @Accept  json
// @Produce  json
// @Param raffle_id path string true "Идентификатор розыгрыша"
// @Param request body UserRequest true "Участник"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Нет user_id"
// @Router /stream/raffle/join/{raffle_id} [post]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.raffle.join")
	req, ok := h.decodeUser(w, r, log)
	if !ok {
		return
	}
	log.Info("user joined raffle", slog.String("raffle_id", chi.URLParam(r, "raffle_id")), slog.String("user_id", req.UserID))
	render.JSON(w, r, response.OKWithData(nil))
}

// Exists godoc
// @Summary Проверить розыгрыш
// @Tags Raffle
// @Produce  json
// @Param raffle_id path string true "Идентификатор розыгрыша"
// @Success 200 {object} response.Response
// @Router /stream/raffle/exists/{raffle_id} [get]
func (h *Handler) Exists(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(map[string]bool{
		"exists": chi.URLParam(r, "raffle_id") == StubRaffleID,
	}))
}

// End godoc
// @Summary Завершить розыгрыш
// @Tags Raffle
// @Produce  json
// @Param raffle_id path string true "Идентификатор розыгрыша"
// @Success 200 {object} response.Response
// @Router /stream/raffle/end/{raffle_id} [get]
func (h *Handler) End(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(nil))
}

// Winner godoc
// @Summary Победитель розыгрыша
// @Tags Raffle
// @Produce  json
// @Param raffle_id path string true "Идентификатор розыгрыша"
// @Success 200 {object} response.Response
// @Router /stream/raffle/winner/{raffle_id} [get]
func (h *Handler) Winner(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(map[string]string{"user_id": StubWinnerID}))
}

// AcceptWin godoc
// @Summary Принять выигрыш
// @Tags Raffle
// @Accept  json
// @Produce  json
// @Param raffle_id path string true "Идентификатор розыгрыша"
// @Param request body UserRequest true "Победитель"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Нет user_id"
// @Router /stream/raffle/accept_win/{raffle_id} [post]
func (h *Handler) AcceptWin(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.raffle.accept_win")
	if _, ok := h.decodeUser(w, r, log); !ok {
		return
	}
	render.JSON(w, r, response.OKWithData(nil))
}

// WinnerDetails godoc
// @Summary Данные победителя
// @Tags Raffle
// @Accept  json
// @Produce  json
// @Param raffle_id path string true "Идентификатор розыгрыша"
// @Param request body UserRequest true "Победитель"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Нет user_id"
// @Router /stream/raffle/winner_details/{raffle_id} [post]
func (h *Handler) WinnerDetails(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.raffle.winner_details")
	if _, ok := h.decodeUser(w, r, log); !ok {
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]string{"user_id": StubWinnerID}))
}

// Routes монтирует обработчики в r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/start/{stream_id}", h.Start)
	r.Post("/join/{raffle_id}", h.Join)
	r.Get("/exists/{raffle_id}", h.Exists)
	r.Get("/end/{raffle_id}", h.End)
	r.Get("/winner/{raffle_id}", h.Winner)
	r.Post("/accept_win/{raffle_id}", h.AcceptWin)
	r.Post("/winner_details/{raffle_id}", h.WinnerDetails)
}
