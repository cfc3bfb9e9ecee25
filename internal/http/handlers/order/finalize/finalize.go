// Package finalize реализует HTTP-обработчик завершения заказа: адрес получателя
// записывается в сессию, после чего заказ размещается.
package finalize

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/stream-checkout/internal/ebay"
	"github.com/magabrotheeeer/stream-checkout/internal/http/middlewarectx"
	"github.com/magabrotheeeer/stream-checkout/internal/http/response"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/sl"
	"github.com/magabrotheeeer/stream-checkout/internal/models"
	"github.com/magabrotheeeer/stream-checkout/internal/services/checkout"
)

// Service завершает заказ по сессии.
type Service interface {
	Finalize(ctx context.Context, sessionID string, req models.RecipientUpdateRequest) (string, error)
}

// Result данные успешного ответа.
type Result struct {
	PurchaseOrderID string `json:"purchase_order_id"`
}

// Handler обрабатывает POST /api/v1/orders/{session_id}/finalize.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Разместить заказ
// @Description Заменяет адрес доставки сессии адресом получателя и размещает заказ.
// @Tags Orders
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param session_id path string true "Идентификатор checkout-сессии"
// @Param request body models.RecipientUpdateRequest true "Получатель и адрес доставки"
// @Success 200 {object} response.Response{data=Result}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет или недействителен finalize-токен"
// @Failure 403 {object} response.ErrorResponse "Токен выдан для другой сессии"
// @Failure 404 {object} response.ErrorResponse "Сессия не найдена"
// @Failure 409 {object} response.ErrorResponse "Заказ уже размещён или размещается"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Ошибка eBay"
// @Router /api/v1/orders/{session_id}/finalize [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.finalize"

	// идентификатор берётся из проверенного токена, middleware уже сверил его с маршрутом
	sessionID, ok := middlewarectx.SessionIDFrom(r.Context())
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("session_id", sessionID),
	)

	if !ok {
		log.Error("request reached finalize without verified session")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("missing or invalid authorization header"))
		return
	}

	var req models.RecipientUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))
			return
		}
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	}

	poID, err := h.service.Finalize(r.Context(), sessionID, req)
	if err != nil {
		log.Error("failed to finalize order", sl.Err(err))
		status, msg := errorStatus(err)
		render.Status(r, status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("order placed", slog.String("purchase_order_id", poID))
	render.JSON(w, r, response.OKWithData(Result{PurchaseOrderID: poID}))
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, checkout.ErrSessionNotFound):
		return http.StatusNotFound, "checkout session not found"
	case errors.Is(err, checkout.ErrSessionFinalized):
		return http.StatusConflict, "order already placed"
	case errors.Is(err, checkout.ErrSessionBusy):
		return http.StatusConflict, "order is being placed"
	case errors.Is(err, ebay.ErrUpstreamAuth), errors.Is(err, ebay.ErrUpstreamCheckout):
		return http.StatusBadGateway, "checkout provider error"
	default:
		return http.StatusInternalServerError, "failed to place order"
	}
}
