// Package initiate реализует HTTP-обработчик открытия гостевой checkout-сессии.
package initiate

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
	"github.com/magabrotheeeer/stream-checkout/internal/http/response"
	"github.com/magabrotheeeer/stream-checkout/internal/lib/sl"
	"github.com/magabrotheeeer/stream-checkout/internal/models"
	"github.com/magabrotheeeer/stream-checkout/internal/services/checkout"
)

// Service открывает checkout-сессию.
type Service interface {
	Initiate(ctx context.Context, req models.CheckoutInitiationRequest) (checkout.InitiateResult, error)
}

// Result данные успешного ответа.
type Result struct {
	CheckoutSessionID string `json:"checkout_session_id"`
	FinalizeToken     string `json:"finalize_token"`
}

// Handler обрабатывает POST /api/v1/orders/initiate.
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
// @Summary Открыть checkout-сессию
// @Description Открывает гостевую checkout-сессию в eBay. Возвращает идентификатор сессии и токен для finalize.
// @Tags Orders
// @Accept  json
// @Produce  json
// @Param request body models.CheckoutInitiationRequest true "Покупатель, товары и карта"
// @Success 200 {object} response.Response{data=Result}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Ошибка eBay"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/v1/orders/initiate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.initiate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.CheckoutInitiationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	// тело содержит данные карты, в лог идёт только безопасная часть
	log.Info("request body decoded",
		slog.Int("items", len(req.ItemIDs)),
		sl.Masked("card_number", req.CreditCard.CardNumber),
	)

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

	res, err := h.service.Initiate(r.Context(), req)
	if err != nil {
		log.Error("failed to initiate checkout", sl.Err(err))
		if errors.Is(err, ebay.ErrUpstreamAuth) || errors.Is(err, ebay.ErrUpstreamCheckout) {
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error("checkout provider error"))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to initiate checkout"))
		return
	}

	log.Info("checkout initiated", slog.String("session_id", res.SessionID))
	render.JSON(w, r, response.OKWithData(Result{
		CheckoutSessionID: res.SessionID,
		FinalizeToken:     res.FinalizeToken,
	}))
}
