package redeem

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/moodlog/moodlog-backend/internal/http/middlewarectx"
	"github.com/moodlog/moodlog-backend/internal/http/response"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/models"
	"github.com/moodlog/moodlog-backend/internal/services/plan"
)

// Handler управляет HTTP-запросами активации промокода.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики активации промокода.
type Service interface {
	RedeemPromo(ctx context.Context, userUID, code string) (*plan.Status, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Активировать промокод
// @Description Активирует платный тариф по промокоду. Доступно на бесплатном и пробном тарифе.
// @Tags PromoCodes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.DummyRedeem true "Промокод"
// @Success 200 {object} response.Response{data=plan.Status}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Промокод не найден"
// @Failure 409 {object} response.ErrorResponse "Промокод исчерпан или просрочен"
// @Failure 422 {object} response.ErrorResponse "Активация недоступна на текущем тарифе"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /promo-codes/redeem [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.promocode.redeem"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyRedeem
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	status, err := h.service.RedeemPromo(r.Context(), userUID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, plan.ErrPromoNotFound):
			log.Info("promo code not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("promo code not found"))
		case errors.Is(err, plan.ErrPromoUnavailable):
			log.Info("promo code unavailable")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("promo code is no longer available"))
		case errors.Is(err, plan.ErrPromoNotEligible):
			log.Info("promo code not eligible on current plan")
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("promo codes can be redeemed only on free or trial plan"))
		default:
			log.Error("failed to redeem promo code", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not redeem promo code"))
		}
		return
	}

	log.Info("promo code redeemed", slog.String("plan", status.Plan))
	render.JSON(w, r, response.OKWithData(status))
}
