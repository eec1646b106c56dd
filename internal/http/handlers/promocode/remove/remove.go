package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/moodlog/moodlog-backend/internal/http/response"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/services/plan"
)

// Handler управляет HTTP-запросами удаления промокода.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики удаления промокода.
type Service interface {
	RemovePromo(ctx context.Context, promoUID string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить промокод
// @Description Удаляет промокод. Уже активированные подписки не затрагиваются. Только для администраторов.
// @Tags PromoCodes
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID промокода"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 404 {object} response.ErrorResponse "Промокод не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/promo-codes/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.promocode.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	promoUID := chi.URLParam(r, "id")

	if err := h.service.RemovePromo(r.Context(), promoUID); err != nil {
		if errors.Is(err, plan.ErrPromoNotFound) {
			log.Info("promo code not found", slog.String("promo_uid", promoUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("promo code not found"))
			return
		}
		log.Error("failed to remove promo code", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove promo code"))
		return
	}

	log.Info("promo code removed", slog.String("promo_uid", promoUID))
	render.JSON(w, r, response.OK())
}
