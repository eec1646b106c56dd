// Package periods реализует HTTP-обработчик списка периодов с отчетами.
package periods

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/moodlog/moodlog-backend/internal/http/middlewarectx"
	"github.com/moodlog/moodlog-backend/internal/http/response"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/models"
)

// Глубина выборки по умолчанию, когда since не передан.
const defaultLookback = 365 * 24 * time.Hour

// Handler управляет HTTP-запросами списка периодов с отчетами.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка периодов.
type Service interface {
	Periods(ctx context.Context, userUID, insightType string, since time.Time) ([]string, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Периоды с отчетами
// @Description Возвращает ключи периодов, за которые у пользователя уже сгенерированы отчеты указанного типа. Используется фронтендом для подсветки календаря.
// @Tags Insights
// @Produce json
// @Security BearerAuth
// @Param type query string true "Тип отчета (weekly или monthly)"
// @Param since query string false "Начальная дата выборки (YYYY-MM-DD), по умолчанию год назад"
// @Success 200 {object} response.Response{data=[]string}
// @Failure 400 {object} response.ErrorResponse "Некорректный тип или дата"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /insights/periods [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.insight.periods"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	insightType := r.URL.Query().Get("type")
	if insightType != models.InsightTypeWeekly && insightType != models.InsightTypeMonthly {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid insight type"))
		return
	}

	since := time.Now().UTC().Add(-defaultLookback)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid date"))
			return
		}
		since = parsed
	}

	keys, err := h.service.Periods(r.Context(), userUID, insightType, since)
	if err != nil {
		log.Error("failed to list insight periods", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list periods"))
		return
	}
	if keys == nil {
		keys = []string{}
	}

	render.JSON(w, r, response.OKWithData(keys))
}
