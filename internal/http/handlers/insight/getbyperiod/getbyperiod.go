package getbyperiod

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/moodlog/moodlog-backend/internal/http/middlewarectx"
	"github.com/moodlog/moodlog-backend/internal/http/response"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/models"
	"github.com/moodlog/moodlog-backend/internal/services/insight"
)

// Handler управляет HTTP-запросами выдачи отчета за период.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики выдачи отчета за период.
type Service interface {
	GetByPeriod(ctx context.Context, userUID, insightType string, refTime time.Time) (*models.DecryptedInsight, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отчет за период
// @Description Возвращает сохраненный отчет за период, в который попадает указанная дата (по умолчанию сегодня).
// @Tags Insights
// @Produce json
// @Security BearerAuth
// @Param type query string true "Тип отчета (weekly или monthly)"
// @Param date query string false "Дата внутри периода (YYYY-MM-DD)"
// @Success 200 {object} response.Response{data=models.DecryptedInsight}
// @Failure 400 {object} response.ErrorResponse "Некорректный тип или дата"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Отчет не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /insights/by-period [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.insight.getbyperiod"
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

	refTime := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid date"))
			return
		}
		refTime = parsed
	}

	result, err := h.service.GetByPeriod(r.Context(), userUID, insightType, refTime)
	if err != nil {
		if errors.Is(err, insight.ErrInsightNotFound) {
			log.Info("insight not found", slog.String("type", insightType))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("insight not found"))
			return
		}
		log.Error("failed to get insight", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get insight"))
		return
	}

	render.JSON(w, r, response.OKWithData(result))
}
