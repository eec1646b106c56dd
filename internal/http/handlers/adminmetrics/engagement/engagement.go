// Package engagement реализует админский HTTP-обработчик метрик вовлеченности.
package engagement

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/moodlog/moodlog-backend/internal/http/response"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/services/metrics"
)

// Handler управляет HTTP-запросами метрик вовлеченности.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики метрик вовлеченности.
type Service interface {
	Engagement(ctx context.Context) (*metrics.EngagementReport, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Метрики вовлеченности
// @Description Возвращает DAU, MAU и динамику активности за последние 30 дней. Только для администраторов.
// @Tags AdminMetrics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=metrics.EngagementReport}
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/metrics/engagement [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.adminmetrics.engagement"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	report, err := h.service.Engagement(r.Context())
	if err != nil {
		log.Error("failed to build engagement report", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build report"))
		return
	}

	render.JSON(w, r, response.OKWithData(report))
}
