// Package moodtrend реализует HTTP-обработчик графика настроения.
package moodtrend

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/moodlog/moodlog-backend/internal/http/middlewarectx"
	"github.com/moodlog/moodlog-backend/internal/http/response"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/models"
)

// Handler управляет HTTP-запросами графика настроения.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики аналитики настроения.
type Service interface {
	MoodTrend(ctx context.Context, userUID string, from, to time.Time, tzOffsetMinutes int) (*models.MoodTrend, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary График настроения
// @Description Возвращает среднее настроение по дням за интервал в часовом поясе пользователя.
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param from query string true "Начало интервала (YYYY-MM-DD)"
// @Param to query string true "Конец интервала (YYYY-MM-DD)"
// @Param tz_offset query int false "Смещение часового пояса в минутах"
// @Success 200 {object} response.Response{data=models.MoodTrend}
// @Failure 400 {object} response.ErrorResponse "Некорректный интервал"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /analytics/mood-trend [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.analytics.moodtrend"
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

	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid from date"))
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid to date"))
		return
	}
	tzOffset, _ := strconv.Atoi(r.URL.Query().Get("tz_offset"))

	trend, err := h.service.MoodTrend(r.Context(), userUID, from, to, tzOffset)
	if err != nil {
		log.Error("failed to build mood trend", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build mood trend"))
		return
	}

	render.JSON(w, r, response.OKWithData(trend))
}
