package bestworstday

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

// Handler управляет HTTP-запросами лучшего и худшего дня.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики лучшего и худшего дня.
type Service interface {
	BestWorstDays(ctx context.Context, userUID string, from, to time.Time, tzOffsetMinutes int) (*models.BestWorstDays, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Лучший и худший день
// @Description Возвращает дни с максимальным и минимальным средним настроением за интервал.
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param from query string true "Начало интервала (YYYY-MM-DD)"
// @Param to query string true "Конец интервала (YYYY-MM-DD)"
// @Param tz_offset query int false "Смещение часового пояса в минутах"
// @Success 200 {object} response.Response{data=models.BestWorstDays}
// @Failure 400 {object} response.ErrorResponse "Некорректный интервал"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /analytics/best-worst-day [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.analytics.bestworstday"
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

	days, err := h.service.BestWorstDays(r.Context(), userUID, from, to, tzOffset)
	if err != nil {
		log.Error("failed to find best and worst days", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build report"))
		return
	}

	render.JSON(w, r, response.OKWithData(days))
}
