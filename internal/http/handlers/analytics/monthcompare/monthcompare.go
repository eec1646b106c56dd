package monthcompare

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

// Handler управляет HTTP-запросами сравнения месяцев.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики сравнения месяцев.
type Service interface {
	MonthCompare(ctx context.Context, userUID string, year int, month time.Month, tzOffsetMinutes int) (*models.MonthComparison, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Сравнение месяцев
// @Description Сравнивает средние настроение и количество записей месяца с предыдущим месяцем.
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param year query int true "Год"
// @Param month query int true "Месяц (1-12)"
// @Param tz_offset query int false "Смещение часового пояса в минутах"
// @Success 200 {object} response.Response{data=models.MonthComparison}
// @Failure 400 {object} response.ErrorResponse "Некорректный месяц"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /analytics/month-compare [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.analytics.monthcompare"
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

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2000 || year > 2100 {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid year"))
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid month"))
		return
	}
	tzOffset, _ := strconv.Atoi(r.URL.Query().Get("tz_offset"))

	cmp, err := h.service.MonthCompare(r.Context(), userUID, year, time.Month(month), tzOffset)
	if err != nil {
		log.Error("failed to compare months", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not compare months"))
		return
	}

	render.JSON(w, r, response.OKWithData(cmp))
}
