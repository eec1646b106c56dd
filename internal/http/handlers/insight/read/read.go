package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/moodlog/moodlog-backend/internal/http/middlewarectx"
	"github.com/moodlog/moodlog-backend/internal/http/response"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/models"
	"github.com/moodlog/moodlog-backend/internal/services/insight"
)

// Handler управляет HTTP-запросами чтения одного отчета.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения отчета.
type Service interface {
	Read(ctx context.Context, userUID, insightUID string) (*models.DecryptedInsight, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить отчет
// @Description Возвращает расшифрованный отчет по его идентификатору.
// @Tags Insights
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID отчета"
// @Success 200 {object} response.Response{data=models.DecryptedInsight}
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Отчет не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /insights/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.insight.read"
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

	insightUID := chi.URLParam(r, "id")

	result, err := h.service.Read(r.Context(), userUID, insightUID)
	if err != nil {
		if errors.Is(err, insight.ErrInsightNotFound) {
			log.Info("insight not found", slog.String("insight_uid", insightUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("insight not found"))
			return
		}
		log.Error("failed to read insight", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read insight"))
		return
	}

	render.JSON(w, r, response.OKWithData(result))
}
