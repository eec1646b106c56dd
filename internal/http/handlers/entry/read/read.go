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
	"github.com/moodlog/moodlog-backend/internal/services/entry"
)

// Handler управляет HTTP-запросами на чтение одной записи дневника.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения записи.
type Service interface {
	Read(ctx context.Context, userUID, entryUID string) (*models.DecryptedEntry, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить запись дневника
// @Description Возвращает расшифрованную запись по ее идентификатору.
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID записи"
// @Success 200 {object} response.Response{data=models.DecryptedEntry}
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /entries/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entry.read"
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

	entryUID := chi.URLParam(r, "id")

	result, err := h.service.Read(r.Context(), userUID, entryUID)
	if err != nil {
		if errors.Is(err, entry.ErrEntryNotFound) {
			log.Info("entry not found", slog.String("entry_uid", entryUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("entry not found"))
			return
		}
		log.Error("failed to read entry", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read entry"))
		return
	}

	render.JSON(w, r, response.OKWithData(result))
}
