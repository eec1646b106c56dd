package patch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/moodlog/moodlog-backend/internal/http/middlewarectx"
	"github.com/moodlog/moodlog-backend/internal/http/response"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/models"
	"github.com/moodlog/moodlog-backend/internal/services/entry"
)

// Handler управляет HTTP-запросами на частичное обновление записи.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики частичного обновления записи.
type Service interface {
	Patch(ctx context.Context, userUID, entryUID string, req models.DummyEntryUpdate) (*models.DecryptedEntry, error)
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
// @Summary Частично обновить запись дневника
// @Description Меняет только переданные поля записи. Смена текста сбрасывает AI-анализ.
// @Tags Entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID записи"
// @Param request body models.DummyEntryUpdate true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.DecryptedEntry}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /entries/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entry.patch"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyEntryUpdate
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

	entryUID := chi.URLParam(r, "id")

	result, err := h.service.Patch(r.Context(), userUID, entryUID, req)
	if err != nil {
		if errors.Is(err, entry.ErrEntryNotFound) {
			log.Info("entry not found", slog.String("entry_uid", entryUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("entry not found"))
			return
		}
		log.Error("failed to patch entry", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update entry"))
		return
	}

	log.Info("entry patched", slog.String("entry_uid", entryUID))
	render.JSON(w, r, response.OKWithData(result))
}
