package fromaudio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/moodlog/moodlog-backend/internal/http/middlewarectx"
	"github.com/moodlog/moodlog-backend/internal/http/response"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/models"
	"github.com/moodlog/moodlog-backend/internal/services/plan"
)

// Предел размера аудиофайла в запросе.
const maxUploadSize = 25 << 20

// Расширения, которые принимает распознавание речи.
var allowedExtensions = map[string]struct{}{
	".mp3":  {},
	".mp4":  {},
	".m4a":  {},
	".wav":  {},
	".ogg":  {},
	".oga":  {},
	".webm": {},
	".flac": {},
	".mpga": {},
	".mpeg": {},
}

// Handler управляет HTTP-запросами создания записи из аудио.
type Handler struct {
	log      *slog.Logger
	service  Service
	features FeatureChecker
}

// Service описывает интерфейс бизнес-логики создания записи из аудио.
type Service interface {
	CreateFromAudio(ctx context.Context, userUID, filename string, audio io.Reader) (*models.DecryptedEntry, error)
}

// FeatureChecker проверяет доступность функции на тарифе пользователя.
type FeatureChecker interface {
	HasFeature(ctx context.Context, userUID, feature string) (bool, error)
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, service Service, features FeatureChecker) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		features: features,
	}
}

// ServeHTTP godoc
// @Summary Создать запись из аудио
// @Description Принимает аудиофайл, расшифровывает его в текст и создает запись дневника. Доступно только на тарифах с аудиозаписями.
// @Tags Entries
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Аудиофайл"
// @Success 200 {object} response.Response{data=models.DecryptedEntry}
// @Failure 400 {object} response.ErrorResponse "Файл отсутствует, слишком большой или неподдерживаемого формата"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Функция недоступна на тарифе"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /entries/from-audio [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entry.fromaudio"
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

	allowed, err := h.features.HasFeature(r.Context(), userUID, plan.FeatureAudioEntries)
	if err != nil {
		log.Error("failed to check plan feature", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create entry"))
		return
	}
	if !allowed {
		log.Info("audio entries not available on plan")
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("audio entries are not available on your plan"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid audio upload"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("audio file is required"))
			return
		}
		log.Error("failed to read audio file", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid audio upload"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		log.Info("rejected upload with unsupported extension", slog.String("filename", header.Filename))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("unsupported audio format"))
		return
	}

	entry, err := h.service.CreateFromAudio(r.Context(), userUID, header.Filename, file)
	if err != nil {
		log.Error("failed to create entry from audio", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create entry"))
		return
	}

	log.Info("entry created from audio", slog.String("entry_uid", entry.UUID))
	render.JSON(w, r, response.OKWithData(entry))
}
