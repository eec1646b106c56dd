package questions

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/moodlog/moodlog-backend/internal/http/middlewarectx"
	"github.com/moodlog/moodlog-backend/internal/http/response"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/services/plan"
)

// Суточный лимит генераций для планов без безлимитных вопросов.
const freeDailyLimit = 3

// Handler управляет HTTP-запросами наводящих вопросов для новой записи.
type Handler struct {
	log      *slog.Logger
	service  Service
	features FeatureChecker
	quota    Quota
}

// Service описывает интерфейс бизнес-логики подбора вопросов.
type Service interface {
	Questions(ctx context.Context, userUID string) ([]string, error)
}

// FeatureChecker проверяет доступность функции на тарифе пользователя.
type FeatureChecker interface {
	HasFeature(ctx context.Context, userUID, feature string) (bool, error)
}

// Quota ведёт суточный счётчик обращений.
type Quota interface {
	AllowDaily(key string, limit int) (bool, error)
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, service Service, features FeatureChecker, quota Quota) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		features: features,
		quota:    quota,
	}
}

// ServeHTTP godoc
// @Summary Наводящие вопросы
// @Description Возвращает персональные вопросы-подсказки для новой записи на основе недавних записей пользователя. На бесплатном тарифе действует суточный лимит генераций.
// @Tags Entries
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]string}
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 429 {object} response.ErrorResponse "Суточный лимит исчерпан"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /entries/questions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entry.questions"
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

	unlimited, err := h.features.HasFeature(r.Context(), userUID, plan.FeatureUnlimitedQuestions)
	if err != nil {
		log.Error("failed to check plan feature", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build questions"))
		return
	}
	if !unlimited {
		allowed, err := h.quota.AllowDaily(fmt.Sprintf("questions:%s", userUID), freeDailyLimit)
		if err != nil {
			log.Error("failed to check daily quota", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not build questions"))
			return
		}
		if !allowed {
			log.Info("daily question quota exhausted")
			w.WriteHeader(http.StatusTooManyRequests)
			render.JSON(w, r, response.Error("daily question limit reached"))
			return
		}
	}

	list, err := h.service.Questions(r.Context(), userUID)
	if err != nil {
		log.Error("failed to build questions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build questions"))
		return
	}

	render.JSON(w, r, response.OKWithData(list))
}
