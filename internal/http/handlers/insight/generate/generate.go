// Package generate реализует HTTP-обработчик генерации AI-отчета.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/moodlog/moodlog-backend/internal/http/middlewarectx"
	"github.com/moodlog/moodlog-backend/internal/http/response"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/models"
	"github.com/moodlog/moodlog-backend/internal/services/insight"
	"github.com/moodlog/moodlog-backend/internal/services/plan"
)

// Handler управляет HTTP-запросами генерации отчетов.
type Handler struct {
	log      *slog.Logger
	service  Service
	features FeatureChecker
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики генерации отчета.
type Service interface {
	Generate(ctx context.Context, userUID, insightType string, refTime time.Time, language string) (*models.DecryptedInsight, error)
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
		validate: validator.New(),
	}
}

type dummyGenerate struct {
	Type     string `json:"type" validate:"required,oneof=weekly monthly"`
	Language string `json:"language" validate:"omitempty,oneof=ru en kk"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// ServeHTTP godoc
// @Summary Сгенерировать AI-отчет
// @Description Строит недельный или месячный отчет по записям периода: текущего либо содержащего переданную дату. Повторный вызов обновляет отчет. Доступность зависит от тарифа.
// @Tags Insights
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dummyGenerate true "Тип отчета, язык и дата периода"
// @Success 200 {object} response.Response{data=models.DecryptedInsight}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Отчеты недоступны на тарифе"
// @Failure 422 {object} response.ErrorResponse "Нет записей за период"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /insights/generate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.insight.generate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req dummyGenerate
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

	feature := plan.FeatureWeeklyInsights
	if req.Type == models.InsightTypeMonthly {
		feature = plan.FeatureMonthlyInsights
	}
	allowed, err := h.features.HasFeature(r.Context(), userUID, feature)
	if err != nil {
		log.Error("failed to check plan feature", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not generate insight"))
		return
	}
	if !allowed {
		log.Info("insights not available on plan", slog.String("type", req.Type))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("insights are not available on your plan"))
		return
	}

	refTime := time.Now().UTC()
	if req.Date != "" {
		refTime, _ = time.Parse("2006-01-02", req.Date)
	}

	result, err := h.service.Generate(r.Context(), userUID, req.Type, refTime, req.Language)
	if err != nil {
		if errors.Is(err, insight.ErrNoEntries) {
			log.Info("no entries in period", slog.String("type", req.Type))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("no entries in period"))
			return
		}
		log.Error("failed to generate insight", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not generate insight"))
		return
	}

	log.Info("insight generated",
		slog.String("type", req.Type),
		slog.String("period", result.PeriodKey),
	)
	render.JSON(w, r, response.OKWithData(result))
}
