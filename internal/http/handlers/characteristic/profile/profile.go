// Package profile реализует HTTP-обработчик выдачи психологического
// портрета пользователя.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/moodlog/moodlog-backend/internal/http/middlewarectx"
	"github.com/moodlog/moodlog-backend/internal/http/response"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/services/characteristic"
)

// Handler управляет HTTP-запросами психологического портрета.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики портрета.
type Service interface {
	Profile(ctx context.Context, userUID string) (string, time.Time, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

type profileView struct {
	Profile     json.RawMessage `json:"profile"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// ServeHTTP godoc
// @Summary Психологический портрет
// @Description Возвращает последний сгенерированный портрет пользователя и дату его построения.
// @Tags Characteristics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=profileView}
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Портрет еще не построен"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /characteristics/profile [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.characteristic.profile"
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

	profile, generatedAt, err := h.service.Profile(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, characteristic.ErrProfileNotFound) {
			log.Info("profile not generated yet")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("profile not generated yet"))
			return
		}
		log.Error("failed to get profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get profile"))
		return
	}

	render.JSON(w, r, response.OKWithData(profileView{
		Profile:     json.RawMessage(profile),
		GeneratedAt: generatedAt,
	}))
}
