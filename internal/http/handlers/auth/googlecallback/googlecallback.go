// Package googlecallback реализует HTTP-обработчик колбэка Google OAuth.
//
// Handler сверяет state с cookie, обменивает код на профиль Google и
// выдает пару JWT-токенов через сервис аутентификации.
package googlecallback

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/moodlog/moodlog-backend/internal/http/handlers/auth/googlelogin"
	"github.com/moodlog/moodlog-backend/internal/http/response"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/models"
	"github.com/moodlog/moodlog-backend/internal/oauth"
)

// Handler управляет HTTP-запросами колбэка Google OAuth.
type Handler struct {
	log      *slog.Logger
	provider Provider
	service  Service
}

// Provider описывает обмен кода авторизации на профиль Google.
type Provider interface {
	Exchange(ctx context.Context, code string) (*oauth.GoogleUser, error)
}

// Service описывает вход или регистрацию по профилю Google.
type Service interface {
	LoginWithGoogle(ctx context.Context, profile *oauth.GoogleUser) (*models.TokenPair, error)
}

// New создает новый Handler с переданными логгером, провайдером и сервисом.
func New(log *slog.Logger, provider Provider, service Service) *Handler {
	return &Handler{log: log, provider: provider, service: service}
}

// ServeHTTP godoc
// @Summary Колбэк Google OAuth
// @Description Обменивает код авторизации на пару JWT-токенов.
// @Tags Auth
// @Produce json
// @Param state query string true "State из редиректа"
// @Param code query string true "Код авторизации"
// @Success 200 {object} response.Response{data=models.TokenPair}
// @Failure 400 {object} response.ErrorResponse "Неверный state или код"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/google/callback [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.googlecallback"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cookie, err := r.Cookie(googlelogin.StateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		log.Error("state mismatch")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid oauth state"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		log.Error("missing authorization code")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing authorization code"))
		return
	}

	profile, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		log.Error("failed to exchange code", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("could not exchange authorization code"))
		return
	}

	tokens, err := h.service.LoginWithGoogle(r.Context(), profile)
	if err != nil {
		log.Error("failed to login with google", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not login with google"))
		return
	}

	log.Info("google login succeeded", slog.String("email", profile.Email))
	render.JSON(w, r, response.OKWithData(tokens))
}
