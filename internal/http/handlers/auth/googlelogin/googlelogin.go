// Package googlelogin реализует HTTP-обработчик начала входа через Google.
//
// Handler генерирует state, сохраняет его в cookie и перенаправляет
// пользователя на страницу согласия Google.
package googlelogin

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/moodlog/moodlog-backend/internal/http/response"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
)

// StateCookie — имя cookie со state для защиты от CSRF.
const StateCookie = "oauth_state"

// Handler управляет HTTP-запросами начала входа через Google.
type Handler struct {
	log      *slog.Logger
	provider Provider
}

// Provider описывает построение ссылки авторизации Google.
type Provider interface {
	AuthURL(state string) string
}

// New создает новый Handler с переданными логгером и провайдером.
func New(log *slog.Logger, provider Provider) *Handler {
	return &Handler{log: log, provider: provider}
}

// ServeHTTP godoc
// @Summary Начать вход через Google
// @Description Перенаправляет на страницу согласия Google OAuth.
// @Tags Auth
// @Success 307 "Перенаправление на Google"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/google [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.googlelogin"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		log.Error("failed to generate state", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not start google login"))
		return
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}
