// Package moodlog предоставляет маршруты для основного приложения.
package moodlog

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/moodlog/moodlog-backend/internal/cache"
	metricsengagement "github.com/moodlog/moodlog-backend/internal/http/handlers/adminmetrics/engagement"
	metricsmood "github.com/moodlog/moodlog-backend/internal/http/handlers/adminmetrics/mood"
	metricsrevenue "github.com/moodlog/moodlog-backend/internal/http/handlers/adminmetrics/revenue"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/analytics/bestworstday"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/analytics/monthcompare"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/analytics/moodtrend"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/analytics/themes"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/auth/googlecallback"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/auth/googlelogin"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/auth/login"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/auth/me"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/auth/refresh"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/auth/register"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/characteristic/profile"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/entry/batchcreate"
	entrycreate "github.com/moodlog/moodlog-backend/internal/http/handlers/entry/create"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/entry/fromaudio"
	entrylist "github.com/moodlog/moodlog-backend/internal/http/handlers/entry/list"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/entry/patch"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/entry/questions"
	entryread "github.com/moodlog/moodlog-backend/internal/http/handlers/entry/read"
	entryremove "github.com/moodlog/moodlog-backend/internal/http/handlers/entry/remove"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/entry/search"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/entry/update"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/insight/generate"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/insight/getbyperiod"
	insightlist "github.com/moodlog/moodlog-backend/internal/http/handlers/insight/list"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/insight/periods"
	insightread "github.com/moodlog/moodlog-backend/internal/http/handlers/insight/read"
	promocreate "github.com/moodlog/moodlog-backend/internal/http/handlers/promocode/create"
	promolist "github.com/moodlog/moodlog-backend/internal/http/handlers/promocode/list"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/promocode/redeem"
	promoremove "github.com/moodlog/moodlog-backend/internal/http/handlers/promocode/remove"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/subscription/current"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/subscription/history"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/subscription/paymentstatus"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/subscription/plans"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/subscription/starttrial"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/subscription/subscribe"
	"github.com/moodlog/moodlog-backend/internal/http/handlers/subscription/webhook"
	"github.com/moodlog/moodlog-backend/internal/http/middlewarectx"
	"github.com/moodlog/moodlog-backend/internal/oauth"

	analyticsservice "github.com/moodlog/moodlog-backend/internal/services/analytics"
	authservice "github.com/moodlog/moodlog-backend/internal/services/auth"
	characteristicservice "github.com/moodlog/moodlog-backend/internal/services/characteristic"
	entryservice "github.com/moodlog/moodlog-backend/internal/services/entry"
	insightservice "github.com/moodlog/moodlog-backend/internal/services/insight"
	metricsservice "github.com/moodlog/moodlog-backend/internal/services/metrics"
	planservice "github.com/moodlog/moodlog-backend/internal/services/plan"
)

// Лимиты запросов на одного клиента.
const (
	rateLimitRPS   = 10
	rateLimitBurst = 20
)

// Services группирует бизнес-сервисы, которые нужны маршрутам.
type Services struct {
	Auth           *authservice.AuthService
	Entry          *entryservice.EntryService
	Plan           *planservice.PlanService
	Analytics      *analyticsservice.AnalyticsService
	Insight        *insightservice.InsightService
	Metrics        *metricsservice.MetricsService
	Characteristic *characteristicservice.CharacteristicService
	Cache          *cache.Cache
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, maker middlewarectx.TokenParser, google *oauth.GoogleProvider, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/refresh", refresh.New(logger, s.Auth).ServeHTTP)
		r.Get("/auth/google/login", googlelogin.New(logger, google).ServeHTTP)
		r.Get("/auth/google/callback", googlecallback.New(logger, google, s.Auth).ServeHTTP)
		r.Get("/subscriptions/plans", plans.New(logger, s.Plan).ServeHTTP)

		// Webhook endpoint (без аутентификации)
		r.Post("/subscriptions/webhook", webhook.New(logger, s.Plan).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, rateLimitRPS, rateLimitBurst))

			r.Get("/auth/me", me.New(logger, s.Auth).ServeHTTP)

			r.Post("/entries", entrycreate.New(logger, s.Entry).ServeHTTP)
			r.Get("/entries", entrylist.New(logger, s.Entry).ServeHTTP)
			r.Get("/entries/search", search.New(logger, s.Entry).ServeHTTP)
			r.Get("/entries/questions", questions.New(logger, s.Entry, s.Plan, s.Cache).ServeHTTP)
			r.Post("/entries/batch", batchcreate.New(logger, s.Entry).ServeHTTP)
			r.Post("/entries/from-audio", fromaudio.New(logger, s.Entry, s.Plan).ServeHTTP)
			r.Get("/entries/{id}", entryread.New(logger, s.Entry).ServeHTTP)
			r.Put("/entries/{id}", update.New(logger, s.Entry).ServeHTTP)
			r.Patch("/entries/{id}", patch.New(logger, s.Entry).ServeHTTP)
			r.Delete("/entries/{id}", entryremove.New(logger, s.Entry).ServeHTTP)

			r.Get("/analytics/mood-trend", moodtrend.New(logger, s.Analytics).ServeHTTP)
			r.Get("/analytics/themes", themes.New(logger, s.Analytics).ServeHTTP)
			r.Get("/analytics/best-worst-day", bestworstday.New(logger, s.Analytics).ServeHTTP)
			r.Get("/analytics/month-compare", monthcompare.New(logger, s.Analytics).ServeHTTP)

			r.Post("/insights/generate", generate.New(logger, s.Insight, s.Plan).ServeHTTP)
			r.Get("/insights/by-period", getbyperiod.New(logger, s.Insight).ServeHTTP)
			r.Get("/insights/periods", periods.New(logger, s.Insight).ServeHTTP)
			r.Get("/insights", insightlist.New(logger, s.Insight).ServeHTTP)
			r.Get("/insights/{id}", insightread.New(logger, s.Insight).ServeHTTP)

			r.Get("/subscriptions/current", current.New(logger, s.Plan).ServeHTTP)
			r.Post("/subscriptions/trial", starttrial.New(logger, s.Plan).ServeHTTP)
			r.Post("/subscriptions/subscribe", subscribe.New(logger, s.Plan).ServeHTTP)
			r.Get("/subscriptions/payments/{id}", paymentstatus.New(logger, s.Plan).ServeHTTP)
			r.Get("/subscriptions/history", history.New(logger, s.Plan).ServeHTTP)

			r.Post("/promo-codes/redeem", redeem.New(logger, s.Plan).ServeHTTP)

			r.Get("/characteristics/profile", profile.New(logger, s.Characteristic).ServeHTTP)

			// Группа администратора
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))
				r.Post("/admin/promo-codes", promocreate.New(logger, s.Plan).ServeHTTP)
				r.Get("/admin/promo-codes", promolist.New(logger, s.Plan).ServeHTTP)
				r.Delete("/admin/promo-codes/{id}", promoremove.New(logger, s.Plan).ServeHTTP)
				r.Get("/admin/metrics/engagement", metricsengagement.New(logger, s.Metrics).ServeHTTP)
				r.Get("/admin/metrics/mood", metricsmood.New(logger, s.Metrics).ServeHTTP)
				r.Get("/admin/metrics/revenue", metricsrevenue.New(logger, s.Metrics).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
