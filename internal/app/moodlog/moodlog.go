// Package moodlog собирает основное HTTP-приложение: хранилище,
// кэш, внешние клиенты, сервисы и маршруты.
package moodlog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/moodlog/moodlog-backend/internal/cache"
	"github.com/moodlog/moodlog-backend/internal/config"
	"github.com/moodlog/moodlog-backend/internal/lib/jwt"
	"github.com/moodlog/moodlog-backend/internal/llm"
	"github.com/moodlog/moodlog-backend/internal/migrations"
	"github.com/moodlog/moodlog-backend/internal/oauth"
	"github.com/moodlog/moodlog-backend/internal/paymentgateway"
	analysisservice "github.com/moodlog/moodlog-backend/internal/services/analysis"
	analyticsservice "github.com/moodlog/moodlog-backend/internal/services/analytics"
	authservice "github.com/moodlog/moodlog-backend/internal/services/auth"
	characteristicservice "github.com/moodlog/moodlog-backend/internal/services/characteristic"
	entryservice "github.com/moodlog/moodlog-backend/internal/services/entry"
	insightservice "github.com/moodlog/moodlog-backend/internal/services/insight"
	keyringservice "github.com/moodlog/moodlog-backend/internal/services/keyring"
	metricsservice "github.com/moodlog/moodlog-backend/internal/services/metrics"
	planservice "github.com/moodlog/moodlog-backend/internal/services/plan"
	"github.com/moodlog/moodlog-backend/internal/storage/repository"
	"github.com/moodlog/moodlog-backend/internal/workers"
)

// Размер пула фоновых задач AI-анализа.
const analysisPoolSize = 4

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	pool   *workers.Pool
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	maker := jwt.NewMaker(cfg.JWTSecretKey, cfg.AccessTTL, cfg.RefreshTTL)
	llmClient := llm.New(cfg.OpenAI.APIKey, cfg.OpenAI.Timeout)
	gateway := paymentgateway.NewClient(cfg.Webkassa.APIURL, cfg.Webkassa.APIKey, cfg.Webkassa.CashboxID)
	googleProvider := oauth.NewGoogleProvider(cfg.GoogleOAuth.ClientID, cfg.GoogleOAuth.ClientSecret, cfg.GoogleOAuth.RedirectURI)
	pool := workers.New(logger, analysisPoolSize)

	keyring := keyringservice.New(db, cfg.MasterEncryptionKey, logger)
	authService := authservice.New(db, keyring, maker, logger)
	analysisService := analysisservice.New(db, keyring, llmClient, pool, cfg.OpenAI.Timeout, logger)
	entryService := entryservice.New(db, keyring, analysisService, llmClient, llmClient, logger)
	planService := planservice.New(db, gateway, cfg.FrontendURL+"/payment/result", logger)
	analyticsService := analyticsservice.New(db, cacheRedis, logger)
	insightService := insightservice.New(db, keyring, llmClient, cacheRedis, logger)
	metricsService := metricsservice.New(db, logger)
	characteristicService := characteristicservice.New(db, keyring, llmClient, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, maker, googleProvider, &Services{
		Auth:           authService,
		Entry:          entryService,
		Plan:           planService,
		Analytics:      analyticsService,
		Insight:        insightService,
		Metrics:        metricsService,
		Characteristic: characteristicService,
		Cache:          cacheRedis,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		pool:   pool,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if poolErr := a.pool.Shutdown(timeoutCtx); poolErr != nil {
			a.logger.Error("worker pool shutdown failed", slog.Any("err", poolErr))
		}
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", slog.Any("err", closeErr))
		}
		return err
	}
}
