// Package characteristics собирает фоновое приложение генерации
// психологических портретов пользователей.
package characteristics

import (
	"context"
	"log/slog"
	"time"

	"github.com/moodlog/moodlog-backend/internal/config"
	"github.com/moodlog/moodlog-backend/internal/llm"
	characteristicservice "github.com/moodlog/moodlog-backend/internal/services/characteristic"
	keyringservice "github.com/moodlog/moodlog-backend/internal/services/keyring"
	"github.com/moodlog/moodlog-backend/internal/storage/repository"
)

// Интервал между полными проходами генерации портретов.
const generateInterval = 24 * time.Hour

// App представляет приложение генерации портретов.
type App struct {
	service *characteristicservice.CharacteristicService
	db      *repository.Storage
	logger  *slog.Logger
}

// New создает новый экземпляр приложения генерации портретов.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}

	keyring := keyringservice.New(db, cfg.MasterEncryptionKey, logger)
	llmClient := llm.New(cfg.OpenAI.APIKey, cfg.OpenAI.Timeout)
	service := characteristicservice.New(db, keyring, llmClient, logger)

	return &App{
		service: service,
		db:      db,
		logger:  logger,
	}, nil
}

// Run сразу выполняет полный проход генерации, затем повторяет его раз в сутки.
func (a *App) Run(ctx context.Context) error {
	ticker := time.NewTicker(generateInterval)
	defer ticker.Stop()

	a.generate(ctx)

	for {
		select {
		case <-ticker.C:
			a.generate(ctx)
		case <-ctx.Done():
			a.logger.Info("shutting down characteristics service")
			if err := a.db.DB.Close(); err != nil {
				a.logger.Error("failed to close database", slog.Any("err", err))
			}
			return nil
		}
	}
}

func (a *App) generate(ctx context.Context) {
	updated, err := a.service.GenerateAll(ctx)
	if err != nil {
		a.logger.Error("characteristics generation failed", slog.Any("err", err))
		return
	}
	a.logger.Info("characteristics generation finished", slog.Int("updated", updated))
}
