// Package keyring управляет персональными ключами шифрования записей.
// Контент дневника шифруется ключом данных пользователя, а сам ключ
// хранится в базе завёрнутым мастер-ключом приложения.
package keyring

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/moodlog/moodlog-backend/internal/lib/cryptoxor"
	"github.com/moodlog/moodlog-backend/internal/models"
)

// KeyRepository определяет методы хранения завёрнутых ключей.
type KeyRepository interface {
	CreateEncryptionKey(ctx context.Context, userUID, wrappedKey string) error
	GetEncryptionKey(ctx context.Context, userUID string) (*models.EncryptionKey, error)
}

// KeyringService выдаёт и разворачивает ключи данных пользователей.
type KeyringService struct {
	repo      KeyRepository
	masterKey string
	log       *slog.Logger
}

// New создает новый экземпляр KeyringService.
func New(repo KeyRepository, masterKey string, log *slog.Logger) *KeyringService {
	return &KeyringService{
		repo:      repo,
		masterKey: masterKey,
		log:       log,
	}
}

// CreateKey генерирует ключ данных для нового пользователя и сохраняет
// его завёрнутым мастер-ключом. Возвращает ключ в открытом виде.
func (s *KeyringService) CreateKey(ctx context.Context, userUID string) (string, error) {
	const op = "keyring.CreateKey"

	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	dataKey := hex.EncodeToString(raw)

	wrapped := cryptoxor.Encrypt(dataKey, s.masterKey)
	if err := s.repo.CreateEncryptionKey(ctx, userUID, wrapped); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created encryption key", slog.String("user_uid", userUID))
	return dataKey, nil
}

// DataKey возвращает развёрнутый ключ данных пользователя.
func (s *KeyringService) DataKey(ctx context.Context, userUID string) (string, error) {
	const op = "keyring.DataKey"

	key, err := s.repo.GetEncryptionKey(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if key == nil {
		return "", fmt.Errorf("%s: encryption key not found", op)
	}

	dataKey, err := cryptoxor.Decrypt(key.WrappedKey, s.masterKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return dataKey, nil
}
