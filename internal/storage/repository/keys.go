package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/moodlog/moodlog-backend/internal/models"
)

// CreateEncryptionKey сохраняет завернутый ключ данных пользователя.
// На пользователя допускается ровно одна строка.
func (s *Storage) CreateEncryptionKey(ctx context.Context, userUID, wrappedKey string) error {
	const op = "storage.CreateEncryptionKey"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO encryption_keys (uuid, user_uid, wrapped_key)
			  VALUES ($1, $2, $3)`
	_, err := s.DB.ExecContext(ctx, query, uuid.NewString(), userUID, wrappedKey)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetEncryptionKey возвращает завернутый ключ данных пользователя.
func (s *Storage) GetEncryptionKey(ctx context.Context, userUID string) (*models.EncryptionKey, error) {
	const op = "storage.GetEncryptionKey"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uuid, user_uid, wrapped_key, created_at
			  FROM encryption_keys WHERE user_uid = $1`
	var key models.EncryptionKey
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(
		&key.UUID, &key.UserUID, &key.WrappedKey, &key.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &key, nil
}
