package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/moodlog/moodlog-backend/internal/models"
)

const characteristicColumns = `uuid, user_uid, profile_json, generated_at`

func scanCharacteristic(row interface{ Scan(...any) error }) (*models.UserCharacteristic, error) {
	var c models.UserCharacteristic
	err := row.Scan(
		&c.UUID,
		&c.UserUID,
		&c.EncryptedProfile,
		&c.GeneratedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertUserCharacteristic сохраняет профиль пользователя, перезаписывая
// предыдущий. У пользователя всегда не более одного профиля.
func (s *Storage) UpsertUserCharacteristic(ctx context.Context, userUID, encryptedProfile string) (*models.UserCharacteristic, error) {
	const op = "storage.UpsertUserCharacteristic"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `
        INSERT INTO user_characteristics (uuid, user_uid, profile_json)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_uid) DO UPDATE
        SET profile_json = EXCLUDED.profile_json, generated_at = now()
        RETURNING `+characteristicColumns,
		uuid.NewString(), userUID, encryptedProfile)

	saved, err := scanCharacteristic(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// GetUserCharacteristic возвращает профиль пользователя или nil, если
// профиль еще не построен.
func (s *Storage) GetUserCharacteristic(ctx context.Context, userUID string) (*models.UserCharacteristic, error) {
	const op = "storage.GetUserCharacteristic"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `
        SELECT `+characteristicColumns+`
        FROM user_characteristics
        WHERE user_uid = $1`, userUID)

	c, err := scanCharacteristic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}
