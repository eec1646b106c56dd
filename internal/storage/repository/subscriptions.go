package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moodlog/moodlog-backend/internal/models"
)

// AppendSubscription добавляет строку в журнал подписок. Журнал append-only:
// история активаций не перезаписывается.
func (s *Storage) AppendSubscription(ctx context.Context, userUID, plan, status string, startedAt, expiresAt time.Time) (*models.Subscription, error) {
	const op = "storage.AppendSubscription"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `
        INSERT INTO subscriptions (uuid, user_uid, plan, status, started_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING uuid, user_uid, plan, status, started_at, expires_at, cancelled_at, created_at`,
		uuid.NewString(), userUID, plan, status, startedAt, expiresAt)

	var sub models.Subscription
	err := row.Scan(
		&sub.UUID,
		&sub.UserUID,
		&sub.Plan,
		&sub.Status,
		&sub.StartedAt,
		&sub.ExpiresAt,
		&sub.CancelledAt,
		&sub.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// ListSubscriptions возвращает историю подписок пользователя, новые сверху.
func (s *Storage) ListSubscriptions(ctx context.Context, userUID string) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `
        SELECT uuid, user_uid, plan, status, started_at, expires_at, cancelled_at, created_at
        FROM subscriptions
        WHERE user_uid = $1
        ORDER BY started_at DESC`,
		userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var subs []*models.Subscription
	for rows.Next() {
		var sub models.Subscription
		err := rows.Scan(
			&sub.UUID,
			&sub.UserUID,
			&sub.Plan,
			&sub.Status,
			&sub.StartedAt,
			&sub.ExpiresAt,
			&sub.CancelledAt,
			&sub.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}
