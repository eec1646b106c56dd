package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moodlog/moodlog-backend/internal/models"
)

const userColumns = `uuid, email, password_hash, google_id, plan, plan_started_at,
		plan_expires_at, trial_used, subscription_status, is_admin, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.UUID, &u.Email, &u.PasswordHash, &u.GoogleID, &u.Plan,
		&u.PlanStartedAt, &u.PlanExpiresAt, &u.TrialUsed, &u.SubscriptionStatus,
		&u.IsAdmin, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// RegisterUser сохраняет нового пользователя и возвращает его UUID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	newUID := uuid.NewString()
	query := `INSERT INTO users (uuid, email, password_hash, google_id, plan,
				  trial_used, subscription_status, is_admin)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING uuid`
	var result string
	err := s.DB.QueryRowContext(ctx, query, newUID, user.Email, user.PasswordHash,
		user.GoogleID, user.Plan, user.TrialUsed, user.SubscriptionStatus, user.IsAdmin).Scan(&result)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetUserByEmail возвращает пользователя по электронной почте.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// GetUserByUID возвращает пользователя по UUID.
func (s *Storage) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUserByUID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE uuid = $1`
	user, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// GetUserByGoogleID возвращает пользователя по идентификатору Google-аккаунта.
func (s *Storage) GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	const op = "storage.GetUserByGoogleID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	user, err := scanUser(s.DB.QueryRowContext(ctx, query, googleID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// UpdateUserPlan переводит пользователя на новый план и обновляет статус подписки.
func (s *Storage) UpdateUserPlan(ctx context.Context, userUID, plan string,
	startedAt, expiresAt time.Time, trialUsed bool, status string) error {
	const op = "storage.UpdateUserPlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET plan = $1, plan_started_at = $2, plan_expires_at = $3,
			      trial_used = $4, subscription_status = $5
			  WHERE uuid = $6`
	_, err := s.DB.ExecContext(ctx, query, plan, startedAt, expiresAt, trialUsed, status, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LinkGoogleID привязывает аккаунт Google к существующему пользователю.
func (s *Storage) LinkGoogleID(ctx context.Context, userUID, googleID string) error {
	const op = "storage.LinkGoogleID"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET google_id = $1 WHERE uuid = $2`
	_, err := s.DB.ExecContext(ctx, query, googleID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListUserUIDs возвращает идентификаторы всех пользователей (для офлайн-скриптов).
func (s *Storage) ListUserUIDs(ctx context.Context) ([]string, error) {
	const op = "storage.ListUserUIDs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT uuid FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindUsersWithPlanExpiringOn возвращает пользователей, у которых платный план
// истекает в указанный день. Используется планировщиком уведомлений.
func (s *Storage) FindUsersWithPlanExpiringOn(ctx context.Context, day time.Time, plans []string) ([]*models.User, error) {
	const op = "storage.FindUsersWithPlanExpiringOn"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE plan = ANY($1)
			    AND subscription_status = 'active'
			    AND plan_expires_at >= $2
			    AND plan_expires_at < $3`
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := s.DB.QueryContext(ctx, query, plans, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
