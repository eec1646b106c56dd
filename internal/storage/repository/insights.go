package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moodlog/moodlog-backend/internal/models"
)

const insightColumns = `uuid, user_uid, type, period_key, period_label,
		encrypted_content, start_date, end_date, created_at, updated_at`

func scanInsight(row interface{ Scan(...any) error }) (*models.Insight, error) {
	var ins models.Insight
	err := row.Scan(
		&ins.UUID,
		&ins.UserUID,
		&ins.Type,
		&ins.PeriodKey,
		&ins.PeriodLabel,
		&ins.EncryptedContent,
		&ins.StartDate,
		&ins.EndDate,
		&ins.CreatedAt,
		&ins.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ins, nil
}

// UpsertInsight сохраняет отчёт за период. Для пары (пользователь, тип, период)
// хранится ровно одна строка: повторная генерация обновляет содержимое.
func (s *Storage) UpsertInsight(ctx context.Context, ins *models.Insight) (*models.Insight, error) {
	const op = "storage.UpsertInsight"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `
        INSERT INTO insights (uuid, user_uid, type, period_key, period_label,
			encrypted_content, start_date, end_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (user_uid, type, period_key) DO UPDATE
			SET encrypted_content = EXCLUDED.encrypted_content,
				period_label = EXCLUDED.period_label,
				start_date = EXCLUDED.start_date,
				end_date = EXCLUDED.end_date,
				updated_at = now()
        RETURNING `+insightColumns,
		uuid.NewString(), ins.UserUID, ins.Type, ins.PeriodKey, ins.PeriodLabel,
		ins.EncryptedContent, ins.StartDate, ins.EndDate)

	saved, err := scanInsight(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// GetInsightByPeriod возвращает отчёт пользователя за конкретный период.
func (s *Storage) GetInsightByPeriod(ctx context.Context, userUID, insightType, periodKey string) (*models.Insight, error) {
	const op = "storage.GetInsightByPeriod"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `
        SELECT `+insightColumns+`
        FROM insights
        WHERE user_uid = $1 AND type = $2 AND period_key = $3`,
		userUID, insightType, periodKey)

	ins, err := scanInsight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ins, nil
}

// ReadInsight возвращает отчёт по идентификатору в рамках пользователя.
func (s *Storage) ReadInsight(ctx context.Context, userUID, insightUID string) (*models.Insight, error) {
	const op = "storage.ReadInsight"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, `
        SELECT `+insightColumns+`
        FROM insights
        WHERE uuid = $1 AND user_uid = $2`,
		insightUID, userUID)

	ins, err := scanInsight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ins, nil
}

// ListInsights возвращает страницу отчётов пользователя, новые сверху.
// Пустой insightType означает отчёты всех типов.
func (s *Storage) ListInsights(ctx context.Context, userUID, insightType string, limit, offset int) ([]*models.Insight, int, error) {
	const op = "storage.ListInsights"

	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total int
	err := s.DB.QueryRowContext(ctx, `
        SELECT COUNT(*)
        FROM insights
        WHERE user_uid = $1 AND ($2 = '' OR type = $2)`,
		userUID, insightType).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx, `
        SELECT `+insightColumns+`
        FROM insights
        WHERE user_uid = $1 AND ($2 = '' OR type = $2)
        ORDER BY start_date DESC
        LIMIT $3 OFFSET $4`,
		userUID, insightType, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var insights []*models.Insight
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		insights = append(insights, ins)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return insights, total, nil
}

// ListInsightPeriods возвращает ключи периодов, за которые у пользователя уже
// есть отчёты указанного типа начиная с указанной даты.
func (s *Storage) ListInsightPeriods(ctx context.Context, userUID, insightType string, since time.Time) ([]string, error) {
	const op = "storage.ListInsightPeriods"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `
        SELECT period_key
        FROM insights
        WHERE user_uid = $1 AND type = $2 AND start_date >= $3
        ORDER BY start_date`,
		userUID, insightType, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return keys, nil
}
