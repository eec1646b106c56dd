package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/moodlog/moodlog-backend/internal/models"
)

// GetEngagementMetrics считает сводку вовлечённости на текущий момент.
// Активность пользователя определяется по датам создания записей.
func (s *Storage) GetEngagementMetrics(ctx context.Context, now time.Time) (*models.EngagementMetrics, error) {
	const op = "storage.GetEngagementMetrics"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var m models.EngagementMetrics
	err := s.DB.QueryRowContext(ctx, `
        SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(DISTINCT user_uid) FROM entries WHERE created_at >= $1),
			(SELECT COUNT(DISTINCT user_uid) FROM entries WHERE created_at >= $2),
			(SELECT COUNT(DISTINCT user_uid) FROM entries WHERE created_at >= $3),
			(SELECT COUNT(*) FROM entries WHERE created_at >= $1)`,
		now.AddDate(0, 0, -1), now.AddDate(0, 0, -7), now.AddDate(0, 0, -30)).
		Scan(&m.TotalUsers, &m.DAU, &m.WAU, &m.MAU, &m.EntriesToday)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var entriesTotal int
	err = s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&entriesTotal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if m.TotalUsers > 0 {
		m.EntriesPerUser = entriesTotal / m.TotalUsers
	}
	return &m, nil
}

// GetEngagementHistory возвращает вовлечённость по дням за период.
func (s *Storage) GetEngagementHistory(ctx context.Context, from, to time.Time) ([]models.EngagementPoint, error) {
	const op = "storage.GetEngagementHistory"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `
        SELECT to_char(created_at::date, 'YYYY-MM-DD'),
			COUNT(DISTINCT user_uid),
			COUNT(*)
        FROM entries
        WHERE created_at >= $1 AND created_at < $2
        GROUP BY created_at::date
        ORDER BY created_at::date`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var points []models.EngagementPoint
	for rows.Next() {
		var p models.EngagementPoint
		if err := rows.Scan(&p.Date, &p.ActiveUsers, &p.Entries); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return points, nil
}

// GetMoodMetrics считает сводку настроения по всем пользователям.
func (s *Storage) GetMoodMetrics(ctx context.Context) (*models.MoodMetrics, error) {
	const op = "storage.GetMoodMetrics"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var m models.MoodMetrics
	var avg sql.NullFloat64
	err := s.DB.QueryRowContext(ctx, `
        SELECT COALESCE(AVG(mood_rating), 0),
			COUNT(*),
			COUNT(*) FILTER (WHERE ai_processed_at IS NOT NULL)
        FROM entries
        WHERE NOT is_draft`).
		Scan(&avg, &m.EntriesTotal, &m.EntriesWithAI)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m.AverageScore = avg.Float64
	if m.EntriesTotal > 0 {
		m.AnalyzedShare = float64(m.EntriesWithAI) / float64(m.EntriesTotal)
	}
	return &m, nil
}

// GetMoodHistory возвращает средний балл настроения всех пользователей по дням.
func (s *Storage) GetMoodHistory(ctx context.Context, from, to time.Time) ([]models.MoodPoint, error) {
	const op = "storage.GetMoodHistory"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `
        SELECT to_char(created_at::date, 'YYYY-MM-DD'),
			AVG(mood_rating),
			COUNT(*)
        FROM entries
        WHERE NOT is_draft AND mood_rating IS NOT NULL
			AND created_at >= $1 AND created_at < $2
        GROUP BY created_at::date
        ORDER BY created_at::date`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var points []models.MoodPoint
	for rows.Next() {
		var p models.MoodPoint
		if err := rows.Scan(&p.Date, &p.AverageScore, &p.EntryCount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return points, nil
}

// GetRevenueMetrics считает сводку выручки и распределение активных планов.
func (s *Storage) GetRevenueMetrics(ctx context.Context, monthStart time.Time) (*models.RevenueMetrics, error) {
	const op = "storage.GetRevenueMetrics"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var m models.RevenueMetrics
	var total, month sql.NullFloat64
	err := s.DB.QueryRowContext(ctx, `
        SELECT COALESCE(SUM(amount), 0),
			COALESCE(SUM(amount) FILTER (WHERE completed_at >= $2), 0),
			COUNT(*),
			COUNT(DISTINCT user_uid)
        FROM payments
        WHERE status = $1`,
		models.PaymentStatusCompleted, monthStart).
		Scan(&total, &month, &m.PaymentsTotal, &m.PayingUsers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m.TotalRevenue = total.Float64
	m.MonthRevenue = month.Float64

	rows, err := s.DB.QueryContext(ctx, `
        SELECT plan, COUNT(*)
        FROM users
        GROUP BY plan`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	m.ActivePlans = make(map[string]int)
	for rows.Next() {
		var plan string
		var count int
		if err := rows.Scan(&plan, &count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		m.ActivePlans[plan] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &m, nil
}

// GetRevenueHistory возвращает выручку по месяцам за период.
func (s *Storage) GetRevenueHistory(ctx context.Context, from, to time.Time) ([]models.RevenuePoint, error) {
	const op = "storage.GetRevenueHistory"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `
        SELECT to_char(date_trunc('month', completed_at), 'YYYY-MM'),
			SUM(amount),
			COUNT(*)
        FROM payments
        WHERE status = $1 AND completed_at >= $2 AND completed_at < $3
        GROUP BY date_trunc('month', completed_at)
        ORDER BY date_trunc('month', completed_at)`,
		models.PaymentStatusCompleted, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var points []models.RevenuePoint
	for rows.Next() {
		var p models.RevenuePoint
		if err := rows.Scan(&p.PeriodKey, &p.Revenue, &p.Payments); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return points, nil
}
