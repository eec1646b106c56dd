// Package metrics собирает сводки для административной панели:
// вовлечённость пользователей, распределение настроения и выручку.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moodlog/moodlog-backend/internal/models"
)

const (
	engagementHistoryDays = 30
	moodHistoryDays       = 30
	revenueHistoryMonths  = 12
)

// MetricsRepository определяет выборки агрегатов из хранилища.
type MetricsRepository interface {
	GetEngagementMetrics(ctx context.Context, now time.Time) (*models.EngagementMetrics, error)
	GetEngagementHistory(ctx context.Context, from, to time.Time) ([]models.EngagementPoint, error)
	GetMoodMetrics(ctx context.Context) (*models.MoodMetrics, error)
	GetMoodHistory(ctx context.Context, from, to time.Time) ([]models.MoodPoint, error)
	GetRevenueMetrics(ctx context.Context, monthStart time.Time) (*models.RevenueMetrics, error)
	GetRevenueHistory(ctx context.Context, from, to time.Time) ([]models.RevenuePoint, error)
}

// MetricsService отдает сводки административной панели.
type MetricsService struct {
	repo MetricsRepository
	now  func() time.Time
	log  *slog.Logger
}

// New создает сервис метрик.
func New(repo MetricsRepository, log *slog.Logger) *MetricsService {
	return &MetricsService{repo: repo, now: time.Now, log: log}
}

// EngagementReport содержит текущую вовлечённость и историю по дням.
type EngagementReport struct {
	Current *models.EngagementMetrics `json:"current"`
	History []models.EngagementPoint  `json:"history"`
}

// MoodReport содержит текущее распределение настроения и историю по дням.
type MoodReport struct {
	Current *models.MoodMetrics `json:"current"`
	History []models.MoodPoint  `json:"history"`
}

// RevenueReport содержит текущую выручку и историю по месяцам.
type RevenueReport struct {
	Current *models.RevenueMetrics `json:"current"`
	History []models.RevenuePoint  `json:"history"`
}

// Engagement возвращает вовлечённость с историей за последние 30 дней.
func (s *MetricsService) Engagement(ctx context.Context) (*EngagementReport, error) {
	const op = "metrics.Engagement"

	now := s.now().UTC()
	current, err := s.repo.GetEngagementMetrics(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	history, err := s.repo.GetEngagementHistory(ctx, now.AddDate(0, 0, -engagementHistoryDays), now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &EngagementReport{Current: current, History: history}, nil
}

// Mood возвращает распределение настроения с историей за последние 30 дней.
func (s *MetricsService) Mood(ctx context.Context) (*MoodReport, error) {
	const op = "metrics.Mood"

	current, err := s.repo.GetMoodMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	history, err := s.repo.GetMoodHistory(ctx, now.AddDate(0, 0, -moodHistoryDays), now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &MoodReport{Current: current, History: history}, nil
}

// Revenue возвращает выручку с историей за последние 12 месяцев.
func (s *MetricsService) Revenue(ctx context.Context) (*RevenueReport, error) {
	const op = "metrics.Revenue"

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	current, err := s.repo.GetRevenueMetrics(ctx, monthStart)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	history, err := s.repo.GetRevenueHistory(ctx, monthStart.AddDate(0, -revenueHistoryMonths+1, 0), now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RevenueReport{Current: current, History: history}, nil
}
