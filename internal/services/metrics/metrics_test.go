package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moodlog/moodlog-backend/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetEngagementMetrics(ctx context.Context, now time.Time) (*models.EngagementMetrics, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EngagementMetrics), args.Error(1)
}
func (m *RepoMock) GetEngagementHistory(ctx context.Context, from, to time.Time) ([]models.EngagementPoint, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EngagementPoint), args.Error(1)
}
func (m *RepoMock) GetMoodMetrics(ctx context.Context) (*models.MoodMetrics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MoodMetrics), args.Error(1)
}
func (m *RepoMock) GetMoodHistory(ctx context.Context, from, to time.Time) ([]models.MoodPoint, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MoodPoint), args.Error(1)
}
func (m *RepoMock) GetRevenueMetrics(ctx context.Context, monthStart time.Time) (*models.RevenueMetrics, error) {
	args := m.Called(ctx, monthStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RevenueMetrics), args.Error(1)
}
func (m *RepoMock) GetRevenueHistory(ctx context.Context, from, to time.Time) ([]models.RevenuePoint, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RevenuePoint), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newFrozenService(repo *RepoMock, now time.Time) *MetricsService {
	svc := New(repo, newNoopLogger())
	svc.now = func() time.Time { return now }
	return svc
}

func TestMetricsService_Engagement(t *testing.T) {
	repo := new(RepoMock)
	now := time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
	svc := newFrozenService(repo, now)

	current := &models.EngagementMetrics{TotalUsers: 100, DAU: 12, WAU: 40, MAU: 70}
	repo.On("GetEngagementMetrics", mock.Anything, now).Return(current, nil)
	repo.On("GetEngagementHistory", mock.Anything, now.AddDate(0, 0, -30), now).
		Return([]models.EngagementPoint{{Date: "2025-09-14", ActiveUsers: 11}}, nil)

	report, err := svc.Engagement(context.Background())

	require.NoError(t, err)
	assert.Equal(t, current, report.Current)
	require.Len(t, report.History, 1)
	assert.Equal(t, 11, report.History[0].ActiveUsers)
}

func TestMetricsService_Revenue(t *testing.T) {
	t.Run("история запрашивается с начала месяца год назад", func(t *testing.T) {
		repo := new(RepoMock)
		now := time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
		svc := newFrozenService(repo, now)

		monthStart := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
		historyStart := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
		repo.On("GetRevenueMetrics", mock.Anything, monthStart).
			Return(&models.RevenueMetrics{TotalRevenue: 150000, MonthRevenue: 25000}, nil)
		repo.On("GetRevenueHistory", mock.Anything, historyStart, now).
			Return([]models.RevenuePoint{{PeriodKey: "2025-08", Revenue: 23000}}, nil)

		report, err := svc.Revenue(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 150000.0, report.Current.TotalRevenue)
		repo.AssertExpectations(t)
	})

	t.Run("ошибка хранилища пробрасывается", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newFrozenService(repo, time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC))

		repo.On("GetRevenueMetrics", mock.Anything, mock.Anything).
			Return(nil, errors.New("connection refused"))

		_, err := svc.Revenue(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "metrics.Revenue")
	})
}

func TestMetricsService_Mood(t *testing.T) {
	repo := new(RepoMock)
	now := time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
	svc := newFrozenService(repo, now)

	repo.On("GetMoodMetrics", mock.Anything).
		Return(&models.MoodMetrics{AverageScore: 0.4, AnalyzedShare: 0.9}, nil)
	repo.On("GetMoodHistory", mock.Anything, now.AddDate(0, 0, -30), now).
		Return([]models.MoodPoint{}, nil)

	report, err := svc.Mood(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0.4, report.Current.AverageScore)
}
