package insight

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moodlog/moodlog-backend/internal/lib/cryptoxor"
	"github.com/moodlog/moodlog-backend/internal/models"
)

const testDataKey = "0123456789abcdef0123456789abcdef"

type RepoMock struct{ mock.Mock }

func (m *RepoMock) UpsertInsight(ctx context.Context, ins *models.Insight) (*models.Insight, error) {
	args := m.Called(ctx, ins)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Insight), args.Error(1)
}
func (m *RepoMock) GetInsightByPeriod(ctx context.Context, userUID, insightType, periodKey string) (*models.Insight, error) {
	args := m.Called(ctx, userUID, insightType, periodKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Insight), args.Error(1)
}
func (m *RepoMock) ReadInsight(ctx context.Context, userUID, insightUID string) (*models.Insight, error) {
	args := m.Called(ctx, userUID, insightUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Insight), args.Error(1)
}
func (m *RepoMock) ListInsights(ctx context.Context, userUID, insightType string, limit, offset int) ([]*models.Insight, int, error) {
	args := m.Called(ctx, userUID, insightType, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Insight), args.Int(1), args.Error(2)
}
func (m *RepoMock) ListInsightPeriods(ctx context.Context, userUID, insightType string, since time.Time) ([]string, error) {
	args := m.Called(ctx, userUID, insightType, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *RepoMock) ListDiaryEntriesByDateRange(ctx context.Context, userUID string, from, to time.Time, includeDrafts bool) ([]*models.Entry, error) {
	args := m.Called(ctx, userUID, from, to, includeDrafts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Entry), args.Error(1)
}

type KeyringMock struct{ mock.Mock }

func (m *KeyringMock) DataKey(ctx context.Context, userUID string) (string, error) {
	args := m.Called(ctx, userUID)
	return args.String(0), args.Error(1)
}

type GeneratorMock struct{ mock.Mock }

func (m *GeneratorMock) GenerateReport(ctx context.Context, periodLabel, language, condensedEntries string) (string, error) {
	args := m.Called(ctx, periodLabel, language, condensedEntries)
	return args.String(0), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func entryAt(day time.Time, content string) *models.Entry {
	return &models.Entry{
		UUID:             "entry-" + day.Format("02"),
		UserUID:          "user-1",
		EncryptedContent: cryptoxor.Encrypt(content, testDataKey),
		CreatedAt:        day,
	}
}

func TestInsightService_Generate_Monthly(t *testing.T) {
	repo := new(RepoMock)
	keyring := new(KeyringMock)
	generator := new(GeneratorMock)
	cache := new(CacheMock)
	svc := New(repo, keyring, generator, cache, newNoopLogger())

	refTime := time.Date(2025, time.September, 15, 12, 0, 0, 0, time.UTC)
	entries := []*models.Entry{
		entryAt(time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC), "первая запись"),
		entryAt(time.Date(2025, time.September, 10, 9, 0, 0, 0, time.UTC), "вторая запись"),
	}

	repo.On("ListDiaryEntriesByDateRange", mock.Anything, "user-1",
		time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
		false).Return(entries, nil)
	keyring.On("DataKey", mock.Anything, "user-1").Return(testDataKey, nil)
	generator.On("GenerateReport", mock.Anything, "September 2025", "ru",
		mock.MatchedBy(func(condensed string) bool {
			return strings.Contains(condensed, "первая запись") &&
				strings.Contains(condensed, "вторая запись")
		})).Return(`{"overview":"отчёт"}`, nil)
	repo.On("UpsertInsight", mock.Anything, mock.MatchedBy(func(ins *models.Insight) bool {
		return ins.Type == models.InsightTypeMonthly && ins.PeriodKey == "2025-09"
	})).Return(&models.Insight{
		UUID:             "insight-1",
		UserUID:          "user-1",
		Type:             models.InsightTypeMonthly,
		PeriodKey:        "2025-09",
		PeriodLabel:      "September 2025",
		EncryptedContent: cryptoxor.Encrypt(`{"overview":"отчёт"}`, testDataKey),
	}, nil)
	cache.On("Invalidate", "insight:user-1:monthly:2025-09").Return(nil)

	dec, err := svc.Generate(context.Background(), "user-1", models.InsightTypeMonthly, refTime, "ru")
	require.NoError(t, err)
	assert.Equal(t, `{"overview":"отчёт"}`, dec.Content)
	assert.Equal(t, "2025-09", dec.PeriodKey)

	repo.AssertExpectations(t)
}

func TestInsightService_Generate_NoEntries(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, new(KeyringMock), new(GeneratorMock), new(CacheMock), newNoopLogger())

	repo.On("ListDiaryEntriesByDateRange", mock.Anything, "user-1",
		mock.Anything, mock.Anything, false).Return([]*models.Entry{}, nil)

	_, err := svc.Generate(context.Background(), "user-1", models.InsightTypeWeekly, time.Now(), "ru")
	assert.ErrorIs(t, err, ErrNoEntries)
}

func TestInsightService_Generate_UnknownType(t *testing.T) {
	svc := New(new(RepoMock), new(KeyringMock), new(GeneratorMock), new(CacheMock), newNoopLogger())

	_, err := svc.Generate(context.Background(), "user-1", "daily", time.Now(), "ru")
	assert.Error(t, err)
}

func TestInsightService_GetByPeriod_CacheHit(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New(repo, new(KeyringMock), new(GeneratorMock), cache, newNoopLogger())

	refTime := time.Date(2025, time.September, 15, 0, 0, 0, 0, time.UTC)
	cache.On("Get", "insight:user-1:monthly:2025-09", mock.Anything).
		Run(func(args mock.Arguments) {
			dec := args.Get(1).(*models.DecryptedInsight)
			dec.UUID = "insight-1"
			dec.Content = "из кеша"
		}).
		Return(true, nil)

	dec, err := svc.GetByPeriod(context.Background(), "user-1", models.InsightTypeMonthly, refTime)
	require.NoError(t, err)
	assert.Equal(t, "из кеша", dec.Content)

	repo.AssertNotCalled(t, "GetInsightByPeriod", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInsightService_GetByPeriod_NotFound(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New(repo, new(KeyringMock), new(GeneratorMock), cache, newNoopLogger())

	cache.On("Get", mock.Anything, mock.Anything).Return(false, nil)
	repo.On("GetInsightByPeriod", mock.Anything, "user-1", models.InsightTypeMonthly, "2025-09").
		Return(nil, nil)

	refTime := time.Date(2025, time.September, 15, 0, 0, 0, 0, time.UTC)
	_, err := svc.GetByPeriod(context.Background(), "user-1", models.InsightTypeMonthly, refTime)
	assert.ErrorIs(t, err, ErrInsightNotFound)
}

func TestInsightService_Periods(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, new(KeyringMock), new(GeneratorMock), new(CacheMock), newNoopLogger())

	since := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	repo.On("ListInsightPeriods", mock.Anything, "user-1", models.InsightTypeWeekly, since).
		Return([]string{"2025-W01", "2025-W03"}, nil)

	keys, err := svc.Periods(context.Background(), "user-1", models.InsightTypeWeekly, since)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-W01", "2025-W03"}, keys)
}

func TestCondenseEntries_Limits(t *testing.T) {
	long := strings.Repeat("я", 2000)
	var entries []*models.Entry
	for i := 0; i < 50; i++ {
		entries = append(entries, entryAt(
			time.Date(2025, time.September, 1, i%24, 0, 0, 0, time.UTC), long))
	}

	condensed, err := condenseEntries(entries, testDataKey, models.InsightTypeWeekly)
	require.NoError(t, err)

	blocks := strings.Count(condensed, "\n---\n")
	assert.Equal(t, 40, blocks, "недельный отчёт берёт не больше 40 записей")
	assert.NotContains(t, condensed, strings.Repeat("я", 1001),
		"каждая запись обрезана до лимита")
}

func TestCondenseEntries_PrefersSummary(t *testing.T) {
	day := time.Date(2025, time.September, 1, 12, 0, 0, 0, time.UTC)

	withSummary := entryAt(day, "полный длинный текст записи")
	withSummary.EncryptedSummary = cryptoxor.Encrypt("краткое резюме", testDataKey)
	withoutSummary := entryAt(day.Add(24*time.Hour), "запись без резюме")

	condensed, err := condenseEntries(
		[]*models.Entry{withSummary, withoutSummary}, testDataKey, models.InsightTypeWeekly)
	require.NoError(t, err)

	assert.Contains(t, condensed, "краткое резюме")
	assert.NotContains(t, condensed, "полный длинный текст записи")
	assert.Contains(t, condensed, "запись без резюме")
}

func TestResolvePeriod_Weekly(t *testing.T) {
	// 2 сентября 2025 это вторник ISO-недели 36.
	refTime := time.Date(2025, time.September, 2, 10, 0, 0, 0, time.UTC)

	key, label, start, end, err := resolvePeriod(models.InsightTypeWeekly, refTime)
	require.NoError(t, err)
	assert.Equal(t, "2025-W36", key)
	assert.Equal(t, "Week 36, 2025", label)
	assert.Equal(t, time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.September, 7, 0, 0, 0, 0, time.UTC), end)
}
