// Package analytics строит агрегаты настроения по записям дневника:
// динамику по дням, топ тем, лучшие и худшие дни и сравнение месяцев.
// Оценки настроения и темы хранятся в открытом виде, поэтому агрегаты
// считаются без расшифровки содержимого записей.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/models"
)

const (
	topThemesLimit    = 5
	analyticsCacheTTL = 10 * time.Minute
)

// AnalyticsRepository определяет выборку записей для агрегатов.
type AnalyticsRepository interface {
	ListDiaryEntriesByDateRange(ctx context.Context, userUID string,
		from, to time.Time, includeDrafts bool) ([]*models.Entry, error)
}

// Cache определяет операции кэша агрегатов.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// AnalyticsService считает агрегаты настроения пользователя.
type AnalyticsService struct {
	repo  AnalyticsRepository
	cache Cache
	log   *slog.Logger
}

// New создает сервис аналитики.
func New(repo AnalyticsRepository, cache Cache, log *slog.Logger) *AnalyticsService {
	return &AnalyticsService{repo: repo, cache: cache, log: log}
}

// MoodTrend возвращает средние оценки настроения по дням интервала
// [from, to). tzOffsetMinutes сдвигает границы суток в часовой пояс
// пользователя.
func (s *AnalyticsService) MoodTrend(ctx context.Context, userUID string,
	from, to time.Time, tzOffsetMinutes int) (*models.MoodTrend, error) {
	const op = "analytics.MoodTrend"

	cacheKey := fmt.Sprintf("analytics:trend:%s:%s:%s:%d",
		userUID, from.Format("2006-01-02"), to.Format("2006-01-02"), tzOffsetMinutes)
	var cached models.MoodTrend
	if found, err := s.cache.Get(cacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	entries, err := s.analyzedEntries(ctx, userUID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	days := groupByDay(entries, tzOffsetMinutes)
	points := make([]models.MoodTrendPoint, 0, len(days))
	var sum float64
	var count int
	for _, d := range days {
		points = append(points, models.MoodTrendPoint{
			Date:         d.date,
			AverageScore: d.average(),
			EntryCount:   len(d.scores),
		})
		for _, score := range d.scores {
			sum += score
		}
		count += len(d.scores)
	}

	trend := &models.MoodTrend{
		Points:     points,
		EntryCount: count,
	}
	if count > 0 {
		trend.AverageScore = round2(sum / float64(count))
	}

	s.cacheSet(cacheKey, trend)
	return trend, nil
}

// TopThemes возвращает до пяти самых частых тем интервала с долей
// от всех упоминаний.
func (s *AnalyticsService) TopThemes(ctx context.Context, userUID string,
	from, to time.Time) ([]models.ThemeStat, error) {
	const op = "analytics.TopThemes"

	cacheKey := fmt.Sprintf("analytics:themes:%s:%s:%s",
		userUID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []models.ThemeStat
	if found, err := s.cache.Get(cacheKey, &cached); err == nil && found {
		return cached, nil
	}

	entries, err := s.repo.ListDiaryEntriesByDateRange(ctx, userUID, from, to, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	counts := make(map[string]int)
	total := 0
	for _, e := range entries {
		for _, tag := range e.Tags {
			counts[tag]++
			total++
		}
	}

	stats := make([]models.ThemeStat, 0, len(counts))
	for theme, count := range counts {
		stats = append(stats, models.ThemeStat{
			Theme:      theme,
			Count:      count,
			Percentage: round1(float64(count) / float64(total) * 100),
		})
	}
	// При равной частоте темы упорядочены по алфавиту для стабильного ответа.
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Theme < stats[j].Theme
	})
	if len(stats) > topThemesLimit {
		stats = stats[:topThemesLimit]
	}

	s.cacheSet(cacheKey, stats)
	return stats, nil
}

// BestWorstDays возвращает дни интервала с максимальным и минимальным
// средним настроением. Оба поля nil, когда проанализированных записей нет.
func (s *AnalyticsService) BestWorstDays(ctx context.Context, userUID string,
	from, to time.Time, tzOffsetMinutes int) (*models.BestWorstDays, error) {
	const op = "analytics.BestWorstDays"

	entries, err := s.analyzedEntries(ctx, userUID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	days := groupByDay(entries, tzOffsetMinutes)
	if len(days) == 0 {
		return &models.BestWorstDays{}, nil
	}

	best, worst := days[0], days[0]
	for _, d := range days[1:] {
		if d.average() > best.average() {
			best = d
		}
		if d.average() < worst.average() {
			worst = d
		}
	}

	return &models.BestWorstDays{
		Best:  dayStat(best),
		Worst: dayStat(worst),
	}, nil
}

// MonthCompare сравнивает настроение запрошенного месяца с предыдущим.
// Границы месяцев берутся в часовом поясе пользователя.
func (s *AnalyticsService) MonthCompare(ctx context.Context, userUID string,
	year int, month time.Month, tzOffsetMinutes int) (*models.MonthComparison, error) {
	const op = "analytics.MonthCompare"

	loc := time.FixedZone("user", tzOffsetMinutes*60)
	curStart := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	curEnd := curStart.AddDate(0, 1, 0)
	prevStart := curStart.AddDate(0, -1, 0)

	current, err := s.monthSummary(ctx, userUID, curStart, curEnd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	previous, err := s.monthSummary(ctx, userUID, prevStart, curStart)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.MonthComparison{
		Current:  current,
		Previous: previous,
		Delta:    round2(current.AverageScore - previous.AverageScore),
	}, nil
}

func (s *AnalyticsService) monthSummary(ctx context.Context, userUID string,
	from, to time.Time) (models.MonthSummary, error) {
	summary := models.MonthSummary{PeriodKey: from.Format("2006-01")}

	entries, err := s.analyzedEntries(ctx, userUID, from, to)
	if err != nil {
		return summary, err
	}

	var sum float64
	for _, e := range entries {
		sum += *e.MoodRating
	}
	summary.EntryCount = len(entries)
	if len(entries) > 0 {
		summary.AverageScore = round2(sum / float64(len(entries)))
	}
	return summary, nil
}

// analyzedEntries возвращает нечерновые записи интервала, уже прошедшие
// AI-анализ.
func (s *AnalyticsService) analyzedEntries(ctx context.Context, userUID string,
	from, to time.Time) ([]*models.Entry, error) {
	entries, err := s.repo.ListDiaryEntriesByDateRange(ctx, userUID, from, to, false)
	if err != nil {
		return nil, err
	}

	analyzed := entries[:0]
	for _, e := range entries {
		if e.MoodRating != nil {
			analyzed = append(analyzed, e)
		}
	}
	return analyzed, nil
}

func (s *AnalyticsService) cacheSet(key string, value any) {
	if err := s.cache.Set(key, value, analyticsCacheTTL); err != nil {
		s.log.Warn("failed to cache analytics", slog.String("key", key), sl.Err(err))
	}
}

type dayBucket struct {
	date   string
	scores []float64
}

func (d dayBucket) average() float64 {
	var sum float64
	for _, score := range d.scores {
		sum += score
	}
	return round2(sum / float64(len(d.scores)))
}

// groupByDay раскладывает записи по календарным дням в часовом поясе
// пользователя. Дни возвращаются по возрастанию даты.
func groupByDay(entries []*models.Entry, tzOffsetMinutes int) []dayBucket {
	loc := time.FixedZone("user", tzOffsetMinutes*60)
	byDate := make(map[string]*dayBucket)
	for _, e := range entries {
		date := e.CreatedAt.In(loc).Format("2006-01-02")
		bucket, ok := byDate[date]
		if !ok {
			bucket = &dayBucket{date: date}
			byDate[date] = bucket
		}
		bucket.scores = append(bucket.scores, *e.MoodRating)
	}

	days := make([]dayBucket, 0, len(byDate))
	for _, bucket := range byDate {
		days = append(days, *bucket)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].date < days[j].date })
	return days
}

func dayStat(d dayBucket) *models.DayStat {
	return &models.DayStat{
		Date:         d.date,
		AverageScore: d.average(),
		EntryCount:   len(d.scores),
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
