// Package insight строит AI-отчёты о настроении за месяц и ISO-неделю.
// Отчёт генерируется по нечерновым записям периода, шифруется ключом
// данных пользователя и хранится в одном экземпляре на период.
package insight

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/moodlog/moodlog-backend/internal/lib/cryptoxor"
	"github.com/moodlog/moodlog-backend/internal/lib/period"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/models"
)

// ErrNoEntries возвращается, когда в периоде нет нечерновых записей.
var ErrNoEntries = errors.New("no entries in period")

// ErrInsightNotFound возвращается, когда отчёт не найден.
var ErrInsightNotFound = errors.New("insight not found")

// Лимиты сжатия записей перед отправкой в LLM.
const (
	monthlyMaxEntries = 60
	monthlyMaxChars   = 1500
	weeklyMaxEntries  = 40
	weeklyMaxChars    = 1000
	insightCacheTTL   = 30 * time.Minute
)

// InsightRepository определяет методы хранения отчётов и выборки записей.
type InsightRepository interface {
	UpsertInsight(ctx context.Context, ins *models.Insight) (*models.Insight, error)
	GetInsightByPeriod(ctx context.Context, userUID, insightType, periodKey string) (*models.Insight, error)
	ReadInsight(ctx context.Context, userUID, insightUID string) (*models.Insight, error)
	ListInsights(ctx context.Context, userUID, insightType string, limit, offset int) ([]*models.Insight, int, error)
	ListInsightPeriods(ctx context.Context, userUID, insightType string, since time.Time) ([]string, error)
	ListDiaryEntriesByDateRange(ctx context.Context, userUID string, from, to time.Time, includeDrafts bool) ([]*models.Entry, error)
}

// Keyring выдаёт ключ данных пользователя.
type Keyring interface {
	DataKey(ctx context.Context, userUID string) (string, error)
}

// ReportGenerator строит JSON-отчёт по сжатым записям.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, periodLabel, language, condensedEntries string) (string, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// InsightService реализует генерацию и выдачу отчётов.
type InsightService struct {
	repo      InsightRepository
	keyring   Keyring
	generator ReportGenerator
	cache     Cache
	log       *slog.Logger
}

// New создает новый экземпляр InsightService.
func New(repo InsightRepository, keyring Keyring, generator ReportGenerator, cache Cache, log *slog.Logger) *InsightService {
	return &InsightService{
		repo:      repo,
		keyring:   keyring,
		generator: generator,
		cache:     cache,
		log:       log,
	}
}

// Generate строит отчёт за период, в который попадает refTime, и
// сохраняет его. Повторный вызов за тот же период обновляет отчёт.
func (s *InsightService) Generate(ctx context.Context, userUID, insightType string, refTime time.Time, language string) (*models.DecryptedInsight, error) {
	const op = "insight.Generate"

	key, label, start, end, err := resolvePeriod(insightType, refTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	from, to := period.DayBounds(start, end)
	entries, err := s.repo.ListDiaryEntriesByDateRange(ctx, userUID, from, to, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	dataKey, err := s.keyring.DataKey(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	condensed, err := condenseEntries(entries, dataKey, insightType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	report, err := s.generator.GenerateReport(ctx, label, language, condensed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := s.repo.UpsertInsight(ctx, &models.Insight{
		UserUID:          userUID,
		Type:             insightType,
		PeriodKey:        key,
		PeriodLabel:      label,
		EncryptedContent: cryptoxor.Encrypt(report, dataKey),
		StartDate:        start,
		EndDate:          end,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheKey := fmt.Sprintf("insight:%s:%s:%s", userUID, insightType, key)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate insight cache", slog.String("key", cacheKey), sl.Err(err))
	}

	s.log.Info("generated insight",
		slog.String("user_uid", userUID),
		slog.String("type", insightType),
		slog.String("period_key", key))

	return decryptInsight(saved, dataKey)
}

// GetByPeriod возвращает отчёт за период, в который попадает refTime.
func (s *InsightService) GetByPeriod(ctx context.Context, userUID, insightType string, refTime time.Time) (*models.DecryptedInsight, error) {
	const op = "insight.GetByPeriod"

	key, _, _, _, err := resolvePeriod(insightType, refTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheKey := fmt.Sprintf("insight:%s:%s:%s", userUID, insightType, key)
	var cached models.DecryptedInsight
	if found, err := s.cache.Get(cacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	ins, err := s.repo.GetInsightByPeriod(ctx, userUID, insightType, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ins == nil {
		return nil, ErrInsightNotFound
	}

	dataKey, err := s.keyring.DataKey(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dec, err := decryptInsight(ins, dataKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(cacheKey, dec, insightCacheTTL); err != nil {
		s.log.Warn("failed to cache insight", slog.String("key", cacheKey), sl.Err(err))
	}
	return dec, nil
}

// Read возвращает отчёт по идентификатору.
func (s *InsightService) Read(ctx context.Context, userUID, insightUID string) (*models.DecryptedInsight, error) {
	const op = "insight.Read"

	ins, err := s.repo.ReadInsight(ctx, userUID, insightUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInsightNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ins == nil {
		return nil, ErrInsightNotFound
	}

	dataKey, err := s.keyring.DataKey(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return decryptInsight(ins, dataKey)
}

// List возвращает страницу отчётов, опционально отфильтрованную по типу.
func (s *InsightService) List(ctx context.Context, userUID, insightType string, page, perPage int) (*models.InsightPage, error) {
	const op = "insight.List"

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 50 {
		perPage = 10
	}

	insights, total, err := s.repo.ListInsights(ctx, userUID, insightType, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dataKey, err := s.keyring.DataKey(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	decrypted := make([]*models.DecryptedInsight, 0, len(insights))
	for _, ins := range insights {
		dec, err := decryptInsight(ins, dataKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		decrypted = append(decrypted, dec)
	}

	totalPages := (total + perPage - 1) / perPage
	return &models.InsightPage{
		Insights:   decrypted,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

// Periods возвращает ключи периодов указанного типа, за которые у
// пользователя уже есть отчёты, начиная с указанной даты.
func (s *InsightService) Periods(ctx context.Context, userUID, insightType string, since time.Time) ([]string, error) {
	const op = "insight.Periods"

	keys, err := s.repo.ListInsightPeriods(ctx, userUID, insightType, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return keys, nil
}

func resolvePeriod(insightType string, refTime time.Time) (key, label string, start, end time.Time, err error) {
	switch insightType {
	case models.InsightTypeMonthly:
		year, month := refTime.Year(), refTime.Month()
		start, end = period.MonthRange(year, month)
		return period.MonthKey(year, month), period.MonthLabel(year, month), start, end, nil
	case models.InsightTypeWeekly:
		isoYear, isoWeek := refTime.ISOWeek()
		start, end = period.WeekRange(isoYear, isoWeek)
		return period.WeekKey(isoYear, isoWeek), period.WeekLabel(isoYear, isoWeek), start, end, nil
	default:
		return "", "", time.Time{}, time.Time{}, fmt.Errorf("unknown insight type: %s", insightType)
	}
}

// condenseEntries сжимает записи периода в текст для LLM: ограничивает
// количество записей и длину каждой, чтобы уложиться в контекст модели.
func condenseEntries(entries []*models.Entry, dataKey, insightType string) (string, error) {
	maxEntries, maxChars := monthlyMaxEntries, monthlyMaxChars
	if insightType == models.InsightTypeWeekly {
		maxEntries, maxChars = weeklyMaxEntries, weeklyMaxChars
	}
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}

	var sb strings.Builder
	for _, entry := range entries {
		// Резюме от фонового анализа компактнее полного текста.
		source := entry.EncryptedSummary
		if source == "" {
			source = entry.EncryptedContent
		}
		content, err := cryptoxor.Decrypt(source, dataKey)
		if err != nil {
			return "", err
		}
		runes := []rune(content)
		if len(runes) > maxChars {
			content = string(runes[:maxChars])
		}

		sb.WriteString(entry.CreatedAt.Format("2006-01-02"))
		if entry.MoodRating != nil {
			sb.WriteString(fmt.Sprintf(" (mood %.1f)", *entry.MoodRating))
		}
		sb.WriteString(": ")
		sb.WriteString(content)
		sb.WriteString("\n---\n")
	}
	return sb.String(), nil
}

func decryptInsight(ins *models.Insight, dataKey string) (*models.DecryptedInsight, error) {
	content, err := cryptoxor.Decrypt(ins.EncryptedContent, dataKey)
	if err != nil {
		return nil, err
	}
	return &models.DecryptedInsight{
		UUID:        ins.UUID,
		Type:        ins.Type,
		PeriodKey:   ins.PeriodKey,
		PeriodLabel: ins.PeriodLabel,
		Content:     content,
		StartDate:   ins.StartDate,
		EndDate:     ins.EndDate,
		CreatedAt:   ins.CreatedAt,
		UpdatedAt:   ins.UpdatedAt,
	}, nil
}
