// Package analysis выполняет фоновый AI-анализ записей: оценку настроения,
// извлечение тем и резюме для длинных текстов. Анализ идёт после ответа
// клиенту, в отдельном контексте с собственным таймаутом. Любая ошибка
// пайплайна логируется, запись при этом остаётся без результатов анализа.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moodlog/moodlog-backend/internal/lib/cryptoxor"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/llm"
	"github.com/moodlog/moodlog-backend/internal/workers"
)

// AnalysisRepository сохраняет результаты анализа.
type AnalysisRepository interface {
	SaveAnalysisResult(ctx context.Context, entryUID string, moodRating float64, tags []string, encryptedSummary string) error
}

// Keyring выдаёт ключ данных пользователя.
type Keyring interface {
	DataKey(ctx context.Context, userUID string) (string, error)
}

// LLM определяет шаги AI-пайплайна.
type LLM interface {
	AnalyzeSentiment(ctx context.Context, text string) (float64, error)
	ExtractThemes(ctx context.Context, text string) ([]string, error)
	Summarize(ctx context.Context, text string) (string, error)
}

// Pool выполняет задачи в фоне.
type Pool interface {
	Submit(task workers.Task) bool
}

// AnalysisService управляет пайплайном анализа записей.
type AnalysisService struct {
	repo    AnalysisRepository
	keyring Keyring
	llm     LLM
	pool    Pool
	timeout time.Duration
	log     *slog.Logger
}

// New создает новый экземпляр AnalysisService.
func New(repo AnalysisRepository, keyring Keyring, llm LLM, pool Pool, timeout time.Duration, log *slog.Logger) *AnalysisService {
	return &AnalysisService{
		repo:    repo,
		keyring: keyring,
		llm:     llm,
		pool:    pool,
		timeout: timeout,
		log:     log,
	}
}

// Enqueue ставит запись в очередь анализа. Возвращает false, если пул
// уже остановлен.
func (s *AnalysisService) Enqueue(userUID, entryUID, title, content string, tags []string) bool {
	return s.pool.Submit(func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		if err := s.analyze(ctx, userUID, entryUID, title, content, tags); err != nil {
			s.log.Error("entry analysis failed",
				slog.String("entry_uid", entryUID), sl.Err(err))
		}
	})
}

func (s *AnalysisService) analyze(ctx context.Context, userUID, entryUID, title, content string, tags []string) error {
	const op = "analysis.analyze"

	text := content
	if title != "" {
		text = title + "\n" + content
	}

	score, err := s.llm.AnalyzeSentiment(ctx, text)
	if err != nil {
		s.log.Warn("sentiment analysis failed, using neutral score",
			slog.String("entry_uid", entryUID), sl.Err(err))
		score = 0.0
	}

	themes, err := s.llm.ExtractThemes(ctx, text)
	if err != nil {
		s.log.Warn("theme extraction failed",
			slog.String("entry_uid", entryUID), sl.Err(err))
		themes = nil
	}

	encryptedSummary := ""
	if llm.NeedsSummary(content) {
		summary, err := s.llm.Summarize(ctx, content)
		if err != nil {
			s.log.Warn("summarization failed",
				slog.String("entry_uid", entryUID), sl.Err(err))
		} else if summary != "" {
			dataKey, err := s.keyring.DataKey(ctx, userUID)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			encryptedSummary = cryptoxor.Encrypt(summary, dataKey)
		}
	}

	merged := mergeTags(tags, themes)
	if err := s.repo.SaveAnalysisResult(ctx, entryUID, score, merged, encryptedSummary); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("entry analyzed",
		slog.String("entry_uid", entryUID), slog.Float64("mood_rating", score))
	return nil
}

// mergeTags объединяет пользовательские теги с темами от AI без дублей,
// сохраняя порядок: сначала теги пользователя.
func mergeTags(tags, themes []string) []string {
	seen := make(map[string]bool, len(tags)+len(themes))
	merged := make([]string, 0, len(tags)+len(themes))
	for _, tag := range tags {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		merged = append(merged, tag)
	}
	for _, theme := range themes {
		if theme == "" || seen[theme] {
			continue
		}
		seen[theme] = true
		merged = append(merged, theme)
	}
	return merged
}
