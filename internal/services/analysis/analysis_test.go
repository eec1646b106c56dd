package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moodlog/moodlog-backend/internal/lib/cryptoxor"
	"github.com/moodlog/moodlog-backend/internal/workers"
)

const testDataKey = "0123456789abcdef0123456789abcdef"

type RepoMock struct{ mock.Mock }

func (m *RepoMock) SaveAnalysisResult(ctx context.Context, entryUID string, moodRating float64, tags []string, encryptedSummary string) error {
	return m.Called(ctx, entryUID, moodRating, tags, encryptedSummary).Error(0)
}

type KeyringMock struct{ mock.Mock }

func (m *KeyringMock) DataKey(ctx context.Context, userUID string) (string, error) {
	args := m.Called(ctx, userUID)
	return args.String(0), args.Error(1)
}

type LLMMock struct{ mock.Mock }

func (m *LLMMock) AnalyzeSentiment(ctx context.Context, text string) (float64, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(float64), args.Error(1)
}
func (m *LLMMock) ExtractThemes(ctx context.Context, text string) ([]string, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *LLMMock) Summarize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

// syncPool выполняет задачи синхронно, чтобы тесты не зависели от горутин.
type syncPool struct{}

func (p syncPool) Submit(task workers.Task) bool {
	task(context.Background())
	return true
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestService(repo *RepoMock, keyring *KeyringMock, llmMock *LLMMock) *AnalysisService {
	return New(repo, keyring, llmMock, syncPool{}, time.Minute, newNoopLogger())
}

func TestAnalysisService_ShortEntry(t *testing.T) {
	repo := new(RepoMock)
	llmMock := new(LLMMock)
	svc := newTestService(repo, new(KeyringMock), llmMock)

	llmMock.On("AnalyzeSentiment", mock.Anything, "Заголовок\nкороткий текст").Return(1.5, nil)
	llmMock.On("ExtractThemes", mock.Anything, mock.Anything).Return([]string{"работа", "отдых"}, nil)
	repo.On("SaveAnalysisResult", mock.Anything, "entry-1", 1.5,
		[]string{"тег", "работа", "отдых"}, "").Return(nil)

	ok := svc.Enqueue("user-1", "entry-1", "Заголовок", "короткий текст", []string{"тег"})
	require.True(t, ok)

	repo.AssertExpectations(t)
	llmMock.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
}

func TestAnalysisService_LongEntryGetsSummary(t *testing.T) {
	repo := new(RepoMock)
	keyring := new(KeyringMock)
	llmMock := new(LLMMock)
	svc := newTestService(repo, keyring, llmMock)

	longContent := strings.TrimSpace(strings.Repeat("слово ", 150))

	llmMock.On("AnalyzeSentiment", mock.Anything, mock.Anything).Return(-0.5, nil)
	llmMock.On("ExtractThemes", mock.Anything, mock.Anything).Return([]string{"тема"}, nil)
	llmMock.On("Summarize", mock.Anything, longContent).Return("краткое резюме", nil)
	keyring.On("DataKey", mock.Anything, "user-1").Return(testDataKey, nil)
	repo.On("SaveAnalysisResult", mock.Anything, "entry-1", -0.5, []string{"тема"},
		mock.MatchedBy(func(encrypted string) bool {
			summary, err := cryptoxor.Decrypt(encrypted, testDataKey)
			return err == nil && summary == "краткое резюме"
		})).Return(nil)

	ok := svc.Enqueue("user-1", "entry-1", "", longContent, nil)
	require.True(t, ok)

	repo.AssertExpectations(t)
}

func TestAnalysisService_SentimentFailureFallsBackToNeutral(t *testing.T) {
	repo := new(RepoMock)
	llmMock := new(LLMMock)
	svc := newTestService(repo, new(KeyringMock), llmMock)

	llmMock.On("AnalyzeSentiment", mock.Anything, mock.Anything).Return(0.0, errors.New("api down"))
	llmMock.On("ExtractThemes", mock.Anything, mock.Anything).Return([]string{"тема"}, nil)
	repo.On("SaveAnalysisResult", mock.Anything, "entry-1", 0.0, []string{"тема"}, "").Return(nil)

	svc.Enqueue("user-1", "entry-1", "", "текст", nil)

	repo.AssertExpectations(t)
}

func TestAnalysisService_ThemesFailureKeepsUserTags(t *testing.T) {
	repo := new(RepoMock)
	llmMock := new(LLMMock)
	svc := newTestService(repo, new(KeyringMock), llmMock)

	llmMock.On("AnalyzeSentiment", mock.Anything, mock.Anything).Return(0.7, nil)
	llmMock.On("ExtractThemes", mock.Anything, mock.Anything).Return(nil, errors.New("api down"))
	repo.On("SaveAnalysisResult", mock.Anything, "entry-1", 0.7, []string{"тег"}, "").Return(nil)

	svc.Enqueue("user-1", "entry-1", "", "текст", []string{"тег"})

	repo.AssertExpectations(t)
}

func TestMergeTags(t *testing.T) {
	tests := []struct {
		name   string
		tags   []string
		themes []string
		want   []string
	}{
		{
			name:   "без пересечений",
			tags:   []string{"a"},
			themes: []string{"b"},
			want:   []string{"a", "b"},
		},
		{
			name:   "дубли убираются",
			tags:   []string{"a", "b"},
			themes: []string{"b", "c"},
			want:   []string{"a", "b", "c"},
		},
		{
			name:   "пустые значения отбрасываются",
			tags:   []string{"", "a"},
			themes: []string{""},
			want:   []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeTags(tt.tags, tt.themes))
		})
	}
}
