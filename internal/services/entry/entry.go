// Package entry реализует бизнес-логику записей дневника: CRUD, поиск,
// пакетное создание и запуск фонового AI-анализа. Заголовок, текст и
// резюме хранятся в базе только в зашифрованном виде.
package entry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/moodlog/moodlog-backend/internal/lib/cryptoxor"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/models"
)

// ErrEntryNotFound возвращается, когда запись не принадлежит пользователю
// или не существует.
var ErrEntryNotFound = errors.New("entry not found")

// EntryRepository определяет методы для работы с записями в хранилище.
type EntryRepository interface {
	CreateDiaryEntry(ctx context.Context, entry models.Entry) (string, error)
	ReadDiaryEntry(ctx context.Context, userUID, entryUID string) (*models.Entry, error)
	UpdateDiaryEntry(ctx context.Context, entry models.Entry) (int, error)
	RemoveDiaryEntry(ctx context.Context, userUID, entryUID string) (int, error)
	ListDiaryEntries(ctx context.Context, userUID string, limit, offset int) ([]*models.Entry, int, error)
	ListAllDiaryEntries(ctx context.Context, userUID string) ([]*models.Entry, error)
	ListRecentDiaryEntries(ctx context.Context, userUID string, limit int) ([]*models.Entry, error)
}

// Keyring выдаёт ключ данных пользователя.
type Keyring interface {
	DataKey(ctx context.Context, userUID string) (string, error)
}

// Analyzer ставит запись в очередь фонового анализа.
type Analyzer interface {
	Enqueue(userUID, entryUID, title, content string, tags []string) bool
}

// Transcriber переводит аудиозапись в текст.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// QuestionGenerator строит вопросы для рефлексии по последним записям.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, recentEntries string) ([]string, error)
}

// EntryService реализует операции над записями дневника.
type EntryService struct {
	repo        EntryRepository
	keyring     Keyring
	analyzer    Analyzer
	transcriber Transcriber
	questions   QuestionGenerator
	log         *slog.Logger
}

// New создает новый экземпляр EntryService.
func New(repo EntryRepository, keyring Keyring, analyzer Analyzer,
	transcriber Transcriber, questions QuestionGenerator, log *slog.Logger) *EntryService {
	return &EntryService{
		repo:        repo,
		keyring:     keyring,
		analyzer:    analyzer,
		transcriber: transcriber,
		questions:   questions,
		log:         log,
	}
}

// Create сохраняет новую запись и ставит её в очередь анализа.
// Черновики не анализируются до публикации.
func (s *EntryService) Create(ctx context.Context, userUID string, req models.DummyEntry) (*models.DecryptedEntry, error) {
	const op = "entry.Create"

	dataKey, err := s.keyring.DataKey(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entry := models.Entry{
		UserUID:          userUID,
		EncryptedTitle:   cryptoxor.Encrypt(req.Title, dataKey),
		EncryptedContent: cryptoxor.Encrypt(req.Content, dataKey),
		Tags:             normalizeTags(req.Tags),
		IsDraft:          req.IsDraft,
	}

	entryUID, err := s.repo.CreateDiaryEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created diary entry",
		slog.String("user_uid", userUID), slog.String("entry_uid", entryUID))

	if !req.IsDraft {
		s.analyzer.Enqueue(userUID, entryUID, req.Title, req.Content, entry.Tags)
	}

	saved, err := s.repo.ReadDiaryEntry(ctx, userUID, entryUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.decrypt(saved, dataKey)
}

// BatchCreate сохраняет до ста записей за один запрос. Ошибка одной
// записи не откатывает остальные: неудачные позиции возвращаются
// отдельным списком с индексами из исходного запроса.
func (s *EntryService) BatchCreate(ctx context.Context, userUID string, req models.DummyEntryBatch) ([]*models.DecryptedEntry, []models.BatchFailure, error) {
	const op = "entry.BatchCreate"

	dataKey, err := s.keyring.DataKey(ctx, userUID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	var created []*models.DecryptedEntry
	var failures []models.BatchFailure

	for i, item := range req.Entries {
		entry := models.Entry{
			UserUID:          userUID,
			EncryptedTitle:   cryptoxor.Encrypt(item.Title, dataKey),
			EncryptedContent: cryptoxor.Encrypt(item.Content, dataKey),
			Tags:             normalizeTags(item.Tags),
			IsDraft:          item.IsDraft,
		}

		entryUID, err := s.repo.CreateDiaryEntry(ctx, entry)
		if err != nil {
			s.log.Warn("batch item failed", slog.Int("index", i), sl.Err(err))
			failures = append(failures, models.BatchFailure{Index: i, Error: err.Error()})
			continue
		}

		if !item.IsDraft {
			s.analyzer.Enqueue(userUID, entryUID, item.Title, item.Content, entry.Tags)
		}

		saved, err := s.repo.ReadDiaryEntry(ctx, userUID, entryUID)
		if err != nil {
			failures = append(failures, models.BatchFailure{Index: i, Error: err.Error()})
			continue
		}
		dec, err := s.decrypt(saved, dataKey)
		if err != nil {
			failures = append(failures, models.BatchFailure{Index: i, Error: err.Error()})
			continue
		}
		created = append(created, dec)
	}

	return created, failures, nil
}

// Read возвращает расшифрованную запись пользователя.
func (s *EntryService) Read(ctx context.Context, userUID, entryUID string) (*models.DecryptedEntry, error) {
	const op = "entry.Read"

	entry, err := s.repo.ReadDiaryEntry(ctx, userUID, entryUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}

	dataKey, err := s.keyring.DataKey(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.decrypt(entry, dataKey)
}

// List возвращает страницу записей пользователя, новые сверху.
func (s *EntryService) List(ctx context.Context, userUID string, page, perPage int) (*models.EntryPage, error) {
	const op = "entry.List"

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	entries, total, err := s.repo.ListDiaryEntries(ctx, userUID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dataKey, err := s.keyring.DataKey(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	decrypted := make([]*models.DecryptedEntry, 0, len(entries))
	for _, entry := range entries {
		dec, err := s.decrypt(entry, dataKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		decrypted = append(decrypted, dec)
	}

	totalPages := (total + perPage - 1) / perPage
	return &models.EntryPage{
		Entries:    decrypted,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

// Update полностью заменяет содержимое записи и перезапускает анализ.
func (s *EntryService) Update(ctx context.Context, userUID, entryUID string, req models.DummyEntry) (*models.DecryptedEntry, error) {
	const op = "entry.Update"

	dataKey, err := s.keyring.DataKey(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entry := models.Entry{
		UUID:             entryUID,
		UserUID:          userUID,
		EncryptedTitle:   cryptoxor.Encrypt(req.Title, dataKey),
		EncryptedContent: cryptoxor.Encrypt(req.Content, dataKey),
		Tags:             normalizeTags(req.Tags),
		IsDraft:          req.IsDraft,
	}

	affected, err := s.repo.UpdateDiaryEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return nil, ErrEntryNotFound
	}

	if !req.IsDraft {
		s.analyzer.Enqueue(userUID, entryUID, req.Title, req.Content, entry.Tags)
	}

	saved, err := s.repo.ReadDiaryEntry(ctx, userUID, entryUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.decrypt(saved, dataKey)
}

// Patch меняет только переданные поля записи. Анализ перезапускается,
// когда меняется текст или черновик публикуется.
func (s *EntryService) Patch(ctx context.Context, userUID, entryUID string, req models.DummyEntryUpdate) (*models.DecryptedEntry, error) {
	const op = "entry.Patch"

	current, err := s.repo.ReadDiaryEntry(ctx, userUID, entryUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if current == nil {
		return nil, ErrEntryNotFound
	}

	dataKey, err := s.keyring.DataKey(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dec, err := s.decrypt(current, dataKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	title := dec.Title
	content := dec.Content
	tags := current.Tags
	isDraft := current.IsDraft
	contentChanged := false

	if req.Title != nil {
		title = *req.Title
		contentChanged = contentChanged || *req.Title != dec.Title
	}
	if req.Content != nil {
		content = *req.Content
		contentChanged = contentChanged || *req.Content != dec.Content
	}
	if req.Tags != nil {
		tags = normalizeTags(*req.Tags)
	}
	published := false
	if req.IsDraft != nil {
		published = isDraft && !*req.IsDraft
		isDraft = *req.IsDraft
	}

	entry := models.Entry{
		UUID:             entryUID,
		UserUID:          userUID,
		EncryptedTitle:   cryptoxor.Encrypt(title, dataKey),
		EncryptedContent: cryptoxor.Encrypt(content, dataKey),
		Tags:             tags,
		IsDraft:          isDraft,
	}

	affected, err := s.repo.UpdateDiaryEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return nil, ErrEntryNotFound
	}

	if !isDraft && (contentChanged || published) {
		s.analyzer.Enqueue(userUID, entryUID, title, content, tags)
	}

	saved, err := s.repo.ReadDiaryEntry(ctx, userUID, entryUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.decrypt(saved, dataKey)
}

// Remove удаляет запись пользователя.
func (s *EntryService) Remove(ctx context.Context, userUID, entryUID string) error {
	const op = "entry.Remove"

	affected, err := s.repo.RemoveDiaryEntry(ctx, userUID, entryUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}

	s.log.Info("removed diary entry",
		slog.String("user_uid", userUID), slog.String("entry_uid", entryUID))
	return nil
}

// Search ищет записи пользователя. Запрос вида "#тег" ищет по тегам,
// любой другой по подстроке в расшифрованных заголовке и тексте.
// Сравнение без учёта регистра.
func (s *EntryService) Search(ctx context.Context, userUID, query string) ([]*models.DecryptedEntry, error) {
	const op = "entry.Search"

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	entries, err := s.repo.ListAllDiaryEntries(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dataKey, err := s.keyring.DataKey(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if tag, ok := strings.CutPrefix(query, "#"); ok {
		return s.searchByTag(entries, dataKey, tag)
	}
	return s.searchByText(entries, dataKey, query)
}

func (s *EntryService) searchByTag(entries []*models.Entry, dataKey, tag string) ([]*models.DecryptedEntry, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))

	var found []*models.DecryptedEntry
	for _, entry := range entries {
		for _, entryTag := range entry.Tags {
			if strings.ToLower(entryTag) == tag {
				dec, err := s.decrypt(entry, dataKey)
				if err != nil {
					return nil, err
				}
				found = append(found, dec)
				break
			}
		}
	}
	return found, nil
}

func (s *EntryService) searchByText(entries []*models.Entry, dataKey, query string) ([]*models.DecryptedEntry, error) {
	needle := strings.ToLower(query)

	var found []*models.DecryptedEntry
	for _, entry := range entries {
		dec, err := s.decrypt(entry, dataKey)
		if err != nil {
			return nil, err
		}
		if strings.Contains(strings.ToLower(dec.Title), needle) ||
			strings.Contains(strings.ToLower(dec.Content), needle) {
			found = append(found, dec)
		}
	}
	return found, nil
}

// CreateFromAudio расшифровывает аудио в текст и сохраняет его как запись.
// Заголовком становится начало расшифровки.
func (s *EntryService) CreateFromAudio(ctx context.Context, userUID, filename string, audio io.Reader) (*models.DecryptedEntry, error) {
	const op = "entry.CreateFromAudio"

	transcript, err := s.transcriber.Transcribe(ctx, filename, audio)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if transcript == "" {
		return nil, fmt.Errorf("%s: empty transcript", op)
	}

	return s.Create(ctx, userUID, models.DummyEntry{
		Title:   titleFromTranscript(transcript),
		Content: transcript,
	})
}

const maxTranscriptTitle = 60

func titleFromTranscript(transcript string) string {
	title := transcript
	if idx := strings.IndexAny(title, ".!?\n"); idx > 0 {
		title = title[:idx]
	}
	runes := []rune(strings.TrimSpace(title))
	if len(runes) > maxTranscriptTitle {
		title = string(runes[:maxTranscriptTitle]) + "…"
	}
	return strings.TrimSpace(title)
}

// fallbackQuestions возвращаются, когда генерация вопросов недоступна
// или у пользователя ещё нет записей.
var fallbackQuestions = []string{
	"Что сегодня принесло вам больше всего радости?",
	"Какая мысль не отпускала вас сегодня?",
	"За что вы благодарны себе на этой неделе?",
}

// Questions строит вопросы для рефлексии по последним десяти записям.
func (s *EntryService) Questions(ctx context.Context, userUID string) ([]string, error) {
	const op = "entry.Questions"

	entries, err := s.repo.ListRecentDiaryEntries(ctx, userUID, 10)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(entries) == 0 {
		return fallbackQuestions, nil
	}

	dataKey, err := s.keyring.DataKey(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var sb strings.Builder
	for _, entry := range entries {
		dec, err := s.decrypt(entry, dataKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sb.WriteString(dec.Content)
		sb.WriteString("\n---\n")
	}

	questions, err := s.questions.GenerateQuestions(ctx, sb.String())
	if err != nil || len(questions) == 0 {
		s.log.Warn("question generation failed, using fallback", sl.Err(err))
		return fallbackQuestions, nil
	}
	return questions, nil
}

func (s *EntryService) decrypt(entry *models.Entry, dataKey string) (*models.DecryptedEntry, error) {
	const op = "entry.decrypt"

	title, err := cryptoxor.Decrypt(entry.EncryptedTitle, dataKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	content, err := cryptoxor.Decrypt(entry.EncryptedContent, dataKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	summary := ""
	if entry.EncryptedSummary != "" {
		summary, err = cryptoxor.Decrypt(entry.EncryptedSummary, dataKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return &models.DecryptedEntry{
		UUID:          entry.UUID,
		Title:         title,
		Content:       content,
		Summary:       summary,
		MoodRating:    entry.MoodRating,
		Tags:          entry.Tags,
		IsDraft:       entry.IsDraft,
		AIProcessedAt: entry.AIProcessedAt,
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		normalized = append(normalized, tag)
	}
	return normalized
}
