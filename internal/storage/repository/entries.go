package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moodlog/moodlog-backend/internal/models"
)

const entryColumns = `uuid, user_uid, encrypted_title, encrypted_content, encrypted_summary,
		mood_rating, tags, is_draft, ai_processed_at, created_at, updated_at`

func scanEntry(row interface{ Scan(...any) error }) (*models.Entry, error) {
	var e models.Entry
	var tags []byte
	err := row.Scan(&e.UUID, &e.UserUID, &e.EncryptedTitle, &e.EncryptedContent,
		&e.EncryptedSummary, &e.MoodRating, &tags, &e.IsDraft, &e.AIProcessedAt,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &e.Tags); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

// CreateDiaryEntry вставляет новую запись дневника и возвращает её UUID.
func (s *Storage) CreateDiaryEntry(ctx context.Context, entry models.Entry) (string, error) {
	const op = "storage.CreateDiaryEntry"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tags, err := marshalTags(entry.Tags)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	query := `INSERT INTO entries (uuid, user_uid, encrypted_title, encrypted_content,
				  encrypted_summary, tags, is_draft)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING uuid`
	var newUID string
	err = s.DB.QueryRowContext(ctx, query, uuid.NewString(), entry.UserUID,
		entry.EncryptedTitle, entry.EncryptedContent, entry.EncryptedSummary,
		tags, entry.IsDraft).Scan(&newUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// ReadDiaryEntry возвращает запись по UUID в пределах одного пользователя.
func (s *Storage) ReadDiaryEntry(ctx context.Context, userUID, entryUID string) (*models.Entry, error) {
	const op = "storage.ReadDiaryEntry"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + entryColumns + ` FROM entries WHERE uuid = $1 AND user_uid = $2`
	entry, err := scanEntry(s.DB.QueryRowContext(ctx, query, entryUID, userUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entry, nil
}

// UpdateDiaryEntry перезаписывает изменяемые поля записи и возвращает
// количество изменённых строк.
func (s *Storage) UpdateDiaryEntry(ctx context.Context, entry models.Entry) (int, error) {
	const op = "storage.UpdateDiaryEntry"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tags, err := marshalTags(entry.Tags)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	query := `UPDATE entries
			  SET encrypted_title = $1, encrypted_content = $2, tags = $3,
			      is_draft = $4, updated_at = now()
			  WHERE uuid = $5 AND user_uid = $6`
	result, err := s.DB.ExecContext(ctx, query, entry.EncryptedTitle,
		entry.EncryptedContent, tags, entry.IsDraft, entry.UUID, entry.UserUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// SaveAnalysisResult записывает результат фонового AI-анализа в запись.
// Выполняется отдельным соединением от запроса, последняя запись побеждает.
func (s *Storage) SaveAnalysisResult(ctx context.Context, entryUID string,
	moodRating float64, tags []string, encryptedSummary string) error {
	const op = "storage.SaveAnalysisResult"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rawTags, err := marshalTags(tags)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `UPDATE entries
			  SET mood_rating = $1, tags = $2, encrypted_summary = $3,
			      ai_processed_at = now()
			  WHERE uuid = $4`
	_, err = s.DB.ExecContext(ctx, query, moodRating, rawTags, encryptedSummary, entryUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RemoveDiaryEntry удаляет запись и возвращает количество удалённых строк.
func (s *Storage) RemoveDiaryEntry(ctx context.Context, userUID, entryUID string) (int, error) {
	const op = "storage.RemoveDiaryEntry"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM entries WHERE uuid = $1 AND user_uid = $2`
	result, err := s.DB.ExecContext(ctx, query, entryUID, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListDiaryEntries возвращает страницу записей пользователя, новые первыми,
// и общее количество записей.
func (s *Storage) ListDiaryEntries(ctx context.Context, userUID string, limit, offset int) ([]*models.Entry, int, error) {
	const op = "storage.ListDiaryEntries"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM entries WHERE user_uid = $1`, userUID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + entryColumns + `
			  FROM entries
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// ListAllDiaryEntries возвращает все записи пользователя, новые первыми.
// Используется поиском: фильтрация по расшифрованному тексту выполняется выше.
func (s *Storage) ListAllDiaryEntries(ctx context.Context, userUID string) ([]*models.Entry, error) {
	const op = "storage.ListAllDiaryEntries"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + entryColumns + `
			  FROM entries
			  WHERE user_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListDiaryEntriesByDateRange возвращает записи пользователя в полуинтервале
// [from, to) по created_at. Черновики включаются по флагу includeDrafts.
func (s *Storage) ListDiaryEntriesByDateRange(ctx context.Context, userUID string,
	from, to time.Time, includeDrafts bool) ([]*models.Entry, error) {
	const op = "storage.ListDiaryEntriesByDateRange"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + entryColumns + `
			  FROM entries
			  WHERE user_uid = $1
			    AND created_at >= $2 AND created_at < $3
			    AND ($4 OR NOT is_draft)
			  ORDER BY created_at`
	rows, err := s.DB.QueryContext(ctx, query, userUID, from, to, includeDrafts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListRecentDiaryEntries возвращает последние нечерновые записи пользователя.
func (s *Storage) ListRecentDiaryEntries(ctx context.Context, userUID string, limit int) ([]*models.Entry, error) {
	const op = "storage.ListRecentDiaryEntries"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + entryColumns + `
			  FROM entries
			  WHERE user_uid = $1 AND NOT is_draft
			  ORDER BY created_at DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountDiaryEntries возвращает количество нечерновых записей пользователя.
func (s *Storage) CountDiaryEntries(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountDiaryEntries"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total int
	err := s.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM entries WHERE user_uid = $1 AND NOT is_draft`, userUID).Scan(&total)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}
