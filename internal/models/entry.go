package models

import "time"

// Entry представляет запись дневника. Поля EncryptedContent, EncryptedTitle и
// EncryptedSummary хранят шифротекст, расшифровка выполняется на уровне сервиса
// ключом данных пользователя. MoodRating заполняется фоновым AI-анализом и
// лежит в диапазоне [-2.00, +2.00].
type Entry struct {
	UUID             string
	UserUID          string
	EncryptedTitle   string     // Шифротекст заголовка, может быть пустым
	EncryptedContent string     // Шифротекст текста записи
	EncryptedSummary string     // Шифротекст AI-пересказа, пустой до анализа
	MoodRating       *float64   // Оценка настроения, nil до анализа
	Tags             []string   // Темы записи, заполняются AI-анализом
	IsDraft          bool       // Черновики исключены из анализа и аналитики
	AIProcessedAt    *time.Time // Время последнего успешного анализа
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DecryptedEntry представляет запись с расшифрованными полями для ответа API.
type DecryptedEntry struct {
	UUID          string     `json:"id"`
	Title         string     `json:"title,omitempty"`
	Content       string     `json:"content"`
	Summary       string     `json:"summary,omitempty"`
	MoodRating    *float64   `json:"mood_rating"`
	Tags          []string   `json:"tags"`
	IsDraft       bool       `json:"is_draft"`
	AIProcessedAt *time.Time `json:"ai_processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DummyEntry используется для приёма данных новой записи из JSON-запроса.
type DummyEntry struct {
	Title   string   `json:"title"`
	Content string   `json:"content" validate:"required"`
	Tags    []string `json:"tags"`
	IsDraft bool     `json:"is_draft"`
}

// DummyEntryUpdate используется для частичного обновления записи.
// Nil-поля означают "оставить без изменений".
type DummyEntryUpdate struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
	IsDraft *bool     `json:"is_draft"`
}

// DummyEntryBatch используется для пакетного создания записей.
type DummyEntryBatch struct {
	Entries []DummyEntry `json:"entries" validate:"required,min=1,max=100,dive"`
}

// BatchFailure описывает одну неудачную позицию пакетного создания.
type BatchFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// EntryPage страница записей с общим количеством для пагинации.
type EntryPage struct {
	Entries    []*DecryptedEntry `json:"entries"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
}
