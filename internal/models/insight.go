package models

import "time"

// Типы инсайтов.
const (
	InsightTypeMonthly = "monthly"
	InsightTypeWeekly  = "weekly"
)

// Insight представляет AI-отчет за период. На пару (пользователь, тип,
// ключ периода) существует ровно одна строка: повторная генерация
// перезаписывает содержимое. EncryptedContent хранит шифротекст JSON-отчета.
type Insight struct {
	UUID             string
	UserUID          string
	Type             string // monthly или weekly
	PeriodKey        string // "2025-09" или "2025-W36"
	PeriodLabel      string // "September 2025" или "Week 36, 2025"
	EncryptedContent string
	StartDate        time.Time
	EndDate          time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DecryptedInsight представляет инсайт с расшифрованным отчетом для ответа API.
type DecryptedInsight struct {
	UUID        string    `json:"id"`
	Type        string    `json:"type"`
	PeriodKey   string    `json:"period_key"`
	PeriodLabel string    `json:"period_label"`
	Content     string    `json:"content"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InsightPage страница инсайтов с общим количеством для пагинации.
type InsightPage struct {
	Insights   []*DecryptedInsight `json:"insights"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PerPage    int                 `json:"per_page"`
	TotalPages int                 `json:"total_pages"`
}
