package models

// EngagementMetrics содержит сводку вовлечённости по всем пользователям.
type EngagementMetrics struct {
	TotalUsers     int `json:"total_users"`
	DAU            int `json:"dau"`
	WAU            int `json:"wau"`
	MAU            int `json:"mau"`
	EntriesToday   int `json:"entries_today"`
	EntriesPerUser int `json:"entries_per_user"`
}

// EngagementPoint хранит вовлечённость за один день.
type EngagementPoint struct {
	Date        string `json:"date"`
	ActiveUsers int    `json:"active_users"`
	Entries     int    `json:"entries"`
}

// MoodMetrics содержит сводку настроения по всем пользователям.
type MoodMetrics struct {
	AverageScore  float64 `json:"average_score"`
	AnalyzedShare float64 `json:"analyzed_share"`
	EntriesTotal  int     `json:"entries_total"`
	EntriesWithAI int     `json:"entries_with_ai"`
}

// MoodPoint хранит средний балл настроения всех пользователей за один день.
type MoodPoint struct {
	Date         string  `json:"date"`
	AverageScore float64 `json:"average_score"`
	EntryCount   int     `json:"entry_count"`
}

// RevenueMetrics содержит сводку выручки.
type RevenueMetrics struct {
	TotalRevenue  float64        `json:"total_revenue"`
	MonthRevenue  float64        `json:"month_revenue"`
	PaymentsTotal int            `json:"payments_total"`
	PayingUsers   int            `json:"paying_users"`
	ActivePlans   map[string]int `json:"active_plans"`
}

// RevenuePoint хранит выручку за один месяц.
type RevenuePoint struct {
	PeriodKey string  `json:"period_key"`
	Revenue   float64 `json:"revenue"`
	Payments  int     `json:"payments"`
}
