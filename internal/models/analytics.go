package models

// MoodTrendPoint хранит средний балл настроения за один день.
type MoodTrendPoint struct {
	Date         string  `json:"date"`
	AverageScore float64 `json:"average_score"`
	EntryCount   int     `json:"entry_count"`
}

// MoodTrend описывает динамику настроения за запрошенный интервал.
type MoodTrend struct {
	Points       []MoodTrendPoint `json:"points"`
	AverageScore float64          `json:"average_score"`
	EntryCount   int              `json:"entry_count"`
}

// ThemeStat хранит тему и её долю среди всех упоминаний.
type ThemeStat struct {
	Theme      string  `json:"theme"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DayStat описывает день с крайним значением настроения.
type DayStat struct {
	Date         string  `json:"date"`
	AverageScore float64 `json:"average_score"`
	EntryCount   int     `json:"entry_count"`
}

// BestWorstDays содержит лучший и худший день периода. Поля nil, когда
// в периоде нет проанализированных записей.
type BestWorstDays struct {
	Best  *DayStat `json:"best"`
	Worst *DayStat `json:"worst"`
}

// MonthSummary агрегирует настроение за один календарный месяц.
type MonthSummary struct {
	PeriodKey    string  `json:"period_key"`
	AverageScore float64 `json:"average_score"`
	EntryCount   int     `json:"entry_count"`
}

// MonthComparison сравнивает текущий месяц с предыдущим.
type MonthComparison struct {
	Current  MonthSummary `json:"current"`
	Previous MonthSummary `json:"previous"`
	Delta    float64      `json:"delta"`
}
