package plan

import "github.com/moodlog/moodlog-backend/internal/models"

// Названия фич, доступность которых зависит от плана.
const (
	FeatureAIAnalysis         = "has_ai_analysis"
	FeatureWeeklyInsights     = "has_weekly_insights"
	FeatureMonthlyInsights    = "has_monthly_insights"
	FeatureAudioEntries       = "has_audio_entries"
	FeatureAdvancedAnalytics  = "has_advanced_analytics"
	FeatureUnlimitedQuestions = "has_unlimited_questions"
)

// Info описывает тарифный план для ответа API.
type Info struct {
	Name         string          `json:"name"`
	Price        float64         `json:"price"`
	Currency     string          `json:"currency"`
	DurationDays int             `json:"duration_days"`
	Features     map[string]bool `json:"features"`
}

// Конфигурация тарифов. Цены в тенге, длительность в днях.
// DurationDays == 0 означает бессрочный план.
var planConfig = map[string]Info{
	models.PlanFree: {
		Name:     models.PlanFree,
		Price:    0,
		Currency: "KZT",
		Features: map[string]bool{
			FeatureAIAnalysis:         true,
			FeatureWeeklyInsights:     false,
			FeatureMonthlyInsights:    false,
			FeatureAudioEntries:       false,
			FeatureAdvancedAnalytics:  false,
			FeatureUnlimitedQuestions: false,
		},
	},
	models.PlanTrial: {
		Name:         models.PlanTrial,
		Price:        0,
		Currency:     "KZT",
		DurationDays: 14,
		Features: map[string]bool{
			FeatureAIAnalysis:         true,
			FeatureWeeklyInsights:     true,
			FeatureMonthlyInsights:    true,
			FeatureAudioEntries:       true,
			FeatureAdvancedAnalytics:  true,
			FeatureUnlimitedQuestions: true,
		},
	},
	models.PlanProMonth: {
		Name:         models.PlanProMonth,
		Price:        1990,
		Currency:     "KZT",
		DurationDays: 30,
		Features: map[string]bool{
			FeatureAIAnalysis:         true,
			FeatureWeeklyInsights:     true,
			FeatureMonthlyInsights:    true,
			FeatureAudioEntries:       true,
			FeatureAdvancedAnalytics:  true,
			FeatureUnlimitedQuestions: true,
		},
	},
	models.PlanProYear: {
		Name:         models.PlanProYear,
		Price:        19100,
		Currency:     "KZT",
		DurationDays: 365,
		Features: map[string]bool{
			FeatureAIAnalysis:         true,
			FeatureWeeklyInsights:     true,
			FeatureMonthlyInsights:    true,
			FeatureAudioEntries:       true,
			FeatureAdvancedAnalytics:  true,
			FeatureUnlimitedQuestions: true,
		},
	},
}

// planOrder задаёт порядок планов в ответе API.
var planOrder = []string{
	models.PlanFree,
	models.PlanTrial,
	models.PlanProMonth,
	models.PlanProYear,
}
