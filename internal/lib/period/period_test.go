package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthKeyAndLabel(t *testing.T) {
	assert.Equal(t, "2025-09", MonthKey(2025, time.September))
	assert.Equal(t, "2025-01", MonthKey(2025, time.January))
	assert.Equal(t, "September 2025", MonthLabel(2025, time.September))
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		start string
		end   string
	}{
		{"обычный месяц", 2025, time.September, "2025-09-01", "2025-09-30"},
		{"февраль високосного года", 2024, time.February, "2024-02-01", "2024-02-29"},
		{"февраль невисокосного года", 2025, time.February, "2025-02-01", "2025-02-28"},
		{"декабрь", 2025, time.December, "2025-12-01", "2025-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := MonthRange(tt.year, tt.month)
			assert.Equal(t, tt.start, start.Format("2006-01-02"))
			assert.Equal(t, tt.end, end.Format("2006-01-02"))
		})
	}
}

func TestWeekKeyAndLabel(t *testing.T) {
	assert.Equal(t, "2025-W36", WeekKey(2025, 36))
	assert.Equal(t, "2025-W01", WeekKey(2025, 1))
	assert.Equal(t, "Week 36, 2025", WeekLabel(2025, 36))
}

func TestWeekRange(t *testing.T) {
	tests := []struct {
		name    string
		isoYear int
		isoWeek int
		start   string
		end     string
	}{
		{"середина года", 2025, 36, "2025-09-01", "2025-09-07"},
		{"первая неделя 2025", 2025, 1, "2024-12-30", "2025-01-05"},
		{"53-я неделя 2020", 2020, 53, "2020-12-28", "2021-01-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WeekRange(tt.isoYear, tt.isoWeek)
			assert.Equal(t, tt.start, start.Format("2006-01-02"))
			assert.Equal(t, tt.end, end.Format("2006-01-02"))

			// результат согласован со стандартной библиотекой
			gotYear, gotWeek := start.ISOWeek()
			assert.Equal(t, tt.isoYear, gotYear)
			assert.Equal(t, tt.isoWeek, gotWeek)
			assert.Equal(t, time.Monday, start.Weekday())
			assert.Equal(t, time.Sunday, end.Weekday())
		})
	}
}

func TestDayBounds(t *testing.T) {
	start := time.Date(2025, 9, 1, 15, 30, 0, 0, time.UTC)
	end := time.Date(2025, 9, 30, 8, 0, 0, 0, time.UTC)

	from, to := DayBounds(start, end)
	assert.Equal(t, "2025-09-01T00:00:00Z", from.Format(time.RFC3339))
	assert.Equal(t, "2025-10-01T00:00:00Z", to.Format(time.RFC3339))
}
