// Package period содержит вспомогательные функции для работы с отчетными
// периодами инсайтов: календарными месяцами и ISO-неделями.
package period

import (
	"fmt"
	"time"
)

// MonthKey возвращает канонический ключ месяца вида "2025-09".
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// MonthLabel возвращает человекочитаемую подпись месяца вида "September 2025".
func MonthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month.String(), year)
}

// MonthRange возвращает первый и последний день календарного месяца в UTC.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}

// WeekKey возвращает канонический ключ ISO-недели вида "2025-W36".
func WeekKey(isoYear, isoWeek int) string {
	return fmt.Sprintf("%04d-W%02d", isoYear, isoWeek)
}

// WeekLabel возвращает человекочитаемую подпись недели вида "Week 36, 2025".
func WeekLabel(isoYear, isoWeek int) string {
	return fmt.Sprintf("Week %d, %d", isoWeek, isoYear)
}

// WeekRange возвращает понедельник и воскресенье ISO-недели в UTC.
func WeekRange(isoYear, isoWeek int) (time.Time, time.Time) {
	// 4 января всегда лежит в первой ISO-неделе года.
	jan4 := time.Date(isoYear, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // воскресенье
	}
	firstMonday := jan4.AddDate(0, 0, 1-weekday)
	start := firstMonday.AddDate(0, 0, (isoWeek-1)*7)
	end := start.AddDate(0, 0, 6)
	return start, end
}

// DayBounds переводит пару дат в полуинтервал [началоStart, началоEnd+1d)
// для выборки записей по created_at.
func DayBounds(start, end time.Time) (time.Time, time.Time) {
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return from, to
}
