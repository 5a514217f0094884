package analysis

import (
	"fmt"
	"time"

	"fitdash/internal/store"
)

const dateLayout = "2006-01-02"

// civilDate strips the clock and zone from t, keeping its calendar date
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// activityDate returns the local calendar date the activity started on
func activityDate(a store.Activity) time.Time {
	if a.StartDateLocal.IsZero() {
		return civilDate(a.StartDate)
	}
	return civilDate(a.StartDateLocal)
}

// localStart returns the wall clock start time of an activity
func localStart(a store.Activity) time.Time {
	if a.StartDateLocal.IsZero() {
		return a.StartDate
	}
	return a.StartDateLocal
}

// DateKey formats a calendar date as YYYY-MM-DD
func DateKey(t time.Time) string {
	return t.Format(dateLayout)
}

// daysBetween returns the number of calendar days from a to b.
// Both must be civil dates.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// ISOWeekKey returns the ISO-8601 week of t as "YYYY-Www". The week belongs
// to the year containing its Thursday, so 2024-12-30 is "2025-W01" and
// 2021-01-03 is "2020-W53".
func ISOWeekKey(t time.Time) string {
	thursday := isoWeekStart(t).AddDate(0, 0, 3)
	week := (thursday.YearDay()-1)/7 + 1
	return fmt.Sprintf("%04d-W%02d", thursday.Year(), week)
}

// isoWeekStart returns the Monday of t's ISO week as a civil date
func isoWeekStart(t time.Time) time.Time {
	d := civilDate(t)
	sinceMonday := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -sinceMonday)
}
