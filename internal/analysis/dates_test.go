package analysis

import (
	"fmt"
	"testing"
	"time"
)

func TestISOWeekKey(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{date(2024, time.January, 1), "2024-W01"},
		{date(2024, time.December, 30), "2025-W01"},
		{date(2021, time.January, 3), "2020-W53"},
		{date(2020, time.December, 31), "2020-W53"},
		{date(2023, time.January, 1), "2022-W52"},
		{date(2026, time.October, 16), "2026-W42"},
	}

	for _, tt := range tests {
		t.Run(tt.date.Format(dateLayout), func(t *testing.T) {
			if got := ISOWeekKey(tt.date); got != tt.want {
				t.Errorf("ISOWeekKey(%s) = %s, want %s", tt.date.Format(dateLayout), got, tt.want)
			}
		})
	}
}

func TestISOWeekKey_MatchesStdlib(t *testing.T) {
	start := date(2015, time.December, 20)
	for i := 0; i < 4000; i++ {
		d := start.AddDate(0, 0, i)
		year, week := d.ISOWeek()
		want := fmt.Sprintf("%04d-W%02d", year, week)
		if got := ISOWeekKey(d); got != want {
			t.Fatalf("ISOWeekKey(%s) = %s, want %s", d.Format(dateLayout), got, want)
		}
	}
}

func TestIsoWeekStart(t *testing.T) {
	// Sunday belongs to the week starting the previous Monday
	got := isoWeekStart(date(2024, time.March, 17))
	if want := date(2024, time.March, 11); !got.Equal(want) {
		t.Errorf("isoWeekStart(Sunday) = %v, want %v", got, want)
	}
	got = isoWeekStart(date(2024, time.March, 11))
	if want := date(2024, time.March, 11); !got.Equal(want) {
		t.Errorf("isoWeekStart(Monday) = %v, want %v", got, want)
	}
}

func TestActivityDate_UsesLocalWallClock(t *testing.T) {
	// 23:30 local on the 5th is already the 6th in UTC
	a := run(1, time.Date(2024, 5, 5, 23, 30, 0, 0, time.UTC), 5000, 1500)
	a.StartDate = time.Date(2024, 5, 6, 6, 30, 0, 0, time.UTC)

	if got := DateKey(activityDate(a)); got != "2024-05-05" {
		t.Errorf("activityDate = %s, want 2024-05-05", got)
	}
}
