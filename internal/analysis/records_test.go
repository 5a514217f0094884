package analysis

import (
	"math"
	"testing"
	"time"

	"fitdash/internal/store"
)

func findRecord(records []PersonalRecord, label string) *PersonalRecord {
	for i := range records {
		if records[i].Label == label {
			return &records[i]
		}
	}
	return nil
}

func TestPersonalRecords_NoRuns(t *testing.T) {
	day := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	activities := []store.Activity{activity(1, store.ActivityRide, day, 40000, 4000)}

	if got := PersonalRecords(activities); got != nil {
		t.Errorf("PersonalRecords without runs = %v, want nil", got)
	}
	if got := PersonalRecords(nil); got != nil {
		t.Errorf("PersonalRecords(nil) = %v, want nil", got)
	}
}

func TestPersonalRecords_ExtrapolatesFromLongerRuns(t *testing.T) {
	day := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	activities := []store.Activity{
		run(1, day, 6000, 1800),
		run(2, day.AddDate(0, 0, 1), 5000, 1560),
		run(3, day.AddDate(0, 0, 2), 4000, 1000),
	}

	records := PersonalRecords(activities)

	pr5k := findRecord(records, "5K")
	if pr5k == nil {
		t.Fatal("missing 5K record")
	}
	if math.Abs(pr5k.Value-1500) > 1e-9 {
		t.Errorf("5K = %v, want 1500", pr5k.Value)
	}
	if pr5k.SourceActivityID != 1 || pr5k.Kind != RecordTime {
		t.Errorf("5K record = %+v, want source 1 kind time", pr5k)
	}
	if findRecord(records, "10K") != nil {
		t.Error("10K record should be absent without a run of 10 km")
	}

	// 4000m in 1000s is the fastest pace at 250 s/km
	fastest := findRecord(records, LabelFastestPace)
	if fastest == nil || fastest.SourceActivityID != 3 || math.Abs(fastest.Value-250) > 1e-9 {
		t.Errorf("fastest pace = %+v, want activity 3 at 250 s/km", fastest)
	}
}

func TestPersonalRecords_Extremes(t *testing.T) {
	day := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	hilly := run(1, day, 8000, 3000)
	hilly.TotalElevationGain = 450
	long := run(2, day.AddDate(0, 0, 1), 22000, 7800)
	long.TotalElevationGain = 120
	short := run(3, day.AddDate(0, 0, 2), 800, 150) // too short for pace
	ride := activity(4, store.ActivityRide, day.AddDate(0, 0, 3), 60000, 9000)

	records := PersonalRecords([]store.Activity{hilly, long, short, ride})

	tests := []struct {
		label      string
		wantSource int64
		wantValue  float64
	}{
		{LabelLongestDistance, 4, 60000},
		{LabelHighestElevation, 1, 450},
		{LabelLongestDuration, 4, 9000},
		{LabelFastestPace, 2, 7800.0 / 22},
		{"Half Marathon", 2, 21097.5 / 22000 * 7800},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			r := findRecord(records, tt.label)
			if r == nil {
				t.Fatalf("missing %s record", tt.label)
			}
			if r.SourceActivityID != tt.wantSource {
				t.Errorf("source = %d, want %d", r.SourceActivityID, tt.wantSource)
			}
			if math.Abs(r.Value-tt.wantValue) > 1e-6 {
				t.Errorf("value = %v, want %v", r.Value, tt.wantValue)
			}
		})
	}
}
