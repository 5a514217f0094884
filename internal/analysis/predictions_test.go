package analysis

import (
	"math"
	"testing"
	"time"

	"fitdash/internal/store"
)

func TestRiegel(t *testing.T) {
	got := Riegel(1200, 5000, 10000)
	want := 1200 * math.Pow(2, 1.06)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Riegel(1200, 5000, 10000) = %v, want %v", got, want)
	}
	if math.Abs(got-2501.9) > 1 {
		t.Errorf("Riegel(1200, 5000, 10000) = %v, want about 2501.9", got)
	}
	if Riegel(1200, 5000, 5000) != 1200 {
		t.Error("Riegel over the same distance should return the input time")
	}
	if Riegel(1200, 0, 5000) != 0 {
		t.Error("Riegel with zero reference distance should return 0")
	}
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		ref, target float64
		want        Confidence
	}{
		{10000, 10000, ConfidenceHigh},
		{7000, 10000, ConfidenceHigh},
		{15000, 10000, ConfidenceHigh},
		{5000, 10000, ConfidenceMedium},
		{4000, 10000, ConfidenceMedium},
		{25000, 10000, ConfidenceMedium},
		{3900, 10000, ConfidenceLow},
		{5000, 42195, ConfidenceLow},
		{0, 10000, ConfidenceLow},
	}

	for _, tt := range tests {
		if got := ConfidenceFor(tt.ref, tt.target); got != tt.want {
			t.Errorf("ConfidenceFor(%v, %v) = %s, want %s", tt.ref, tt.target, got, tt.want)
		}
	}
}

func TestRaceDistances(t *testing.T) {
	if len(RaceDistances) != 6 {
		t.Fatalf("got %d race distances, want 6", len(RaceDistances))
	}
	if RaceHalfMarathon.Meters() != 21097.5 || RaceMarathon.Meters() != 42195 {
		t.Error("unexpected half or full marathon length")
	}
	for i := 1; i < len(RaceDistances); i++ {
		if RaceDistances[i].Meters() <= RaceDistances[i-1].Meters() {
			t.Errorf("race distances not ascending at %s", RaceDistances[i].Key())
		}
	}
}

func TestPredictRaceTimes_Empty(t *testing.T) {
	if got := PredictRaceTimes(nil); got != nil {
		t.Errorf("PredictRaceTimes(nil) = %v, want nil", got)
	}
	day := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	rides := []store.Activity{activity(1, store.ActivityRide, day, 30000, 3600)}
	if got := PredictRaceTimes(rides); got != nil {
		t.Errorf("PredictRaceTimes(rides) = %v, want nil", got)
	}
}

func TestPredictRaceTimes_PicksClosestReference(t *testing.T) {
	day := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	activities := []store.Activity{
		run(1, day, 5000, 1200),                   // 5k bucket
		run(2, day.AddDate(0, 0, 1), 4000, 1100),  // 5k bucket, slower pace
		run(3, day.AddDate(0, 0, 2), 10000, 2600), // 10k bucket
		run(4, day.AddDate(0, 0, 3), 21000, 6300), // half bucket
	}

	predictions := PredictRaceTimes(activities)
	if len(predictions) != len(RaceDistances) {
		t.Fatalf("got %d predictions, want %d", len(predictions), len(RaceDistances))
	}

	tests := []struct {
		race    RaceDistance
		wantRef int64
		want    Confidence
	}{
		{Race5K, 1, ConfidenceHigh},
		{Race10K, 3, ConfidenceHigh},
		{Race15K, 4, ConfidenceHigh},
		{Race20K, 4, ConfidenceHigh},
		{RaceHalfMarathon, 4, ConfidenceHigh},
		{RaceMarathon, 4, ConfidenceMedium},
	}

	for i, tt := range tests {
		p := predictions[i]
		t.Run(tt.race.Key(), func(t *testing.T) {
			if p.Distance != tt.race {
				t.Fatalf("prediction %d is for %s, want %s", i, p.Target, tt.race.Key())
			}
			if p.ReferenceActivityID != tt.wantRef {
				t.Errorf("reference = %d, want %d", p.ReferenceActivityID, tt.wantRef)
			}
			if p.Confidence != tt.want {
				t.Errorf("confidence = %s, want %s", p.Confidence, tt.want)
			}
			ref := activities[tt.wantRef-1]
			wantSeconds := Riegel(float64(ref.MovingTime), ref.Distance, tt.race.Meters())
			if math.Abs(p.PredictedSeconds-wantSeconds) > 1e-9 {
				t.Errorf("predicted = %v, want %v", p.PredictedSeconds, wantSeconds)
			}
			wantPace := wantSeconds / 60 / (tt.race.Meters() / 1000)
			if math.Abs(p.PredictedPace-wantPace) > 1e-9 {
				t.Errorf("pace = %v, want %v", p.PredictedPace, wantPace)
			}
		})
	}
}

func TestPredictRaceTimes_FallsBackToFastestRun(t *testing.T) {
	day := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	// Neither run falls into a reference bucket
	activities := []store.Activity{
		run(1, day, 2000, 600),
		run(2, day.AddDate(0, 0, 1), 7000, 2500),
	}

	predictions := PredictRaceTimes(activities)
	if len(predictions) != len(RaceDistances) {
		t.Fatalf("got %d predictions, want %d", len(predictions), len(RaceDistances))
	}
	for _, p := range predictions {
		if p.ReferenceActivityID != 1 {
			t.Errorf("%s reference = %d, want 1", p.Target, p.ReferenceActivityID)
		}
	}
	if predictions[0].Confidence != ConfidenceMedium {
		t.Errorf("5k confidence from a 2k run = %s, want medium", predictions[0].Confidence)
	}
}
