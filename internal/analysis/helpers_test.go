package analysis

import (
	"context"
	"sync"
	"testing"
	"time"

	"fitdash/internal/store"
)

// recordingSink collects emitted alerts
type recordingSink struct {
	mu     sync.Mutex
	alerts []store.Alert
}

func (s *recordingSink) EmitAlert(_ context.Context, alert store.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
}

func (s *recordingSink) ofType(alertType string) []store.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Alert
	for _, a := range s.alerts {
		if a.Type == alertType {
			out = append(out, a)
		}
	}
	return out
}

func openTestStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// activity builds an activity starting at the given local wall clock time
func activity(id int64, typ string, start time.Time, meters float64, seconds int) store.Activity {
	return store.Activity{
		ID:             id,
		AthleteID:      1,
		Name:           typ,
		Type:           typ,
		StartDate:      start,
		StartDateLocal: start,
		Distance:       meters,
		MovingTime:     seconds,
		ElapsedTime:    seconds,
	}
}

func run(id int64, start time.Time, meters float64, seconds int) store.Activity {
	return activity(id, store.ActivityRun, start, meters, seconds)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
