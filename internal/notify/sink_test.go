package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitdash/internal/store"
)

func setupSink(t *testing.T, cooldown time.Duration) (*Sink, *store.DB, *time.Time) {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	now := time.Date(2024, 3, 14, 18, 0, 0, 0, time.UTC)
	sink := NewSink(db, cooldown, nil)
	sink.now = func() time.Time { return now }
	return sink, db, &now
}

func streakAlert() store.Alert {
	return store.Alert{
		UserID:   1,
		Type:     store.AlertStreakRisk,
		Title:    "Streak at risk",
		Message:  "Log an activity today",
		Priority: store.PriorityHigh,
	}
}

func TestEmitAlert_AssignsIDAndTime(t *testing.T) {
	sink, db, now := setupSink(t, 0)
	ctx := context.Background()

	sink.EmitAlert(ctx, store.Alert{UserID: 1, Type: store.AlertAchievement, Title: "First Steps", Message: "Log your first activity"})

	alerts, err := db.ListAlerts(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListAlerts failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.ID == "" {
		t.Error("Expected generated id")
	}
	if !a.CreatedAt.Equal(*now) {
		t.Errorf("CreatedAt = %v, want %v", a.CreatedAt, *now)
	}
	if a.Priority != store.PriorityNormal {
		t.Errorf("Priority = %q, want %q", a.Priority, store.PriorityNormal)
	}
}

func TestEmitAlert_Cooldown(t *testing.T) {
	sink, db, now := setupSink(t, 12*time.Hour)
	ctx := context.Background()

	sink.EmitAlert(ctx, streakAlert())

	*now = now.Add(2 * time.Hour)
	sink.EmitAlert(ctx, streakAlert())

	alerts, _ := db.ListAlerts(ctx, 1, 10)
	if len(alerts) != 1 {
		t.Fatalf("Expected second alert to be suppressed, got %d alerts", len(alerts))
	}

	// Other users are not affected
	other := streakAlert()
	other.UserID = 2
	sink.EmitAlert(ctx, other)
	if alerts, _ := db.ListAlerts(ctx, 2, 10); len(alerts) != 1 {
		t.Errorf("Expected alert for user 2, got %d", len(alerts))
	}

	*now = now.Add(11 * time.Hour)
	sink.EmitAlert(ctx, streakAlert())
	alerts, _ = db.ListAlerts(ctx, 1, 10)
	if len(alerts) != 2 {
		t.Errorf("Expected alert after cooldown, got %d alerts", len(alerts))
	}
}

func TestEmitAlert_AchievementsBypassCooldown(t *testing.T) {
	sink, db, _ := setupSink(t, 12*time.Hour)
	ctx := context.Background()

	for _, title := range []string{"First Steps", "5K Finisher", "Early Bird"} {
		sink.EmitAlert(ctx, store.Alert{UserID: 1, Type: store.AlertAchievement, Title: title, Message: title})
	}

	alerts, _ := db.ListAlerts(ctx, 1, 10)
	if len(alerts) != 3 {
		t.Errorf("Expected 3 achievement alerts, got %d", len(alerts))
	}
}

type failingStore struct{}

func (failingStore) CreateAlert(context.Context, *store.Alert) error {
	return errors.New("disk full")
}

func (failingStore) LastAlertAt(context.Context, int64, string) (time.Time, bool, error) {
	return time.Time{}, false, errors.New("disk full")
}

func TestEmitAlert_ErrorsAreSwallowed(t *testing.T) {
	sink := NewSink(failingStore{}, time.Hour, nil)

	// Must not panic or block
	sink.EmitAlert(context.Background(), streakAlert())
}
