package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

// setupTestDB creates an in-memory database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func testCatalog() []Achievement {
	return []Achievement{
		{Key: "first_run", Name: "First Run", Category: CategoryMilestone, Threshold: 1, ActivityType: ActivityRun},
		{Key: "first_5k", Name: "First 5K", Category: CategoryDistance, Threshold: 5000},
		{Key: "streak_7", Name: "Week Streak", Category: CategoryStreak, Threshold: 7},
	}
}

func TestSeedCatalog_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SeedCatalog(ctx, testCatalog()); err != nil {
		t.Fatalf("SeedCatalog failed: %v", err)
	}
	if err := db.SeedCatalog(ctx, testCatalog()); err != nil {
		t.Fatalf("second SeedCatalog failed: %v", err)
	}

	count, err := db.CountAchievements(ctx)
	if err != nil {
		t.Fatalf("CountAchievements failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 achievements, got %d", count)
	}

	defs, err := db.GetAchievementCatalog(ctx)
	if err != nil {
		t.Fatalf("GetAchievementCatalog failed: %v", err)
	}
	if defs[0].Key != "first_run" || defs[0].Category != CategoryMilestone || defs[0].ActivityType != ActivityRun {
		t.Errorf("Unexpected first definition: %+v", defs[0])
	}
}

func TestSeedCatalog_RejectsUnknownCategory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	err := db.SeedCatalog(ctx, []Achievement{{Key: "bogus", Name: "Bogus", Category: "bogus", Threshold: 1}})
	if err == nil {
		t.Fatal("Expected error for unknown category")
	}

	count, _ := db.CountAchievements(ctx)
	if count != 0 {
		t.Errorf("Expected rollback to leave catalog empty, got %d", count)
	}
}

func TestWriteUnlock_OnlyOnce(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SeedCatalog(ctx, testCatalog()); err != nil {
		t.Fatalf("SeedCatalog failed: %v", err)
	}
	def, err := db.GetAchievementByKey(ctx, "first_5k")
	if err != nil {
		t.Fatalf("GetAchievementByKey failed: %v", err)
	}

	has, err := db.HasUnlock(ctx, 7, "first_5k")
	if err != nil {
		t.Fatalf("HasUnlock failed: %v", err)
	}
	if has {
		t.Error("Expected no unlock before writing")
	}

	activityID := int64(42)
	created, err := db.WriteUnlock(ctx, 7, def.ID, &activityID)
	if err != nil {
		t.Fatalf("WriteUnlock failed: %v", err)
	}
	if !created {
		t.Error("Expected first WriteUnlock to report created")
	}

	created, err = db.WriteUnlock(ctx, 7, def.ID, nil)
	if err != nil {
		t.Fatalf("duplicate WriteUnlock returned error: %v", err)
	}
	if created {
		t.Error("Expected duplicate WriteUnlock to report not created")
	}

	// Another user can unlock the same achievement
	created, err = db.WriteUnlock(ctx, 8, def.ID, nil)
	if err != nil || !created {
		t.Errorf("WriteUnlock for second user = %v, %v; want true, nil", created, err)
	}

	has, _ = db.HasUnlock(ctx, 7, "first_5k")
	if !has {
		t.Error("Expected HasUnlock after writing")
	}

	unlocks, err := db.ListUnlocks(ctx, 7)
	if err != nil {
		t.Fatalf("ListUnlocks failed: %v", err)
	}
	if len(unlocks) != 1 {
		t.Fatalf("Expected 1 unlock, got %d", len(unlocks))
	}
	if unlocks[0].SourceActivityID == nil || *unlocks[0].SourceActivityID != 42 {
		t.Errorf("Expected source activity 42, got %v", unlocks[0].SourceActivityID)
	}
}

func TestGetAchievementByKey_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetAchievementByKey(context.Background(), "missing")
	if !errors.Is(err, ErrAchievementNotFound) {
		t.Errorf("Expected ErrAchievementNotFound, got %v", err)
	}
}

func TestStreaks_WriteAndRead(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.GetStreak(ctx, 1, StreakDaily)
	if !errors.Is(err, ErrStreakNotFound) {
		t.Fatalf("Expected ErrStreakNotFound, got %v", err)
	}

	rec := &StreakRecord{UserID: 1, StreakType: StreakDaily, CurrentCount: 3, BestCount: 5, LastActivityDate: "2024-03-10"}
	if err := db.WriteStreak(ctx, rec); err != nil {
		t.Fatalf("WriteStreak failed: %v", err)
	}

	rec2 := &StreakRecord{UserID: 1, StreakType: StreakDaily, CurrentCount: 4, BestCount: 5, LastActivityDate: "2024-03-11"}
	if err := db.WriteStreak(ctx, rec2); err != nil {
		t.Fatalf("second WriteStreak failed: %v", err)
	}

	got, err := db.GetStreak(ctx, 1, StreakDaily)
	if err != nil {
		t.Fatalf("GetStreak failed: %v", err)
	}
	if got.CurrentCount != 4 || got.BestCount != 5 || got.LastActivityDate != "2024-03-11" {
		t.Errorf("Unexpected streak: %+v", got)
	}

	if _, err := db.GetStreak(ctx, 1, StreakWeekly); !errors.Is(err, ErrStreakNotFound) {
		t.Errorf("Expected weekly streak to be absent, got %v", err)
	}
}

func TestActivities_ListPerUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	day := time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC)
	activities := []Activity{
		{ID: 3, AthleteID: 1, Name: "Late", Type: ActivityRun, StartDate: day.AddDate(0, 0, 2), StartDateLocal: day.AddDate(0, 0, 2), Distance: 5000, MovingTime: 1500},
		{ID: 1, AthleteID: 1, Name: "Early", Type: ActivityRide, StartDate: day, StartDateLocal: day, Distance: 20000, MovingTime: 3600, TotalElevationGain: 120},
		{ID: 2, AthleteID: 2, Name: "Other user", Type: ActivityRun, StartDate: day, StartDateLocal: day, Distance: 8000, MovingTime: 2400},
	}
	for i := range activities {
		if err := db.UpsertActivity(ctx, &activities[i]); err != nil {
			t.Fatalf("UpsertActivity failed: %v", err)
		}
	}

	list, err := db.ListActivities(ctx, 1)
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 activities, got %d", len(list))
	}
	if list[0].ID != 1 || list[1].ID != 3 {
		t.Errorf("Expected ascending order [1 3], got [%d %d]", list[0].ID, list[1].ID)
	}
	if list[0].TotalElevationGain != 120 {
		t.Errorf("Expected elevation 120, got %v", list[0].TotalElevationGain)
	}
	if !list[0].StartDateLocal.Equal(day) {
		t.Errorf("Expected start date %v, got %v", day, list[0].StartDateLocal)
	}

	latest, err := db.LatestActivity(ctx, 1)
	if err != nil {
		t.Fatalf("LatestActivity failed: %v", err)
	}
	if latest.ID != 3 {
		t.Errorf("Expected latest activity 3, got %d", latest.ID)
	}

	runs, err := db.CountActivitiesByType(ctx, 1, ActivityRun)
	if err != nil || runs != 1 {
		t.Errorf("CountActivitiesByType = %d, %v; want 1, nil", runs, err)
	}

	if _, err := db.LatestActivity(ctx, 99); !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("Expected ErrActivityNotFound, got %v", err)
	}
}

func TestAlerts_LastAlertAt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, ok, err := db.LastAlertAt(ctx, 1, AlertStreakRisk); err != nil || ok {
		t.Fatalf("LastAlertAt on empty table = %v, %v; want false, nil", ok, err)
	}

	first := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	second := first.Add(6 * time.Hour)
	for i, at := range []time.Time{first, second} {
		a := &Alert{
			ID: []string{"a1", "a2"}[i], UserID: 1, Type: AlertStreakRisk,
			Title: "Streak at risk", Message: "Log an activity today", Priority: PriorityHigh, CreatedAt: at,
		}
		if err := db.CreateAlert(ctx, a); err != nil {
			t.Fatalf("CreateAlert failed: %v", err)
		}
	}

	last, ok, err := db.LastAlertAt(ctx, 1, AlertStreakRisk)
	if err != nil || !ok {
		t.Fatalf("LastAlertAt = %v, %v", ok, err)
	}
	if !last.Equal(second) {
		t.Errorf("Expected last alert at %v, got %v", second, last)
	}

	if err := db.MarkAlertRead(ctx, 1, "a2"); err != nil {
		t.Fatalf("MarkAlertRead failed: %v", err)
	}
	if err := db.MarkAlertRead(ctx, 2, "a1"); !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("MarkAlertRead for another user = %v, want ErrAlertNotFound", err)
	}
	alerts, err := db.ListAlerts(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListAlerts failed: %v", err)
	}
	if len(alerts) != 2 || alerts[0].ID != "a2" || !alerts[0].Read || alerts[1].Read {
		t.Errorf("Unexpected alerts: %+v", alerts)
	}
}

func TestSyncState(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	v, err := db.GetSyncState(ctx, SyncKeyLastActivitySync)
	if err != nil || v != "" {
		t.Fatalf("GetSyncState on missing key = %q, %v", v, err)
	}

	if err := db.SetSyncState(ctx, SyncKeyLastActivitySync, "2024-01-01T00:00:00Z"); err != nil {
		t.Fatalf("SetSyncState failed: %v", err)
	}
	if err := db.SetSyncState(ctx, SyncKeyLastActivitySync, "2024-02-01T00:00:00Z"); err != nil {
		t.Fatalf("SetSyncState overwrite failed: %v", err)
	}

	v, _ = db.GetSyncState(ctx, SyncKeyLastActivitySync)
	if v != "2024-02-01T00:00:00Z" {
		t.Errorf("Expected overwritten value, got %q", v)
	}
}
