package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"fitdash/internal/analysis"
	"fitdash/internal/notify"
	"fitdash/internal/service"
	"fitdash/internal/store"
)

var now = time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setupServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	catalog, err := analysis.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	insights := service.NewInsightsService(db, notify.NewSink(db, 0, log), catalog, service.InsightsOptions{
		Engine: analysis.Options{Location: time.UTC, Now: func() time.Time { return now }},
	}, log)
	return New(db, insights, log), db
}

func seedRuns(t *testing.T, db *store.DB, userID int64, days ...int) {
	t.Helper()
	for i, d := range days {
		start := time.Date(2024, 3, d, 7, 0, 0, 0, time.UTC)
		a := store.Activity{
			ID: userID*100 + int64(i), AthleteID: userID, Name: "Run", Type: store.ActivityRun,
			StartDate: start, StartDateLocal: start, Distance: 5000, MovingTime: 1500, ElapsedTime: 1500,
		}
		if err := db.UpsertActivity(context.Background(), &a); err != nil {
			t.Fatalf("UpsertActivity: %v", err)
		}
	}
}

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode error: %v", err)
	}
}

func TestHealth(t *testing.T) {
	s, _ := setupServer(t)
	rec := do(t, s, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := setupServer(t)
	do(t, s, http.MethodGet, "/healthz")

	rec := do(t, s, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Error("expected http_requests_total in metrics output")
	}
}

func TestInvalidUserID(t *testing.T) {
	s, _ := setupServer(t)
	for _, path := range []string{
		"/api/v1/users/abc/streaks",
		"/api/v1/users/0/records",
		"/api/v1/users/-4/achievements",
	} {
		rec := do(t, s, http.MethodGet, path)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
		var body map[string]string
		decode(t, rec, &body)
		if body["error"] == "" {
			t.Errorf("%s: missing error message", path)
		}
	}
}

func TestStreaks(t *testing.T) {
	s, db := setupServer(t)
	seedRuns(t, db, 7, 13, 14)

	rec := do(t, s, http.MethodGet, "/api/v1/users/7/streaks")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var info analysis.StreakInfo
	decode(t, rec, &info)
	if info.Daily.Current != 2 || !info.Daily.AtRisk {
		t.Errorf("daily = %+v, want 2 at risk", info.Daily)
	}
}

func TestRefreshThenAchievementsAndAlerts(t *testing.T) {
	s, db := setupServer(t)
	seedRuns(t, db, 7, 13, 14, 15)

	rec := do(t, s, http.MethodPost, "/api/v1/users/7/refresh")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, want 200", rec.Code)
	}
	var refresh service.RefreshResult
	decode(t, rec, &refresh)
	if refresh.Activities != 3 || len(refresh.Unlocked) == 0 {
		t.Fatalf("refresh = %+v", refresh)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/users/7/achievements")
	var achievements struct {
		Unlocked     int                            `json:"unlocked"`
		Total        int                            `json:"total"`
		Achievements []analysis.AchievementProgress `json:"achievements"`
	}
	decode(t, rec, &achievements)
	if achievements.Unlocked != len(refresh.Unlocked) || achievements.Total != len(achievements.Achievements) {
		t.Errorf("achievements summary = %d/%d", achievements.Unlocked, achievements.Total)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/users/7/alerts?limit=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("alerts status = %d", rec.Code)
	}
	var alerts []store.Alert
	decode(t, rec, &alerts)
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2", len(alerts))
	}

	rec = do(t, s, http.MethodPost, "/api/v1/users/7/alerts/"+alerts[0].ID+"/read")
	if rec.Code != http.StatusNoContent {
		t.Errorf("mark read status = %d, want 204", rec.Code)
	}
	stored, err := db.ListAlerts(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	for _, a := range stored {
		if a.ID == alerts[0].ID && !a.Read {
			t.Error("alert not marked read")
		}
	}

	rec = do(t, s, http.MethodPost, "/api/v1/users/8/alerts/"+alerts[0].ID+"/read")
	if rec.Code != http.StatusNotFound {
		t.Errorf("mark read for another user status = %d, want 404", rec.Code)
	}
}

func TestAlertsBadLimit(t *testing.T) {
	s, _ := setupServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/users/7/alerts?limit=zero")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRecordsEmptyIsArray(t *testing.T) {
	s, _ := setupServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/users/7/records")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestPredictions(t *testing.T) {
	s, db := setupServer(t)
	seedRuns(t, db, 7, 13, 14)

	rec := do(t, s, http.MethodGet, "/api/v1/users/7/predictions")
	var data service.PredictionsData
	decode(t, rec, &data)
	if data.HasEnoughData || data.RunCount != 2 {
		t.Errorf("with 2 runs: %+v", data)
	}

	seedRuns(t, db, 8, 1, 2, 3)
	rec = do(t, s, http.MethodGet, "/api/v1/users/8/predictions")
	decode(t, rec, &data)
	if !data.HasEnoughData || len(data.Predictions) != len(analysis.RaceDistances) {
		t.Errorf("with 3 runs: has=%v predictions=%d", data.HasEnoughData, len(data.Predictions))
	}
	for _, p := range data.Predictions {
		if p.Target == "5k" && p.Confidence != analysis.ConfidenceHigh {
			t.Errorf("5k confidence = %q, want high", p.Confidence)
		}
	}
}

func TestListenAndServe_ShutsDownOnCancel(t *testing.T) {
	s, _ := setupServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
