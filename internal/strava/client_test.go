package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func setupTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClientWithHTTP(server.Client(), server.URL, nil)
	client.rateLimiter.minInterval = 0
	return client
}

func TestGetAllActivities_Paginates(t *testing.T) {
	const total = 150
	var pages []int

	client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/athlete/activities" {
			http.NotFound(w, r)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		pages = append(pages, page)

		var out []Activity
		for i := (page - 1) * perPage; i < total && i < page*perPage; i++ {
			out = append(out, Activity{ID: int64(i + 1), Name: fmt.Sprintf("Run %d", i+1), Type: "Run"})
		}
		w.Header().Set("X-RateLimit-Limit", "100,1000")
		w.Header().Set("X-RateLimit-Usage", strconv.Itoa(page)+",10")
		json.NewEncoder(w).Encode(out)
	}))

	var progress []int
	activities, err := client.GetAllActivities(context.Background(), time.Time{}, func(n int) {
		progress = append(progress, n)
	})
	if err != nil {
		t.Fatalf("GetAllActivities failed: %v", err)
	}
	if len(activities) != total {
		t.Errorf("Expected %d activities, got %d", total, len(activities))
	}
	if len(pages) != 2 || pages[0] != 1 || pages[1] != 2 {
		t.Errorf("Expected pages [1 2], got %v", pages)
	}
	if len(progress) != 2 || progress[1] != total {
		t.Errorf("Unexpected progress callbacks: %v", progress)
	}
	if short, _ := client.RateLimitStatus(); short != 98 {
		t.Errorf("Expected 98 short-term requests remaining, got %d", short)
	}
}

func TestGetActivities_SendsAfter(t *testing.T) {
	after := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("after"); got != strconv.FormatInt(after.Unix(), 10) {
			t.Errorf("after = %q, want %d", got, after.Unix())
		}
		w.Write([]byte(`[]`))
	}))

	activities, err := client.GetActivities(context.Background(), after, 1, 100)
	if err != nil {
		t.Fatalf("GetActivities failed: %v", err)
	}
	if len(activities) != 0 {
		t.Errorf("Expected no activities, got %d", len(activities))
	}
}

func TestGetActivities_APIError(t *testing.T) {
	client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Authorization Error"}`, http.StatusUnauthorized)
	}))

	_, err := client.GetActivities(context.Background(), time.Time{}, 1, 100)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
}

func TestActivityToStore(t *testing.T) {
	raw := `{
		"id": 99,
		"athlete": {"id": 7},
		"name": "Morning Run",
		"type": "Run",
		"start_date": "2024-03-14T13:00:00Z",
		"start_date_local": "2024-03-14T06:00:00Z",
		"timezone": "(GMT-08:00) America/Los_Angeles",
		"distance": 5012.3,
		"moving_time": 1500,
		"elapsed_time": 1560,
		"total_elevation_gain": 42.5,
		"average_speed": 3.34
	}`

	var a Activity
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	got := a.ToStore(1)

	if got.AthleteID != 7 {
		t.Errorf("AthleteID = %d, want 7", got.AthleteID)
	}
	if got.StartDateLocal.Hour() != 6 {
		t.Errorf("StartDateLocal hour = %d, want 6", got.StartDateLocal.Hour())
	}
	if got.Distance != 5012.3 || got.MovingTime != 1500 || got.TotalElevationGain != 42.5 {
		t.Errorf("Unexpected converted activity: %+v", got)
	}

	a.Athlete.ID = 0
	a.Type = ""
	a.SportType = "TrailRun"
	got = a.ToStore(1)
	if got.AthleteID != 1 || got.Type != "TrailRun" {
		t.Errorf("fallbacks: AthleteID=%d Type=%q", got.AthleteID, got.Type)
	}
}
