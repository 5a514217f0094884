package service

import (
	"context"
	"fmt"
	"time"

	"fitdash/internal/analysis"
	"fitdash/internal/store"
)

// DashboardData contains all data needed for the dashboard
type DashboardData struct {
	Streaks analysis.StreakInfo

	// Totals
	ActivityCount int
	TotalDistance float64 // meters
	Unlocked      int
	CatalogSize   int

	// This week
	WeekActivityCount int
	WeekDistance      float64 // meters
	WeekTime          int     // seconds

	RecentActivities []store.Activity
	RecentAlerts     []store.Alert

	// For charts
	WeeklyDistance []float64 // meters per week, oldest first
	WeeklyLabels   []string  // Week labels (e.g., "Jan 06")
}

// Dashboard gathers the overview shown on the TUI home screen
func (s *InsightsService) Dashboard(ctx context.Context, userID int64) (*DashboardData, error) {
	activities, err := s.store.ListActivities(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}

	data := &DashboardData{ActivityCount: len(activities)}

	if data.Streaks, err = s.tracker.Current(ctx, userID, activities); err != nil {
		return nil, err
	}

	if err := s.engine.EnsureSeeded(ctx); err != nil {
		return nil, err
	}
	if data.CatalogSize, err = s.store.CountAchievements(ctx); err != nil {
		return nil, fmt.Errorf("counting achievements: %w", err)
	}
	unlocks, err := s.store.ListUnlocks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing unlocks: %w", err)
	}
	data.Unlocked = len(unlocks)

	if data.RecentAlerts, err = s.Alerts(ctx, userID, RecentAlertsLimit); err != nil {
		return nil, err
	}

	for _, a := range activities {
		data.TotalDistance += a.Distance
	}

	// Newest first
	for i := len(activities) - 1; i >= 0 && len(data.RecentActivities) < RecentActivitiesLimit; i-- {
		data.RecentActivities = append(data.RecentActivities, activities[i])
	}

	data.WeeklyDistance, data.WeeklyLabels = weeklyDistance(activities, s.tracker.Today(), ChartWeeks)

	thisWeek := analysis.ISOWeekKey(s.tracker.Today())
	for _, a := range activities {
		if analysis.ISOWeekKey(activityDay(a)) == thisWeek {
			data.WeekActivityCount++
			data.WeekDistance += a.Distance
			data.WeekTime += a.MovingTime
		}
	}

	return data, nil
}

// weeklyDistance buckets distance into the last n Monday-based weeks ending
// with the week containing today
func weeklyDistance(activities []store.Activity, today time.Time, n int) ([]float64, []string) {
	weekday := int(today.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	currentMonday := time.Date(today.Year(), today.Month(), today.Day()-(weekday-1), 0, 0, 0, 0, time.UTC)
	firstMonday := currentMonday.AddDate(0, 0, -7*(n-1))

	distances := make([]float64, n)
	labels := make([]string, n)
	for i := range labels {
		labels[i] = firstMonday.AddDate(0, 0, 7*i).Format("Jan 02")
	}

	for _, a := range activities {
		day := activityDay(a)
		if day.Before(firstMonday) {
			continue
		}
		idx := int(day.Sub(firstMonday).Hours()/24) / 7
		if idx >= 0 && idx < n {
			distances[idx] += a.Distance
		}
	}
	return distances, labels
}

// activityDay is the local calendar day an activity started on
func activityDay(a store.Activity) time.Time {
	start := a.StartDateLocal
	if start.IsZero() {
		start = a.StartDate
	}
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}
