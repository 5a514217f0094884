package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fitdash/internal/analysis"
	"fitdash/internal/metrics"
	"fitdash/internal/store"
)

// InsightsOptions configures the insights service
type InsightsOptions struct {
	Engine                analysis.Options
	MinRunsForPredictions int
}

// InsightsService runs the analytics engine over stored activities and
// serves its results to the TUI and the HTTP API
type InsightsService struct {
	store   *store.DB
	tracker *analysis.StreakTracker
	engine  *analysis.AchievementEngine
	minRuns int
	log     *slog.Logger
}

// NewInsightsService wires the streak tracker and achievement engine to db
// and alerts
func NewInsightsService(db *store.DB, alerts analysis.AlertSink, catalog []store.Achievement, opts InsightsOptions, log *slog.Logger) *InsightsService {
	if log == nil {
		log = slog.Default()
	}
	if opts.MinRunsForPredictions <= 0 {
		opts.MinRunsForPredictions = DefaultMinRunsForPredictions
	}
	return &InsightsService{
		store:   db,
		tracker: analysis.NewStreakTracker(db, alerts, opts.Engine, log),
		engine:  analysis.NewAchievementEngine(db, alerts, catalog, log),
		minRuns: opts.MinRunsForPredictions,
		log:     log,
	}
}

// RefreshResult summarizes one engine run
type RefreshResult struct {
	Activities int                 `json:"activities"`
	Streaks    analysis.StreakInfo `json:"streaks"`
	Unlocked   []store.Achievement `json:"unlocked"`
}

// Refresh recomputes streaks and evaluates achievements for userID. The
// most recent activity is treated as the one that triggered the run.
func (s *InsightsService) Refresh(ctx context.Context, userID int64) (*RefreshResult, error) {
	activities, err := s.store.ListActivities(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}

	var latest *store.Activity
	if n := len(activities); n > 0 {
		latest = &activities[n-1]
	}

	result := &RefreshResult{Activities: len(activities)}

	start := time.Now()
	result.Streaks, err = s.tracker.Update(ctx, userID, activities)
	metrics.EngineDuration.WithLabelValues(metrics.StageStreaks).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("updating streaks: %w", err)
	}

	start = time.Now()
	result.Unlocked, err = s.engine.Evaluate(ctx, userID, activities, latest)
	metrics.EngineDuration.WithLabelValues(metrics.StageAchievements).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("evaluating achievements: %w", err)
	}
	for _, a := range result.Unlocked {
		metrics.AchievementsUnlockedTotal.WithLabelValues(string(a.Category)).Inc()
	}

	s.log.Info("insights refreshed",
		"user_id", userID,
		"activities", result.Activities,
		"daily_streak", result.Streaks.Daily.Current,
		"weekly_streak", result.Streaks.Weekly.Current,
		"unlocked", len(result.Unlocked),
	)
	return result, nil
}

// Streaks returns the current streaks without persisting them
func (s *InsightsService) Streaks(ctx context.Context, userID int64) (analysis.StreakInfo, error) {
	activities, err := s.store.ListActivities(ctx, userID)
	if err != nil {
		return analysis.StreakInfo{}, fmt.Errorf("listing activities: %w", err)
	}
	return s.tracker.Current(ctx, userID, activities)
}

// Achievements returns progress towards every catalog entry
func (s *InsightsService) Achievements(ctx context.Context, userID int64) ([]analysis.AchievementProgress, error) {
	activities, err := s.store.ListActivities(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	if err := s.engine.EnsureSeeded(ctx); err != nil {
		return nil, err
	}
	return s.engine.Progress(ctx, userID, activities)
}

// Records returns the athlete's personal records
func (s *InsightsService) Records(ctx context.Context, userID int64) ([]analysis.PersonalRecord, error) {
	activities, err := s.store.ListActivities(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}

	start := time.Now()
	records := analysis.PersonalRecords(activities)
	metrics.EngineDuration.WithLabelValues(metrics.StageRecords).Observe(time.Since(start).Seconds())
	return records, nil
}

// PredictionsData holds race predictions plus whether there was enough
// history to make them
type PredictionsData struct {
	HasEnoughData bool                      `json:"has_enough_data"`
	RunCount      int                       `json:"run_count"`
	MinRuns       int                       `json:"min_runs"`
	Predictions   []analysis.RacePrediction `json:"predictions"`
}

// Predictions projects race times. Fewer than the configured minimum of
// timed runs yields HasEnoughData=false and no predictions.
func (s *InsightsService) Predictions(ctx context.Context, userID int64) (*PredictionsData, error) {
	activities, err := s.store.ListActivities(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}

	data := &PredictionsData{
		RunCount:    countTimedRuns(activities),
		MinRuns:     s.minRuns,
		Predictions: []analysis.RacePrediction{},
	}
	if data.RunCount < s.minRuns {
		return data, nil
	}

	start := time.Now()
	predictions := analysis.PredictRaceTimes(activities)
	metrics.EngineDuration.WithLabelValues(metrics.StagePredictions).Observe(time.Since(start).Seconds())

	if len(predictions) > 0 {
		data.HasEnoughData = true
		data.Predictions = predictions
	}
	return data, nil
}

// Alerts returns the most recent alerts for userID, newest first
func (s *InsightsService) Alerts(ctx context.Context, userID int64, limit int) ([]store.Alert, error) {
	if limit <= 0 {
		limit = DefaultAlertsLimit
	}
	limit = min(limit, MaxAlertsLimit)

	alerts, err := s.store.ListAlerts(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	if alerts == nil {
		alerts = []store.Alert{}
	}
	return alerts, nil
}

// MarkAlertRead flags one of userID's alerts as seen
func (s *InsightsService) MarkAlertRead(ctx context.Context, userID int64, id string) error {
	return s.store.MarkAlertRead(ctx, userID, id)
}

func countTimedRuns(activities []store.Activity) int {
	n := 0
	for _, a := range activities {
		if a.Type == store.ActivityRun && a.Distance > 0 && a.MovingTime > 0 {
			n++
		}
	}
	return n
}
