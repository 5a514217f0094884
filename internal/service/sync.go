package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"fitdash/internal/metrics"
	"fitdash/internal/store"
	"fitdash/internal/strava"
)

// ActivitySource fetches activity summaries from the fitness platform
type ActivitySource interface {
	GetAllActivities(ctx context.Context, after time.Time, onProgress func(fetched int)) ([]strava.Activity, error)
	RateLimitStatus() (shortRemaining, dailyRemaining int)
}

// SyncService orchestrates syncing data from Strava and refreshing insights
type SyncService struct {
	source    ActivitySource
	store     *store.DB
	insights  *InsightsService
	athleteID int64
	log       *slog.Logger
	now       func() time.Time
}

// NewSyncService creates a sync service for one athlete
func NewSyncService(source ActivitySource, db *store.DB, insights *InsightsService, athleteID int64, log *slog.Logger) *SyncService {
	if log == nil {
		log = slog.Default()
	}
	return &SyncService{
		source:    source,
		store:     db,
		insights:  insights,
		athleteID: athleteID,
		log:       log,
		now:       time.Now,
	}
}

// Sync phases
const (
	PhaseActivities = "activities"
	PhaseInsights   = "insights"
)

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase     string
	Completed int
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	ActivitiesFetched int
	ActivitiesStored  int
	Refresh           *RefreshResult
	Errors            []error
}

// Err combines the per-activity errors, nil if there were none
func (r *SyncResult) Err() error {
	return multierr.Combine(r.Errors...)
}

// SyncAll fetches activities started since the previous sync, stores them
// and refreshes the athlete's insights. progress, when non-nil, is closed
// on return.
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	result, err := s.syncAll(ctx, progress)
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		s.log.Error("sync failed", "athlete_id", s.athleteID, "error", err)
		return result, err
	}
	metrics.SyncRunsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.SyncActivitiesCount.Observe(float64(result.ActivitiesFetched))
	return result, nil
}

func (s *SyncService) syncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	result := &SyncResult{}
	report := func(phase string, n int) {
		if progress == nil {
			return
		}
		select {
		case progress <- SyncProgress{Phase: phase, Completed: n}:
		case <-ctx.Done():
		}
	}

	after, err := s.lastSync(ctx)
	if err != nil {
		return result, err
	}
	startedAt := s.now().UTC()

	report(PhaseActivities, 0)
	activities, err := s.source.GetAllActivities(ctx, after, func(n int) { report(PhaseActivities, n) })
	if err != nil {
		return result, fmt.Errorf("fetching activities: %w", err)
	}
	result.ActivitiesFetched = len(activities)

	for _, a := range activities {
		rec := a.ToStore(s.athleteID)
		if err := s.store.UpsertActivity(ctx, &rec); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("storing activity %d: %w", a.ID, err))
			continue
		}
		result.ActivitiesStored++
	}

	if len(result.Errors) == 0 {
		if err := s.store.SetSyncState(ctx, store.SyncKeyLastActivitySync, startedAt.Format(time.RFC3339)); err != nil {
			return result, fmt.Errorf("saving sync state: %w", err)
		}
	}

	s.log.Info("activities synced",
		"athlete_id", s.athleteID,
		"fetched", result.ActivitiesFetched,
		"stored", result.ActivitiesStored,
		"errors", len(result.Errors),
	)

	report(PhaseInsights, 0)
	if result.Refresh, err = s.insights.Refresh(ctx, s.athleteID); err != nil {
		return result, fmt.Errorf("refreshing insights: %w", err)
	}
	return result, nil
}

// lastSync returns the time of the previous successful sync, zero if none
func (s *SyncService) lastSync(ctx context.Context) (time.Time, error) {
	v, err := s.store.GetSyncState(ctx, store.SyncKeyLastActivitySync)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading sync state: %w", err)
	}
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		s.log.Warn("ignoring malformed sync state", "value", v)
		return time.Time{}, nil
	}
	return t, nil
}

// RateLimitStatus returns the current rate limit status from the source
func (s *SyncService) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return s.source.RateLimitStatus()
}
