package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"fitdash/internal/store"
)

// DefaultStreakAlertMinDays is the shortest daily streak worth warning about
const DefaultStreakAlertMinDays = 3

// StreakStatus describes one streak type
type StreakStatus struct {
	Current  int    `json:"current"`
	Best     int    `json:"best"`
	LastDate string `json:"last_date,omitempty"`
	AtRisk   bool   `json:"at_risk,omitempty"`
}

// StreakInfo holds the daily and weekly streaks for a user
type StreakInfo struct {
	Daily  StreakStatus `json:"daily"`
	Weekly StreakStatus `json:"weekly"`
}

// ComputeStreaks derives the current daily and weekly streaks from the
// activity list. today is the athlete's local date; Best is set to Current
// and must be merged with stored history by the caller.
func ComputeStreaks(activities []store.Activity, today time.Time) StreakInfo {
	var info StreakInfo
	if len(activities) == 0 {
		return info
	}

	days := distinctDesc(activities, activityDate)
	weeks := distinctDesc(activities, func(a store.Activity) time.Time {
		return isoWeekStart(activityDate(a))
	})

	todayDate := civilDate(today)
	lastDate := DateKey(days[0])

	info.Daily = StreakStatus{
		Current:  consecutiveRun(days, todayDate, 1),
		LastDate: lastDate,
	}
	info.Daily.Best = info.Daily.Current
	info.Daily.AtRisk = info.Daily.Current > 0 && !days[0].Equal(todayDate)

	info.Weekly = StreakStatus{
		Current:  consecutiveRun(weeks, isoWeekStart(todayDate), 7),
		LastDate: lastDate,
	}
	info.Weekly.Best = info.Weekly.Current

	return info
}

// distinctDesc reduces activities to distinct civil dates, most recent first
func distinctDesc(activities []store.Activity, key func(store.Activity) time.Time) []time.Time {
	seen := make(map[time.Time]bool, len(activities))
	var dates []time.Time
	for _, a := range activities {
		d := key(a)
		if seen[d] {
			continue
		}
		seen[d] = true
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates
}

// consecutiveRun counts how many entries of desc, starting at the most
// recent, are exactly step days apart. The run is already broken when the
// most recent entry is more than step days before anchor.
func consecutiveRun(desc []time.Time, anchor time.Time, step int) int {
	if len(desc) == 0 || daysBetween(desc[0], anchor) > step {
		return 0
	}

	count := 1
	for i := 1; i < len(desc); i++ {
		if daysBetween(desc[i], desc[i-1]) != step {
			break
		}
		count++
	}
	return count
}

// StreakStore persists streak records
type StreakStore interface {
	GetStreak(ctx context.Context, userID int64, streakType store.StreakType) (*store.StreakRecord, error)
	WriteStreak(ctx context.Context, rec *store.StreakRecord) error
}

// AlertSink receives user notifications. Delivery is fire-and-forget.
type AlertSink interface {
	EmitAlert(ctx context.Context, alert store.Alert)
}

// Options configures the streak tracker and achievement engine
type Options struct {
	Location           *time.Location   // athlete's zone for "today", defaults to time.Local
	StreakAlertMinDays int              // defaults to DefaultStreakAlertMinDays
	Now                func() time.Time // defaults to time.Now
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.StreakAlertMinDays <= 0 {
		o.StreakAlertMinDays = DefaultStreakAlertMinDays
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// StreakTracker computes and persists daily and weekly streaks
type StreakTracker struct {
	store  StreakStore
	alerts AlertSink
	opts   Options
	log    *slog.Logger
}

// NewStreakTracker creates a tracker backed by the given store and alert sink
func NewStreakTracker(st StreakStore, alerts AlertSink, opts Options, log *slog.Logger) *StreakTracker {
	if log == nil {
		log = slog.Default()
	}
	return &StreakTracker{
		store:  st,
		alerts: alerts,
		opts:   opts.withDefaults(),
		log:    log,
	}
}

// Today returns the athlete's current local date
func (t *StreakTracker) Today() time.Time {
	return civilDate(t.opts.Now().In(t.opts.Location))
}

// Current computes the streaks merged with the stored best counts without
// writing anything. The at-risk flag is always recomputed.
func (t *StreakTracker) Current(ctx context.Context, userID int64, activities []store.Activity) (StreakInfo, error) {
	info := ComputeStreaks(activities, t.Today())

	var err error
	if info.Daily.Best, err = t.storedBest(ctx, userID, store.StreakDaily, info.Daily.Current); err != nil {
		return info, err
	}
	if info.Weekly.Best, err = t.storedBest(ctx, userID, store.StreakWeekly, info.Weekly.Current); err != nil {
		return info, err
	}
	return info, nil
}

// Update computes the streaks, persists both streak records and warns the
// athlete when a streak of at least StreakAlertMinDays days is at risk.
func (t *StreakTracker) Update(ctx context.Context, userID int64, activities []store.Activity) (StreakInfo, error) {
	info, err := t.Current(ctx, userID, activities)
	if err != nil {
		return info, err
	}

	now := t.opts.Now().UTC()
	for _, rec := range []store.StreakRecord{
		{UserID: userID, StreakType: store.StreakDaily, CurrentCount: info.Daily.Current, BestCount: info.Daily.Best, LastActivityDate: info.Daily.LastDate, UpdatedAt: now},
		{UserID: userID, StreakType: store.StreakWeekly, CurrentCount: info.Weekly.Current, BestCount: info.Weekly.Best, LastActivityDate: info.Weekly.LastDate, UpdatedAt: now},
	} {
		if err := t.store.WriteStreak(ctx, &rec); err != nil {
			return info, fmt.Errorf("writing %s streak: %w", rec.StreakType, err)
		}
	}

	if info.Daily.AtRisk && info.Daily.Current >= t.opts.StreakAlertMinDays {
		t.log.Info("streak at risk", "user_id", userID, "days", info.Daily.Current, "last_date", info.Daily.LastDate)
		t.alerts.EmitAlert(ctx, store.Alert{
			UserID:    userID,
			Type:      store.AlertStreakRisk,
			Title:     "Streak at risk",
			Message:   fmt.Sprintf("Your %d-day streak ends tonight unless you log an activity today.", info.Daily.Current),
			Priority:  store.PriorityHigh,
			ActionRef: "streaks",
		})
	}

	return info, nil
}

// storedBest returns max(current, stored best)
func (t *StreakTracker) storedBest(ctx context.Context, userID int64, streakType store.StreakType, current int) (int, error) {
	rec, err := t.store.GetStreak(ctx, userID, streakType)
	if errors.Is(err, store.ErrStreakNotFound) {
		return current, nil
	}
	if err != nil {
		return current, fmt.Errorf("reading %s streak: %w", streakType, err)
	}
	return max(current, rec.BestCount), nil
}
