package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"fitdash/internal/store"
)

// AchievementStore is the persistence the achievement engine needs
type AchievementStore interface {
	CountAchievements(ctx context.Context) (int, error)
	SeedCatalog(ctx context.Context, defs []store.Achievement) error
	GetAchievementCatalog(ctx context.Context) ([]store.Achievement, error)
	HasUnlock(ctx context.Context, userID int64, key string) (bool, error)
	WriteUnlock(ctx context.Context, userID, achievementID int64, sourceActivityID *int64) (bool, error)
	ListUnlocks(ctx context.Context, userID int64) ([]store.UnlockRecord, error)
	GetStreak(ctx context.Context, userID int64, streakType store.StreakType) (*store.StreakRecord, error)
}

// AchievementProgress reports how close a user is to one achievement
type AchievementProgress struct {
	Achievement store.Achievement `json:"achievement"`
	Unlocked    bool              `json:"unlocked"`
	UnlockedAt  *time.Time        `json:"unlocked_at,omitempty"`
	Current     float64           `json:"current"`
	Percent     int               `json:"percent"`
}

// AchievementEngine evaluates the achievement catalog against a user's activities
type AchievementEngine struct {
	store   AchievementStore
	alerts  AlertSink
	catalog []store.Achievement
	log     *slog.Logger
}

// NewAchievementEngine creates an engine that seeds catalog into an empty store
func NewAchievementEngine(st AchievementStore, alerts AlertSink, catalog []store.Achievement, log *slog.Logger) *AchievementEngine {
	if log == nil {
		log = slog.Default()
	}
	return &AchievementEngine{
		store:   st,
		alerts:  alerts,
		catalog: catalog,
		log:     log,
	}
}

// EnsureSeeded loads the built-in catalog when the store has none
func (e *AchievementEngine) EnsureSeeded(ctx context.Context) error {
	n, err := e.store.CountAchievements(ctx)
	if err != nil {
		return fmt.Errorf("counting achievements: %w", err)
	}
	if n > 0 {
		return nil
	}

	if err := e.store.SeedCatalog(ctx, e.catalog); err != nil {
		return fmt.Errorf("seeding achievements: %w", err)
	}
	e.log.Info("seeded achievement catalog", "count", len(e.catalog))
	return nil
}

// Evaluate unlocks every achievement the user has newly satisfied and
// returns them. latest is the activity that triggered the evaluation and
// may be nil; special achievements need it. Running Evaluate again on the
// same data unlocks nothing.
func (e *AchievementEngine) Evaluate(ctx context.Context, userID int64, activities []store.Activity, latest *store.Activity) ([]store.Achievement, error) {
	if err := e.EnsureSeeded(ctx); err != nil {
		return nil, err
	}

	defs, err := e.store.GetAchievementCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading achievement catalog: %w", err)
	}

	streak, err := e.streakValue(ctx, userID)
	if err != nil {
		return nil, err
	}

	var source *int64
	if latest != nil {
		id := latest.ID
		source = &id
	}

	var unlocked []store.Achievement
	for _, def := range defs {
		has, err := e.store.HasUnlock(ctx, userID, def.Key)
		if err != nil {
			return unlocked, fmt.Errorf("checking unlock %s: %w", def.Key, err)
		}
		if has || !satisfied(def, activities, latest, streak) {
			continue
		}

		created, err := e.store.WriteUnlock(ctx, userID, def.ID, source)
		if err != nil {
			return unlocked, fmt.Errorf("writing unlock %s: %w", def.Key, err)
		}
		if !created {
			continue
		}

		unlocked = append(unlocked, def)
		e.log.Info("achievement unlocked", "user_id", userID, "key", def.Key, "category", def.Category)
		e.alerts.EmitAlert(ctx, store.Alert{
			UserID:    userID,
			Type:      store.AlertAchievement,
			Title:     fmt.Sprintf("%s %s", def.Icon, def.Name),
			Message:   def.Description,
			Priority:  store.PriorityNormal,
			ActionRef: def.Key,
		})
	}

	return unlocked, nil
}

// Progress reports, for every catalog entry, whether it is unlocked and how
// far along the user is
func (e *AchievementEngine) Progress(ctx context.Context, userID int64, activities []store.Activity) ([]AchievementProgress, error) {
	if err := e.EnsureSeeded(ctx); err != nil {
		return nil, err
	}

	defs, err := e.store.GetAchievementCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading achievement catalog: %w", err)
	}
	unlocks, err := e.store.ListUnlocks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing unlocks: %w", err)
	}
	unlockedAt := make(map[int64]time.Time, len(unlocks))
	for _, u := range unlocks {
		unlockedAt[u.AchievementID] = u.UnlockedAt
	}

	streak, err := e.streakValue(ctx, userID)
	if err != nil {
		return nil, err
	}

	progress := make([]AchievementProgress, 0, len(defs))
	for _, def := range defs {
		p := AchievementProgress{Achievement: def}
		if at, ok := unlockedAt[def.ID]; ok {
			p.Unlocked = true
			p.UnlockedAt = &at
			p.Percent = 100
		}

		matching := filterByType(activities, def.ActivityType)
		switch def.Category {
		case store.CategorySpeed:
			p.Current = bestExtrapolatedTime(def, matching)
			if !p.Unlocked && p.Current > 0 {
				p.Percent = percent(def.Threshold, p.Current)
			}
		case store.CategorySpecial:
			// binary; no partial progress
		default:
			p.Current = categoryValue(def, matching, streak)
			if !p.Unlocked {
				p.Percent = percent(p.Current, def.Threshold)
			}
		}
		progress = append(progress, p)
	}
	return progress, nil
}

// streakValue returns the larger of the current and best daily streak
func (e *AchievementEngine) streakValue(ctx context.Context, userID int64) (float64, error) {
	rec, err := e.store.GetStreak(ctx, userID, store.StreakDaily)
	if errors.Is(err, store.ErrStreakNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading daily streak: %w", err)
	}
	return float64(max(rec.CurrentCount, rec.BestCount)), nil
}

// satisfied applies the category rule for def
func satisfied(def store.Achievement, activities []store.Activity, latest *store.Activity, streak float64) bool {
	matching := filterByType(activities, def.ActivityType)

	switch def.Category {
	case store.CategorySpecial:
		if latest == nil || !matchesType(*latest, def.ActivityType) {
			return false
		}
		return specialSatisfied(def, matching, *latest)
	case store.CategorySpeed:
		best := bestExtrapolatedTime(def, matching)
		return best > 0 && best <= def.Threshold
	default:
		return categoryValue(def, matching, streak) >= def.Threshold
	}
}

// categoryValue returns the measured quantity for threshold categories
func categoryValue(def store.Achievement, activities []store.Activity, streak float64) float64 {
	switch def.Category {
	case store.CategoryDistance:
		return maxOf(activities, func(a store.Activity) float64 { return a.Distance })
	case store.CategoryTotalDistance:
		return sumOf(activities, func(a store.Activity) float64 { return a.Distance })
	case store.CategoryStreak:
		return streak
	case store.CategoryElevation:
		if strings.Contains(def.Key, "total") {
			return sumOf(activities, func(a store.Activity) float64 { return a.TotalElevationGain })
		}
		return maxOf(activities, func(a store.Activity) float64 { return a.TotalElevationGain })
	case store.CategoryMilestone:
		return float64(len(activities))
	}
	return 0
}

// speedDistances maps speed achievement key suffixes to distances in meters
var speedDistances = []struct {
	suffix string
	meters float64
}{
	{"_half_marathon", 21097.5},
	{"_half", 21097.5},
	{"_marathon", 42195},
	{"_10k", 10000},
	{"_5k", 5000},
	{"_1k", 1000},
}

// SpeedDistance returns the distance a speed achievement is measured over
func SpeedDistance(key string) (float64, bool) {
	for _, sd := range speedDistances {
		if strings.HasSuffix(key, sd.suffix) {
			return sd.meters, true
		}
	}
	return 0, false
}

// bestExtrapolatedTime returns the fastest time over the achievement's
// distance, scaled linearly from activities at least that long. Zero means
// no activity qualifies.
func bestExtrapolatedTime(def store.Achievement, activities []store.Activity) float64 {
	required, ok := SpeedDistance(def.Key)
	if !ok {
		return 0
	}

	var best float64
	for _, a := range activities {
		if a.Distance < required || a.Distance <= 0 || a.MovingTime <= 0 {
			continue
		}
		t := required / a.Distance * float64(a.MovingTime)
		if best == 0 || t < best {
			best = t
		}
	}
	return best
}

// specialSatisfied matches the time-of-day and calendar patterns
func specialSatisfied(def store.Achievement, activities []store.Activity, latest store.Activity) bool {
	start := localStart(latest)
	hour := start.Hour()

	switch {
	case strings.Contains(def.Key, "early_bird"):
		return hour < 6
	case strings.Contains(def.Key, "night_owl"):
		return hour >= 21
	case strings.Contains(def.Key, "lunch"):
		return hour == 12
	case strings.Contains(def.Key, "new_year"):
		return start.Month() == time.January && start.Day() == 1
	case strings.Contains(def.Key, "weekend_warrior"):
		year, month := start.Year(), start.Month()
		count := 0
		for _, a := range activities {
			s := localStart(a)
			if s.Year() != year || s.Month() != month {
				continue
			}
			if wd := s.Weekday(); wd == time.Saturday || wd == time.Sunday {
				count++
			}
		}
		return float64(count) >= def.Threshold
	}
	return false
}

func filterByType(activities []store.Activity, activityType string) []store.Activity {
	if activityType == "" {
		return activities
	}
	var out []store.Activity
	for _, a := range activities {
		if matchesType(a, activityType) {
			out = append(out, a)
		}
	}
	return out
}

func matchesType(a store.Activity, activityType string) bool {
	return activityType == "" || strings.EqualFold(a.Type, activityType)
}

func maxOf(activities []store.Activity, value func(store.Activity) float64) float64 {
	var m float64
	for _, a := range activities {
		m = math.Max(m, value(a))
	}
	return m
}

func sumOf(activities []store.Activity, value func(store.Activity) float64) float64 {
	var s float64
	for _, a := range activities {
		s += value(a)
	}
	return s
}

// percent returns round(100 * num / den) capped at 100
func percent(num, den float64) int {
	if den <= 0 {
		return 100
	}
	return int(math.Min(100, math.Round(100*num/den)))
}
