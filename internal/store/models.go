package store

import "time"

// Auth represents OAuth tokens for Strava API access
type Auth struct {
	AthleteID    int64     `db:"athlete_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
}

// Activity types as reported by Strava
const (
	ActivityRun     = "Run"
	ActivityRide    = "Ride"
	ActivitySwim    = "Swim"
	ActivityWalk    = "Walk"
	ActivityHike    = "Hike"
	ActivityWorkout = "Workout"
)

// Activity is a synced activity summary. It is owned by the sync process
// and never modified by the insight calculations.
type Activity struct {
	ID                 int64     `db:"id" json:"id"`
	AthleteID          int64     `db:"athlete_id" json:"athlete_id"`
	Name               string    `db:"name" json:"name"`
	Type               string    `db:"type" json:"type"`
	StartDate          time.Time `db:"start_date" json:"start_date"`
	StartDateLocal     time.Time `db:"start_date_local" json:"start_date_local"` // wall clock time, zone is meaningless
	Timezone           string    `db:"timezone" json:"timezone"`
	Distance           float64   `db:"distance" json:"distance"`       // meters
	MovingTime         int       `db:"moving_time" json:"moving_time"` // seconds
	ElapsedTime        int       `db:"elapsed_time" json:"elapsed_time"`
	TotalElevationGain float64   `db:"total_elevation_gain" json:"total_elevation_gain"` // meters
	AverageSpeed       float64   `db:"average_speed" json:"average_speed"`               // m/s
	Calories           float64   `db:"calories" json:"calories"`
}

// AchievementCategory selects the rule used to evaluate an achievement
type AchievementCategory string

const (
	CategoryDistance      AchievementCategory = "distance"
	CategoryTotalDistance AchievementCategory = "total_distance"
	CategoryStreak        AchievementCategory = "streak"
	CategoryElevation     AchievementCategory = "elevation"
	CategoryMilestone     AchievementCategory = "milestone"
	CategorySpecial       AchievementCategory = "special"
	CategorySpeed         AchievementCategory = "speed"
)

// Valid reports whether c is one of the known categories
func (c AchievementCategory) Valid() bool {
	switch c {
	case CategoryDistance, CategoryTotalDistance, CategoryStreak, CategoryElevation,
		CategoryMilestone, CategorySpecial, CategorySpeed:
		return true
	}
	return false
}

// Achievement is a catalog entry. Threshold semantics depend on Category:
// meters for distance/elevation, days for streak, a count for milestone,
// seconds for speed.
type Achievement struct {
	ID           int64               `db:"id" json:"id"`
	Key          string              `db:"key" json:"key"`
	Name         string              `db:"name" json:"name"`
	Description  string              `db:"description" json:"description"`
	Icon         string              `db:"icon" json:"icon"`
	Category     AchievementCategory `db:"category" json:"category"`
	Threshold    float64             `db:"threshold" json:"threshold"`
	ActivityType string              `db:"activity_type" json:"activity_type,omitempty"` // empty = any type
}

// UnlockRecord marks an achievement as earned by a user
type UnlockRecord struct {
	UserID           int64     `db:"user_id" json:"user_id"`
	AchievementID    int64     `db:"achievement_id" json:"achievement_id"`
	UnlockedAt       time.Time `db:"unlocked_at" json:"unlocked_at"`
	SourceActivityID *int64    `db:"source_activity_id" json:"source_activity_id,omitempty"`
}

// StreakType distinguishes daily from weekly streaks
type StreakType string

const (
	StreakDaily  StreakType = "daily"
	StreakWeekly StreakType = "weekly"
)

// StreakRecord is the persisted state of one streak type for a user
type StreakRecord struct {
	UserID           int64      `db:"user_id"`
	StreakType       StreakType `db:"streak_type"`
	CurrentCount     int        `db:"current_count"`
	BestCount        int        `db:"best_count"`
	LastActivityDate string     `db:"last_activity_date"` // YYYY-MM-DD, empty if none
	UpdatedAt        time.Time  `db:"updated_at"`
}

// Alert priorities
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Alert types
const (
	AlertAchievement = "achievement"
	AlertStreakRisk  = "streak_risk"
)

// Alert is a user-facing notification
type Alert struct {
	ID        string    `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Priority  string    `db:"priority" json:"priority"`
	ActionRef string    `db:"action_ref" json:"action_ref,omitempty"`
	Read      bool      `db:"is_read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
