package strava

import (
	"time"

	"fitdash/internal/store"
)

// Activity represents a Strava activity from the API
type Activity struct {
	ID                 int64     `json:"id"`
	Athlete            Athlete   `json:"athlete"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	SportType          string    `json:"sport_type"`
	StartDate          time.Time `json:"start_date"`
	StartDateLocal     time.Time `json:"start_date_local"`
	Timezone           string    `json:"timezone"`
	Distance           float64   `json:"distance"`             // meters
	MovingTime         int       `json:"moving_time"`          // seconds
	ElapsedTime        int       `json:"elapsed_time"`         // seconds
	TotalElevationGain float64   `json:"total_elevation_gain"` // meters
	AverageSpeed       float64   `json:"average_speed"`        // m/s
	MaxSpeed           float64   `json:"max_speed"`            // m/s
	Calories           float64   `json:"calories"`             // only on detailed activities
}

// Athlete represents a Strava athlete. Activity responses only carry the ID.
type Athlete struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	Firstname string `json:"firstname,omitempty"`
	Lastname  string `json:"lastname,omitempty"`
}

// ToStore converts an API activity to the stored summary. athleteID is used
// when the response omits the athlete.
func (a Activity) ToStore(athleteID int64) store.Activity {
	if a.Athlete.ID != 0 {
		athleteID = a.Athlete.ID
	}
	typ := a.Type
	if typ == "" {
		typ = a.SportType
	}
	return store.Activity{
		ID:                 a.ID,
		AthleteID:          athleteID,
		Name:               a.Name,
		Type:               typ,
		StartDate:          a.StartDate,
		StartDateLocal:     a.StartDateLocal,
		Timezone:           a.Timezone,
		Distance:           a.Distance,
		MovingTime:         a.MovingTime,
		ElapsedTime:        a.ElapsedTime,
		TotalElevationGain: a.TotalElevationGain,
		AverageSpeed:       a.AverageSpeed,
		Calories:           a.Calories,
	}
}
