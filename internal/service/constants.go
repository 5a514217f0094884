package service

const (
	// Unit conversions
	MetersPerKm   = 1000.0
	MetersPerMile = 1609.34

	// Time windows
	ChartWeeks = 12

	// List limits
	RecentActivitiesLimit = 5
	RecentAlertsLimit     = 5
	DefaultAlertsLimit    = 20
	MaxAlertsLimit        = 100

	// Default for predictions when the config leaves it unset
	DefaultMinRunsForPredictions = 3
)
