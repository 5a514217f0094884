package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// HTTP endpoints
	EndpointHealth       = "health"
	EndpointStreaks      = "streaks"
	EndpointAchievements = "achievements"
	EndpointRecords      = "records"
	EndpointPredictions  = "predictions"
	EndpointAlerts       = "alerts"
	EndpointRefresh      = "refresh"

	// Strava API operations
	OpExchangeCode   = "exchange_code"
	OpRefreshToken   = "refresh_token"
	OpGetAthlete     = "get_athlete"
	OpListActivities = "list_activities"

	// Rate limit windows
	RateLimit15Min = "15min"
	RateLimitDaily = "daily"

	// Rate limit buckets
	BucketLimit = "limit"
	BucketUsage = "usage"

	// Engine stages
	StageStreaks      = "streaks"
	StageAchievements = "achievements"
	StageRecords      = "records"
	StagePredictions  = "predictions"

	// Sync results
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"endpoint", "status_code"},
	)
)

// Strava API Metrics
var (
	StravaAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strava_api_requests_total",
			Help: "Total number of Strava API requests",
		},
		[]string{"operation", "status_code"},
	)

	StravaAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strava_api_request_duration_seconds",
			Help:    "Strava API request latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation", "status_code"},
	)

	StravaRateLimitUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "strava_rate_limit_usage",
			Help: "Strava API rate limit usage",
		},
		[]string{"limit_type", "bucket"},
	)
)

// Engine Metrics
var (
	EngineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insights_engine_duration_seconds",
			Help:    "Time spent computing insights per stage",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"stage"},
	)

	AchievementsUnlockedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievements_unlocked_total",
			Help: "Total number of achievements unlocked",
		},
		[]string{"category"},
	)

	AlertsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_emitted_total",
			Help: "Total number of alerts delivered to users",
		},
		[]string{"type", "priority"},
	)

	AlertsSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_suppressed_total",
			Help: "Total number of alerts dropped by the cooldown",
		},
		[]string{"type"},
	)

	AlertDeliveryErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_delivery_errors_total",
			Help: "Total number of alerts that could not be stored",
		},
	)
)

// Sync Metrics
var (
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total number of activity sync runs by result",
		},
		[]string{"result"},
	)

	SyncActivitiesCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_activities_count",
			Help:    "Number of activities fetched per sync run",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)
)
