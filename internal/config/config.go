package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // timezone names must resolve on hosts without zoneinfo
)

// Config represents the application configuration
type Config struct {
	Strava       StravaConfig   `json:"strava"`
	Server       ServerConfig   `json:"server"`
	Display      DisplayConfig  `json:"display"`
	Insights     InsightsConfig `json:"insights"`
	DatabasePath string         `json:"database_path,omitempty"` // defaults to ~/.fitdash/data.db
	LogLevel     string         `json:"log_level,omitempty"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// ServerConfig holds the HTTP API listen address
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit"`
	PaceUnit     string `json:"pace_unit"`
}

// InsightsConfig tunes streaks, alerts and predictions
type InsightsConfig struct {
	Timezone              string `json:"timezone"`       // IANA name; empty means the system zone
	StreakAlertMinDays    int    `json:"streak_alert_min_days"`
	AlertCooldown         string `json:"alert_cooldown"` // Go duration, "0s" disables
	MinRunsForPredictions int    `json:"min_runs_for_predictions"`
}

// Location resolves the configured timezone
func (i InsightsConfig) Location() (*time.Location, error) {
	if i.Timezone == "" || strings.EqualFold(i.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(i.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", i.Timezone, err)
	}
	return loc, nil
}

// Cooldown parses the alert cooldown
func (i InsightsConfig) Cooldown() (time.Duration, error) {
	if i.AlertCooldown == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(i.AlertCooldown)
	if err != nil {
		return 0, fmt.Errorf("parsing insights.alert_cooldown: %w", err)
	}
	return d, nil
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8090,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
			PaceUnit:     "min/km",
		},
		Insights: InsightsConfig{
			StreakAlertMinDays:    3,
			AlertCooldown:         "12h",
			MinRunsForPredictions: 3,
		},
		LogLevel: "info",
	}
}

// Load reads the configuration from ~/.fitdash/config.json and applies
// FITDASH_* environment overrides
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// FromEnv returns the defaults with environment overrides applied. Used
// when no config file exists, e.g. in containers.
func FromEnv() *Config {
	cfg := DefaultConfig()
	applyEnvOverrides(&cfg)
	return &cfg
}

// applyDefaults fills values a config file zeroed out
func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaults.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if cfg.Display.DistanceUnit == "" {
		cfg.Display.DistanceUnit = defaults.Display.DistanceUnit
	}
	if cfg.Display.PaceUnit == "" {
		cfg.Display.PaceUnit = defaults.Display.PaceUnit
	}
	if cfg.Insights.StreakAlertMinDays == 0 {
		cfg.Insights.StreakAlertMinDays = defaults.Insights.StreakAlertMinDays
	}
	if cfg.Insights.AlertCooldown == "" {
		cfg.Insights.AlertCooldown = defaults.Insights.AlertCooldown
	}
	if cfg.Insights.MinRunsForPredictions == 0 {
		cfg.Insights.MinRunsForPredictions = defaults.Insights.MinRunsForPredictions
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
}

// applyEnvOverrides reads FITDASH_STRAVA_CLIENT_ID, FITDASH_STRAVA_CLIENT_SECRET,
// FITDASH_SERVER_HOST, FITDASH_SERVER_PORT, FITDASH_DATABASE_PATH,
// FITDASH_LOG_LEVEL, FITDASH_TIMEZONE and FITDASH_ALERT_COOLDOWN
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FITDASH_STRAVA_CLIENT_ID"); v != "" {
		cfg.Strava.ClientID = v
	}
	if v := os.Getenv("FITDASH_STRAVA_CLIENT_SECRET"); v != "" {
		cfg.Strava.ClientSecret = v
	}
	if v := os.Getenv("FITDASH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FITDASH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FITDASH_DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("FITDASH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FITDASH_TIMEZONE"); v != "" {
		cfg.Insights.Timezone = v
	}
	if v := os.Getenv("FITDASH_ALERT_COOLDOWN"); v != "" {
		cfg.Insights.AlertCooldown = v
	}
}

// Save writes the configuration to ~/.fitdash/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes the configuration to path
func SaveTo(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
	}
	return Save(&example)
}

// ValidateStrava checks the Strava credentials needed for syncing
func (c *Config) ValidateStrava() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}
	return nil
}

// Validate checks everything except the Strava credentials
func (c *Config) Validate() error {
	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}
	if c.Display.PaceUnit != "" && c.Display.PaceUnit != "min/km" && c.Display.PaceUnit != "min/mi" {
		return fmt.Errorf("display.pace_unit must be \"min/km\" or \"min/mi\", got %q", c.Display.PaceUnit)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Server.Port)
	}

	if _, err := c.Insights.Location(); err != nil {
		return fmt.Errorf("insights.timezone: %w", err)
	}
	cooldown, err := c.Insights.Cooldown()
	if err != nil {
		return err
	}
	if cooldown < 0 {
		return fmt.Errorf("insights.alert_cooldown must not be negative, got %s", cooldown)
	}
	if c.Insights.StreakAlertMinDays < 0 {
		return fmt.Errorf("insights.streak_alert_min_days must not be negative, got %d", c.Insights.StreakAlertMinDays)
	}
	if c.Insights.MinRunsForPredictions < 0 {
		return fmt.Errorf("insights.min_runs_for_predictions must not be negative, got %d", c.Insights.MinRunsForPredictions)
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// ParseLogLevel maps debug|info|warn|error to a slog level. Empty means info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s)
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".fitdash"), nil
}
