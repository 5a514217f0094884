package tui

import (
	"fmt"
	"math"

	"fitdash/internal/config"
)

const (
	metersPerMile = 1609.34
	metersPerKm   = 1000.0
)

// Units provides unit conversion and formatting based on user preferences
type Units struct {
	cfg config.DisplayConfig
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg}
}

// IsMiles returns true if distance unit is miles
func (u Units) IsMiles() bool {
	return u.cfg.DistanceUnit == "mi"
}

// Distance converts meters to the preferred unit
func (u Units) Distance(meters float64) float64 {
	if u.IsMiles() {
		return meters / metersPerMile
	}
	return meters / metersPerKm
}

// FormatDistance formats a distance in meters to the user's preferred unit
func (u Units) FormatDistance(meters float64) string {
	return fmt.Sprintf("%.1f %s", u.Distance(meters), u.DistanceLabel())
}

// FormatPace formats pace from total seconds and meters to the user's preferred unit
func (u Units) FormatPace(seconds float64, meters float64) string {
	if meters <= 0 || seconds <= 0 {
		return "-"
	}

	var paceSeconds float64
	if u.cfg.PaceUnit == "min/mi" {
		paceSeconds = seconds / (meters / metersPerMile)
	} else {
		paceSeconds = seconds / (meters / metersPerKm)
	}

	total := int(math.Round(paceSeconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatPaceWithUnit formats pace with the unit label
func (u Units) FormatPaceWithUnit(seconds float64, meters float64) string {
	pace := u.FormatPace(seconds, meters)
	if pace == "-" {
		return pace
	}
	return pace + "/" + u.paceDistanceLabel()
}

// DistanceLabel returns the short unit label ("mi" or "km")
func (u Units) DistanceLabel() string {
	if u.IsMiles() {
		return "mi"
	}
	return "km"
}

// PaceLabel returns the pace unit label ("min/mi" or "min/km")
func (u Units) PaceLabel() string {
	if u.cfg.PaceUnit == "min/mi" {
		return "min/mi"
	}
	return "min/km"
}

func (u Units) paceDistanceLabel() string {
	if u.cfg.PaceUnit == "min/mi" {
		return "mi"
	}
	return "km"
}

// formatDuration renders seconds as "1h 5m" or "42m"
func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// formatRaceTime renders seconds as h:mm:ss, or m:ss under an hour
func formatRaceTime(seconds float64) string {
	total := int(math.Round(seconds))
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func truncateName(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
