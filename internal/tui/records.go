package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fitdash/internal/analysis"
	"fitdash/internal/service"
)

// RecordsModel is the personal records screen model
type RecordsModel struct {
	insights *service.InsightsService
	userID   int64
	units    Units
	records  []analysis.PersonalRecord
	viewport viewport.Model
	loading  bool
	loaded   bool
	err      error
	ready    bool
}

// NewRecordsModel creates a new records model
func NewRecordsModel(insights *service.InsightsService, userID int64, units Units, width, height int) RecordsModel {
	m := RecordsModel{
		insights: insights,
		userID:   userID,
		units:    units,
		loading:  true,
	}
	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6)
		m.ready = true
	}
	return m
}

// Init initializes the records screen
func (m RecordsModel) Init() tea.Cmd {
	return m.load
}

type recordsLoadedMsg struct {
	records []analysis.PersonalRecord
	err     error
}

func (m RecordsModel) load() tea.Msg {
	records, err := m.insights.Records(context.Background(), m.userID)
	return recordsLoadedMsg{records: records, err: err}
}

// Update handles messages
func (m RecordsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case recordsLoadedMsg:
		m.loading = false
		m.loaded = true
		m.err = msg.err
		m.records = msg.records
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.loaded {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.load
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the records screen
func (m RecordsModel) View() string {
	if m.loading {
		return "\n  Loading personal records..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  j/k or arrows: scroll  r: refresh")
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m RecordsModel) renderContent() string {
	if len(m.records) == 0 {
		return "\n" + helpDescStyle.Render("  No personal records yet. Records need at least one run.")
	}

	var times, others []string
	for _, r := range m.records {
		if r.Kind == analysis.RecordTime {
			times = append(times, fmt.Sprintf("  %-14s  %10s  %10s  %s",
				r.Label,
				formatRaceTime(r.Value),
				m.units.FormatPaceWithUnit(r.Value, raceMeters(r.Label)),
				r.Date.Format("Jan 02, 2006"),
			))
			continue
		}
		others = append(others, fmt.Sprintf("  %-18s  %14s  %s", r.Label, m.formatValue(r), r.Date.Format("Jan 02, 2006")))
	}

	sections := []string{"", cardTitleStyle.Render("Personal Records")}
	if len(times) > 0 {
		header := tableHeaderStyle.UnsetPadding().Render(fmt.Sprintf("  %-14s  %10s  %10s  %s", "Distance", "Time", "Pace", "Date"))
		sections = append(sections, RenderSectionHeader("Fastest Times", 60), header, strings.Join(times, "\n"), "")
	}
	if len(others) > 0 {
		sections = append(sections, RenderSectionHeader("Bests", 60), strings.Join(others, "\n"), "")
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m RecordsModel) formatValue(r analysis.PersonalRecord) string {
	switch r.Kind {
	case analysis.RecordDistance:
		return m.units.FormatDistance(r.Value)
	case analysis.RecordElevation:
		return fmt.Sprintf("%.0f m", r.Value)
	case analysis.RecordDuration:
		return formatRaceTime(r.Value)
	case analysis.RecordPace:
		// value is seconds per km
		return m.units.FormatPaceWithUnit(r.Value, metersPerKm)
	}
	return fmt.Sprintf("%.1f %s", r.Value, r.Unit)
}

// raceMeters returns the distance of a fastest-time record label
func raceMeters(label string) float64 {
	for _, d := range analysis.RecordDistances {
		if d.Label == label {
			return d.Meters
		}
	}
	return 0
}
