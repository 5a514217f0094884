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

// PredictionsModel is the race predictions screen model
type PredictionsModel struct {
	insights *service.InsightsService
	userID   int64
	units    Units
	data     *service.PredictionsData
	viewport viewport.Model
	loading  bool
	err      error
	ready    bool
}

// NewPredictionsModel creates a new predictions model
func NewPredictionsModel(insights *service.InsightsService, userID int64, units Units, width, height int) PredictionsModel {
	m := PredictionsModel{
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

// Init initializes the predictions screen
func (m PredictionsModel) Init() tea.Cmd {
	return m.load
}

type predictionsLoadedMsg struct {
	data *service.PredictionsData
	err  error
}

func (m PredictionsModel) load() tea.Msg {
	data, err := m.insights.Predictions(context.Background(), m.userID)
	return predictionsLoadedMsg{data: data, err: err}
}

// Update handles messages
func (m PredictionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case predictionsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
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
		if m.data != nil {
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

// View renders the predictions screen
func (m PredictionsModel) View() string {
	if m.loading {
		return "\n  Loading race predictions..."
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

func (m PredictionsModel) renderContent() string {
	if m.data == nil || !m.data.HasEnoughData {
		return m.renderEmptyState()
	}

	lines := []string{
		"",
		cardTitleStyle.Render("Race Time Predictions"),
		RenderSectionHeader("Predicted Times", 70),
		tableHeaderStyle.UnsetPadding().Render(fmt.Sprintf("  %-15s  %10s  %10s  %-10s  %s", "Distance", "Predicted", "Pace", "Confidence", "Based on")),
	}
	for _, p := range m.data.Predictions {
		lines = append(lines, m.formatPredictionRow(p))
	}
	lines = append(lines, "", m.renderAboutSection())

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m PredictionsModel) renderEmptyState() string {
	lines := []string{
		"",
		cardTitleStyle.Render("Race Time Predictions"),
		helpDescStyle.Render("  Not enough runs to predict race times yet."),
	}
	if m.data != nil {
		lines = append(lines, helpDescStyle.Render(fmt.Sprintf("  %d of %d timed runs logged.", m.data.RunCount, m.data.MinRuns)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m PredictionsModel) formatPredictionRow(p analysis.RacePrediction) string {
	return fmt.Sprintf("  %-15s  %10s  %10s  %s  %s",
		p.TargetName,
		formatRaceTime(p.PredictedSeconds),
		m.units.FormatPaceWithUnit(p.PredictedSeconds, p.TargetMeters),
		confidenceStyle(p.Confidence).Render(fmt.Sprintf("%-10s", p.Confidence)),
		helpDescStyle.Render(fmt.Sprintf("%s in %s", m.units.FormatDistance(p.ReferenceMeters), formatRaceTime(float64(p.ReferenceSeconds)))),
	)
}

func confidenceStyle(c analysis.Confidence) lipgloss.Style {
	switch c {
	case analysis.ConfidenceHigh:
		return successStyle
	case analysis.ConfidenceMedium:
		return warningStyle
	default:
		return errorStyle
	}
}

func (m PredictionsModel) renderAboutSection() string {
	lines := []string{
		RenderSectionHeader("About These Predictions", 70),
		helpDescStyle.Render("  Times use the Riegel formula T2 = T1 x (D2/D1)^1.06 from your fastest"),
		helpDescStyle.Render("  effort closest to each race distance."),
		"",
		fmt.Sprintf("    %s - reference within 0.7x to 1.5x of the race distance", successStyle.Render("high")),
		fmt.Sprintf("    %s - within 0.4x to 2.5x", warningStyle.Render("medium")),
		fmt.Sprintf("    %s - large extrapolation (e.g., 5K to marathon)", errorStyle.Render("low")),
	}
	return strings.Join(lines, "\n")
}
