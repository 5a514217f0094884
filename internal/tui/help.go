package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	sections := []string{
		cardTitleStyle.Render("Keyboard Shortcuts"),
		m.renderSection("Navigation", []keyHelp{
			{"1", "Dashboard"},
			{"2", "Achievements"},
			{"3", "Personal records"},
			{"4", "Race predictions"},
			{"5 or s", "Sync screen"},
			{"?", "Help (this screen)"},
			{"q", "Quit"},
			{"esc", "Back / close help"},
		}),
		m.renderSection("Lists", []keyHelp{
			{"j / down", "Scroll down"},
			{"k / up", "Scroll up"},
			{"r", "Refresh"},
		}),
		m.renderSection("Sync Screen", []keyHelp{
			{"s / enter", "Start sync"},
		}),
		m.renderConcepts(),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	lines := []string{"", sectionStyle.Render(title)}
	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}
	return strings.Join(lines, "\n")
}

func (m HelpModel) renderConcepts() string {
	lines := []string{"", sectionStyle.Render("How It Works"), ""}

	concepts := []struct {
		name string
		desc string
	}{
		{"Daily streak", "Consecutive days with at least one activity, counted back from today or yesterday."},
		{"Weekly streak", "Consecutive ISO weeks (Monday to Sunday) with at least one activity."},
		{"At risk", "You were active yesterday but not yet today."},
		{"Achievements", "Unlock once, based on distance, totals, streaks, climbing, speed and more."},
		{"Predictions", "Riegel formula from your fastest effort closest to each race distance."},
	}

	for _, c := range concepts {
		lines = append(lines, "  "+helpKeyStyle.Render(c.name))
		lines = append(lines, "  "+helpDescStyle.Render(c.desc))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
