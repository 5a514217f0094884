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
	"fitdash/internal/store"
)

// categoryOrder is the display order of achievement sections
var categoryOrder = []struct {
	category store.AchievementCategory
	title    string
}{
	{store.CategoryMilestone, "Milestones"},
	{store.CategoryDistance, "Distance"},
	{store.CategoryTotalDistance, "Total Distance"},
	{store.CategoryStreak, "Streaks"},
	{store.CategoryElevation, "Elevation"},
	{store.CategorySpeed, "Speed"},
	{store.CategorySpecial, "Special"},
}

// AchievementsModel is the achievements screen model
type AchievementsModel struct {
	insights *service.InsightsService
	userID   int64
	progress []analysis.AchievementProgress
	viewport viewport.Model
	loading  bool
	err      error
	ready    bool
}

// NewAchievementsModel creates a new achievements model
func NewAchievementsModel(insights *service.InsightsService, userID int64, width, height int) AchievementsModel {
	m := AchievementsModel{
		insights: insights,
		userID:   userID,
		loading:  true,
	}
	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6)
		m.ready = true
	}
	return m
}

// Init initializes the achievements screen
func (m AchievementsModel) Init() tea.Cmd {
	return m.load
}

type achievementsLoadedMsg struct {
	progress []analysis.AchievementProgress
	err      error
}

func (m AchievementsModel) load() tea.Msg {
	progress, err := m.insights.Achievements(context.Background(), m.userID)
	return achievementsLoadedMsg{progress: progress, err: err}
}

// Update handles messages
func (m AchievementsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case achievementsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.progress = msg.progress
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
		if m.progress != nil {
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

// View renders the achievements screen
func (m AchievementsModel) View() string {
	if m.loading {
		return "\n  Loading achievements..."
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

func (m AchievementsModel) renderContent() string {
	unlocked := 0
	for _, p := range m.progress {
		if p.Unlocked {
			unlocked++
		}
	}

	sections := []string{
		"",
		cardTitleStyle.Render(fmt.Sprintf("Achievements  %d/%d unlocked", unlocked, len(m.progress))),
	}

	for _, c := range categoryOrder {
		var rows []string
		for _, p := range m.progress {
			if p.Achievement.Category == c.category {
				rows = append(rows, renderAchievementRow(p))
			}
		}
		if len(rows) == 0 {
			continue
		}
		sections = append(sections, RenderSectionHeader(c.title, 64), strings.Join(rows, "\n"), "")
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderAchievementRow(p analysis.AchievementProgress) string {
	name := fmt.Sprintf("%s %-22s", p.Achievement.Icon, truncateName(p.Achievement.Name, 22))
	if p.Unlocked {
		when := ""
		if p.UnlockedAt != nil {
			when = p.UnlockedAt.Local().Format("Jan 02, 2006")
		}
		return "  " + successStyle.Render(name+"  ✓ "+when)
	}
	return fmt.Sprintf("  %s  %s %3d%%  %s",
		name,
		RenderProgressBar(p.Percent, 20),
		p.Percent,
		helpDescStyle.Render(p.Achievement.Description),
	)
}
