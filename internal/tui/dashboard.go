package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"fitdash/internal/analysis"
	"fitdash/internal/service"
	"fitdash/internal/store"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	insights *service.InsightsService
	userID   int64
	units    Units
	data     *service.DashboardData
	loading  bool
	err      error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(insights *service.InsightsService, userID int64, units Units) DashboardModel {
	return DashboardModel{
		insights: insights,
		userID:   userID,
		units:    units,
		loading:  true,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

func (m DashboardModel) loadData() tea.Msg {
	data, err := m.insights.Dashboard(context.Background(), m.userID)
	return dashboardDataMsg{data: data, err: err}
}

type dashboardDataMsg struct {
	data *service.DashboardData
	err  error
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil || m.data.ActivityCount == 0 {
		return "\n  No activities yet. Press 's' to sync with Strava."
	}

	var sections []string

	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		renderStreakCard("Daily Streak", "day", m.data.Streaks.Daily),
		"  ",
		renderStreakCard("Weekly Streak", "week", m.data.Streaks.Weekly),
		"  ",
		m.renderWeekCard(),
	)
	sections = append(sections, topRow)

	if len(m.data.WeeklyDistance) > 1 {
		sections = append(sections, m.renderChart())
	}

	bottomRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderAlerts(), "  ", m.renderRecentActivities())
	sections = append(sections, bottomRow)

	help := statusStyle.Render("Press 'r' to refresh, 's' to sync, '2' for achievements")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderStreakCard shows one streak with its best and the at-risk warning
func renderStreakCard(title, unit string, s analysis.StreakStatus) string {
	plural := unit
	if s.Current != 1 {
		plural += "s"
	}

	lines := []string{
		cardTitleStyle.Render(title),
		metricValueStyle.Render(fmt.Sprintf("🔥 %d %s", s.Current, plural)),
		RenderMetric("Best", fmt.Sprintf("%d", s.Best), ""),
	}
	if s.LastDate != "" {
		lines = append(lines, RenderMetric("Last active", s.LastDate, ""))
	}
	if s.AtRisk {
		lines = append(lines, "", warningStyle.Render("⚠ At risk: log an activity today"))
	}

	return cardStyle.Width(34).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m DashboardModel) renderWeekCard() string {
	title := cardTitleStyle.Render("This Week")

	lines := []string{
		RenderMetric("Activities", fmt.Sprintf("%d", m.data.WeekActivityCount), ""),
		RenderMetric("Distance", m.units.FormatDistance(m.data.WeekDistance), ""),
		RenderMetric("Time", formatDuration(m.data.WeekTime), ""),
		RenderMetric("Achievements", fmt.Sprintf("%d/%d", m.data.Unlocked, m.data.CatalogSize), ""),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(34).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderChart() string {
	title := cardTitleStyle.Render(fmt.Sprintf("Weekly Distance (%s) - Last %d Weeks", m.units.DistanceLabel(), len(m.data.WeeklyDistance)))

	series := make([]float64, len(m.data.WeeklyDistance))
	for i, d := range m.data.WeeklyDistance {
		series[i] = m.units.Distance(d)
	}

	graph := asciigraph.Plot(series,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Precision(1),
		asciigraph.Caption(fmt.Sprintf("%s .. %s", m.data.WeeklyLabels[0], m.data.WeeklyLabels[len(m.data.WeeklyLabels)-1])),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderAlerts() string {
	title := cardTitleStyle.Render("Recent Alerts")

	if len(m.data.RecentAlerts) == 0 {
		return cardStyle.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left, title, "Nothing new"))
	}

	var rows []string
	for _, a := range m.data.RecentAlerts {
		rows = append(rows, renderAlert(a))
	}
	return cardStyle.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

func renderAlert(a store.Alert) string {
	style := alertNormalStyle
	if a.Priority == store.PriorityHigh {
		style = alertHighStyle
	}
	return style.Render(truncateName(a.Title, 36)) + " " + helpDescStyle.Render(a.CreatedAt.Local().Format("Jan 02"))
}

func (m DashboardModel) renderRecentActivities() string {
	title := cardTitleStyle.Render("Recent Activities")

	if len(m.data.RecentActivities) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No activities yet"))
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-7s  %-18s  %-6s  %9s  %8s",
		"Date", "Name", "Type", "Distance", "Time"))

	rows := []string{header}
	for _, a := range m.data.RecentActivities {
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-7s  %-18s  %-6s  %9s  %8s",
			a.StartDateLocal.Format("Jan 02"),
			truncateName(a.Name, 18),
			truncateName(a.Type, 6),
			m.units.FormatDistance(a.Distance),
			formatDuration(a.MovingTime),
		)))
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}
