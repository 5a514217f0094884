package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fitdash/internal/service"
)

// SyncModel is the sync screen model
type SyncModel struct {
	syncService *service.SyncService
	spinner     spinner.Model
	syncing     bool
	phase       string
	fetched     int
	progress    <-chan service.SyncProgress
	done        <-chan SyncDoneMsg
	result      *service.SyncResult
	err         error
	finished    bool
}

// NewSyncModel creates a new sync model
func NewSyncModel(ss *service.SyncService) SyncModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)
	return SyncModel{
		syncService: ss,
		spinner:     s,
	}
}

// Init initializes the sync screen
func (m SyncModel) Init() tea.Cmd {
	return nil
}

// SyncDoneMsg is sent when sync finishes
type SyncDoneMsg struct {
	Result *service.SyncResult
	Err    error
}

type syncStartedMsg struct {
	progress <-chan service.SyncProgress
	done     <-chan SyncDoneMsg
}

type syncProgressMsg service.SyncProgress

// Update handles messages
func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncStartedMsg:
		m.progress = msg.progress
		m.done = msg.done
		return m, waitForSync(m.progress, m.done)

	case syncProgressMsg:
		m.phase = msg.Phase
		if msg.Phase == service.PhaseActivities {
			m.fetched = msg.Completed
		}
		return m, waitForSync(m.progress, m.done)

	case SyncDoneMsg:
		m.syncing = false
		m.finished = true
		m.result = msg.Result
		m.err = msg.Err
		return m, func() tea.Msg { return SyncCompleteMsg{} }

	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if !m.syncing && m.syncService != nil {
			switch msg.String() {
			case "enter", "s":
				m.syncing = true
				m.finished = false
				m.err = nil
				m.result = nil
				m.phase = ""
				m.fetched = 0
				return m, tea.Batch(m.spinner.Tick, m.startSync)
			}
		}
	}
	return m, nil
}

// startSync runs the sync in the background and hands back the channels
// that report on it
func (m SyncModel) startSync() tea.Msg {
	progress := make(chan service.SyncProgress, 8)
	done := make(chan SyncDoneMsg, 1)
	go func() {
		result, err := m.syncService.SyncAll(context.Background(), progress)
		done <- SyncDoneMsg{Result: result, Err: err}
	}()
	return syncStartedMsg{progress: progress, done: done}
}

// waitForSync delivers the next progress update, or the final result once
// the progress channel is closed
func waitForSync(progress <-chan service.SyncProgress, done <-chan SyncDoneMsg) tea.Cmd {
	return func() tea.Msg {
		if p, ok := <-progress; ok {
			return syncProgressMsg(p)
		}
		return <-done
	}
}

// View renders the sync screen
func (m SyncModel) View() string {
	sections := []string{cardTitleStyle.Render("Strava Sync")}

	switch {
	case m.syncService == nil:
		sections = append(sections, warningStyle.Render("\n  Strava is not connected. Add credentials to the config and restart."))
	case m.err != nil:
		sections = append(sections, errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err)))
		sections = append(sections, "\n"+statusStyle.Render("  Press 's' or Enter to retry"))
	case m.syncing:
		sections = append(sections, m.renderProgress())
	case m.finished:
		sections = append(sections, successStyle.Render("\n  Sync complete!"))
		sections = append(sections, m.renderSummary())
		sections = append(sections, "\n"+statusStyle.Render("  Press '1' to go to dashboard"))
	default:
		sections = append(sections, m.renderStartPrompt())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SyncModel) renderStartPrompt() string {
	lines := []string{
		"",
		"  This will sync your Strava activities:",
		"",
		"  1. Fetch new activities from Strava",
		"  2. Update streaks and check achievements",
		"",
	}

	short, daily := m.syncService.RateLimitStatus()
	lines = append(lines, statusStyle.Render(fmt.Sprintf("  API limits: %d/100 (15min), %d/1000 (daily)", short, daily)))
	lines = append(lines, "")
	lines = append(lines, statusStyle.Render("  Press 's' or Enter to start sync"))

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderProgress() string {
	status := "Connecting to Strava..."
	switch m.phase {
	case service.PhaseActivities:
		status = fmt.Sprintf("Fetching activities... %d so far", m.fetched)
	case service.PhaseInsights:
		status = "Updating streaks and achievements..."
	}
	return "\n  " + m.spinner.View() + " " + status
}

func (m SyncModel) renderSummary() string {
	if m.result == nil {
		return ""
	}
	r := m.result
	lines := []string{""}

	if r.ActivitiesStored > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d activities synced", r.ActivitiesStored)))
	} else {
		lines = append(lines, statusStyle.Render("  No new activities"))
	}

	if r.Refresh != nil {
		for _, a := range r.Refresh.Unlocked {
			lines = append(lines, successStyle.Render(fmt.Sprintf("  %s Unlocked: %s", a.Icon, a.Name)))
		}
		if r.Refresh.Streaks.Daily.AtRisk {
			lines = append(lines, warningStyle.Render(fmt.Sprintf("  ⚠ Your %d-day streak is at risk", r.Refresh.Streaks.Daily.Current)))
		}
	}

	if len(r.Errors) > 0 {
		lines = append(lines, "")
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %d errors occurred", len(r.Errors))))
	}

	return strings.Join(lines, "\n")
}
