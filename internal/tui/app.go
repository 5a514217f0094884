package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fitdash/internal/config"
	"fitdash/internal/service"
)

// Screen identifiers
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenAchievements
	ScreenRecords
	ScreenPredictions
	ScreenSync
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	dashboard    DashboardModel
	achievements AchievementsModel
	records      RecordsModel
	predictions  PredictionsModel
	syncScreen   SyncModel
	help         HelpModel

	// Services
	insights    *service.InsightsService
	syncService *service.SyncService
	userID      int64
	units       Units

	// Window dimensions
	width  int
	height int
}

// NewApp creates a new App for one athlete. syncService may be nil when
// Strava is not connected.
func NewApp(insights *service.InsightsService, syncService *service.SyncService, userID int64, display config.DisplayConfig) *App {
	units := NewUnits(display)
	return &App{
		screen:       ScreenDashboard,
		insights:     insights,
		syncService:  syncService,
		userID:       userID,
		units:        units,
		dashboard:    NewDashboardModel(insights, userID, units),
		achievements: NewAchievementsModel(insights, userID, 0, 0),
		records:      NewRecordsModel(insights, userID, units, 0, 0),
		predictions:  NewPredictionsModel(insights, userID, units, 0, 0),
		syncScreen:   NewSyncModel(syncService),
		help:         NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings (unless in sync mode)
		if a.screen != ScreenSync || !a.syncScreen.syncing {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				a.screen = ScreenDashboard
				a.dashboard = NewDashboardModel(a.insights, a.userID, a.units)
				return a, a.dashboard.Init()
			case "2":
				a.screen = ScreenAchievements
				a.achievements = NewAchievementsModel(a.insights, a.userID, a.width, a.height)
				return a, a.achievements.Init()
			case "3":
				a.screen = ScreenRecords
				a.records = NewRecordsModel(a.insights, a.userID, a.units, a.width, a.height)
				return a, a.records.Init()
			case "4":
				a.screen = ScreenPredictions
				a.predictions = NewPredictionsModel(a.insights, a.userID, a.units, a.width, a.height)
				return a, a.predictions.Init()
			case "5", "s":
				if a.screen != ScreenSync {
					a.screen = ScreenSync
					return a, a.syncScreen.Init()
				}
				// Let 's' fall through to sync screen when already there
			case "?":
				a.prevScreen = a.screen
				a.screen = ScreenHelp
				return a, nil
			case "esc":
				if a.screen == ScreenHelp {
					a.screen = a.prevScreen
					return a, nil
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case SyncCompleteMsg:
		// Reload the dashboard in the background so it is fresh on return
		a.dashboard = NewDashboardModel(a.insights, a.userID, a.units)
		return a, a.dashboard.Init()
	}

	return a, a.delegate(msg)
}

// delegate forwards msg to the current screen. Data messages go to the
// screen that requested them even when another screen is showing.
func (a *App) delegate(msg tea.Msg) tea.Cmd {
	target := a.screen
	switch msg.(type) {
	case dashboardDataMsg:
		target = ScreenDashboard
	case achievementsLoadedMsg:
		target = ScreenAchievements
	case recordsLoadedMsg:
		target = ScreenRecords
	case predictionsLoadedMsg:
		target = ScreenPredictions
	case syncStartedMsg, syncProgressMsg, SyncDoneMsg:
		target = ScreenSync
	}

	var cmd tea.Cmd
	var m tea.Model
	switch target {
	case ScreenDashboard:
		m, cmd = a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
	case ScreenAchievements:
		m, cmd = a.achievements.Update(msg)
		a.achievements = m.(AchievementsModel)
	case ScreenRecords:
		m, cmd = a.records.Update(msg)
		a.records = m.(RecordsModel)
	case ScreenPredictions:
		m, cmd = a.predictions.Update(msg)
		a.predictions = m.(PredictionsModel)
	case ScreenSync:
		m, cmd = a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
	case ScreenHelp:
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}
	return cmd
}

// View renders the app
func (a *App) View() string {
	var content string
	switch a.screen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenAchievements:
		content = a.achievements.View()
	case ScreenRecords:
		content = a.records.View()
	case ScreenPredictions:
		content = a.predictions.View()
	case ScreenSync:
		content = a.syncScreen.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, a.renderHeader(), a.renderNav(), content)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("fitdash")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Dashboard", ScreenDashboard},
		{"2", "Achievements", ScreenAchievements},
		{"3", "Records", ScreenRecords},
		{"4", "Predictions", ScreenPredictions},
		{"5", "Sync", ScreenSync},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

// SyncCompleteMsg is sent when sync finishes
type SyncCompleteMsg struct{}
