// Package app implements the main Bubble Tea application with tab-based navigation.
package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/omnicoach/internal/models"
	"github.com/j-veylop/omnicoach/internal/services"
	"github.com/j-veylop/omnicoach/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabDashboard is the ID for the dashboard tab.
	TabDashboard TabID = iota
	// TabFeedback is the ID for the feedback tab.
	TabFeedback
	// TabInfo is the ID for the info tab.
	TabInfo

	tabCount
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabDashboard:
		return "Dashboard"
	case TabFeedback:
		return "Feedback"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding

	// FullHelp returns key bindings for the full help view.
	FullHelp() [][]key.Binding
}

// Model is the root Bubble Tea model. It owns the navbar, the help panel and
// the toast stack, and forwards everything else to the active tab.
type Model struct {
	activeTab TabID
	tabs      []Tab
	tabNames  []string

	state    *State
	services *services.Manager
	commands *Commands
	keymap   KeyMap
	spinner  spinner.Model

	width, height int
	showHelp      bool
	ready         bool

	eventChannel chan services.ServiceEvent
}

// NewModel initializes a new application model.
func NewModel(mgr *services.Manager) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	names := make([]string, 0, tabCount)
	for id := TabDashboard; id < tabCount; id++ {
		names = append(names, id.String())
	}

	return &Model{
		activeTab: TabDashboard,
		tabNames:  names,
		tabs:      make([]Tab, tabCount),
		state:     NewState(),
		services:  mgr,
		commands:  NewCommands(mgr),
		keymap:    DefaultKeyMap(),
		spinner:   s,
	}
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the application state.
func (m *Model) GetState() *State {
	return m.state
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	m.state.SetLoadingNotification("Loading...")

	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
	}

	if m.services != nil {
		cmds = append(cmds, subscribeToServicesCmd(m.services))
		cmds = append(cmds, loadOverviewCmd(m.services))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg, tea.KeyMsg, spinner.TickMsg:
		if cmd := m.handleTeaMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	default:
		if appCmds := m.handleAppMsg(msg); len(appCmds) > 0 {
			cmds = append(cmds, appCmds...)
		}
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleTeaMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case spinner.TickMsg:
		return m.handleSpinnerTick(msg)
	}
	return nil
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		cmds = append(cmds, m.handleTick())
	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEventMsg(msg)...)
	case OverviewLoadedMsg:
		m.handleOverviewLoaded(msg)
	case GenerateFeedbackMsg:
		if !m.state.IsGenerating() {
			cmds = append(cmds, m.commands.GenerateFeedback())
		}
	case FeedbackResultMsg:
		cmds = append(cmds, m.handleFeedbackResult(msg)...)
	case RateFeedbackMsg:
		cmds = append(cmds, m.commands.RateFeedback(msg.ID, msg.Rating))
	case FeedbackRatedMsg:
		cmds = append(cmds, m.handleFeedbackRated(msg))
	case AddNotificationMsg:
		cmds = append(cmds, m.handleAddNotification(msg)...)
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case ClearExpiredNotificationsMsg:
		m.state.ClearExpiredNotifications()
	case StartLoadingMsg:
		m.handleStartLoading(msg)
	case StopLoadingMsg:
		m.handleStopLoading(msg)
	case ErrorMsg:
		cmds = append(cmds, notifyErrorCmd(msg.Error.Error()))
	case RefreshMsg:
		cmds = append(cmds, m.refresh())
	case TabSwitchMsg:
		m.switchTab(msg.Tab)
	case ToggleHelpMsg:
		m.showHelp = !m.showHelp
	case QuitMsg:
		cmds = append(cmds, tea.Quit)
	}
	return cmds
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.updateTabSizes()
}

func (m *Model) handleSpinnerTick(msg spinner.TickMsg) tea.Cmd {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return cmd
}

func (m *Model) handleTick() tea.Cmd {
	m.state.ClearExpiredNotifications()
	cmds := []tea.Cmd{defaultTickCmd()}
	if m.services != nil && m.state.TimeSinceUpdate() > OverviewRefreshInterval {
		cmds = append(cmds, loadOverviewCmd(m.services))
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleServiceEventMsg(msg ServiceEventMsg) []tea.Cmd {
	var cmds []tea.Cmd
	if cmd := m.handleServiceEvent(msg.Event); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.eventChannel != nil {
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	}
	return cmds
}

func (m *Model) handleOverviewLoaded(msg OverviewLoadedMsg) {
	m.state.SetOverview(msg.Overview)
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}
}

func (m *Model) handleFeedbackResult(msg FeedbackResultMsg) []tea.Cmd {
	m.handleStopLoading(StopLoadingMsg{Resource: ResourceFeedback})

	res := msg.Result
	if !res.Success {
		return []tea.Cmd{notifyErrorCmd(fmt.Sprintf("Feedback failed: %s", res.Error))}
	}
	if res.Entry != nil {
		m.state.PrependFeedback(*res.Entry)
	}
	return []tea.Cmd{notifySuccessCmd("New feedback ready")}
}

func (m *Model) handleFeedbackRated(msg FeedbackRatedMsg) tea.Cmd {
	if msg.Error != nil {
		return notifyErrorCmd(fmt.Sprintf("Failed to rate feedback: %v", msg.Error))
	}
	m.state.SetRating(msg.ID, msg.Rating)
	return notifyInfoCmd(fmt.Sprintf("Rated %d/5", msg.Rating))
}

func (m *Model) handleAddNotification(msg AddNotificationMsg) []tea.Cmd {
	var cmds []tea.Cmd
	id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
	if msg.Duration > 0 {
		cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
	}
	return cmds
}

func (m *Model) handleStartLoading(msg StartLoadingMsg) {
	m.state.SetLoading(msg.Resource, true)
	if msg.Resource == ResourceFeedback {
		m.state.SetLoadingNotification("Generating feedback...")
		return
	}
	m.state.SetLoadingNotification("Refreshing...")
}

func (m *Model) handleStopLoading(msg StopLoadingMsg) {
	m.state.SetLoading(msg.Resource, false)
	if !m.state.AnyLoading() {
		m.state.ClearLoadingNotification()
	}
}

func (m *Model) refresh() tea.Cmd {
	if m.services == nil {
		return nil
	}
	return tea.Batch(
		func() tea.Msg { return StartLoadingMsg{Resource: ResourceOverview} },
		loadOverviewCmd(m.services),
	)
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	tab := m.currentTab()
	if tab == nil {
		return nil
	}
	var cmd tea.Cmd
	m.tabs[m.activeTab], cmd = tab.Update(msg)
	return cmd
}

// updateTabSizes leaves room for the navbar and its border.
func (m *Model) updateTabSizes() {
	contentHeight := max(0, m.height-5)
	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

// handleKeyMsg handles the global bindings. Anything else is left to the
// active tab.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	for _, jump := range m.keymap.tabJumps() {
		if key.Matches(msg, jump.binding) {
			m.switchTab(jump.tab)
			return nil
		}
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keymap.Close):
		m.showHelp = false
	case m.showHelp:
	case key.Matches(msg, m.keymap.NextTab):
		m.switchTab((m.activeTab + 1) % TabID(len(m.tabs)))
	case key.Matches(msg, m.keymap.PrevTab):
		m.switchTab((m.activeTab - 1 + TabID(len(m.tabs))) % TabID(len(m.tabs)))
	case key.Matches(msg, m.keymap.Refresh):
		return m.refresh()
	case key.Matches(msg, m.keymap.Generate):
		return func() tea.Msg { return GenerateFeedbackMsg{} }
	}
	return nil
}

func (m *Model) switchTab(id TabID) {
	m.activeTab = id
	m.updateTabSizes()
}

func (m *Model) currentTab() Tab {
	if int(m.activeTab) < len(m.tabs) {
		return m.tabs[m.activeTab]
	}
	return nil
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.FeedbackGeneratedEvent:
		m.state.PrependFeedback(e.Entry)
		if e.Entry.Trigger == models.TriggerScheduled {
			return tea.Batch(notifyInfoCmd("Your coaching check-in is ready"), m.reloadOverview())
		}
		return m.reloadOverview()

	case services.BudgetEvent:
		prev, _ := m.state.GetOverview()
		m.state.SetBudget(e.Snapshot)
		switch {
		case e.Snapshot.OverBudget && !prev.Budget.OverBudget:
			return notifyWarningCmd(fmt.Sprintf("Over budget: $%.2f of $%.2f", e.Snapshot.Spend, e.Snapshot.Limit))
		case e.Snapshot.ShouldWarn && !prev.Budget.ShouldWarn:
			return notifyWarningCmd(fmt.Sprintf("%.0f%% of the monthly budget used", e.Snapshot.PercentUsed))
		}

	case services.ActivityEvent:
		return m.reloadOverview()

	case services.WeightsReloadedEvent:
		return tea.Batch(
			notifyInfoCmd(fmt.Sprintf("Productivity weights reloaded (%d overrides)", e.Overrides)),
			m.reloadOverview(),
		)

	case services.ErrorEvent:
		return notifyErrorCmd(fmt.Sprintf("[%s] %v", e.Service, e.Error))
	}

	return nil
}

func (m *Model) reloadOverview() tea.Cmd {
	if m.services == nil {
		return nil
	}
	return loadOverviewCmd(m.services)
}
