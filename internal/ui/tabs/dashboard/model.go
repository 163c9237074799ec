// Package dashboard provides the overview tab: budget, today's activity and
// the coaching schedule.
package dashboard

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/omnicoach/internal/app"
	"github.com/j-veylop/omnicoach/internal/services"
	"github.com/j-veylop/omnicoach/internal/ui/components"
)

const topAppCount = 5

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	ScrollDown  key.Binding
	ScrollUp    key.Binding
	ToggleChart key.Binding
	Refresh     key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ScrollDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "scroll down"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "scroll up"),
		),
		ToggleChart: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle burn chart"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state     *app.State
	spinner   components.LoadingSpinner
	keys      keyMap
	viewport  viewport.Model
	budgetBar components.BudgetBar
	width     int
	height    int
	showChart bool
}

// New creates a new dashboard model.
func New(state *app.State) *Model {
	return &Model{
		state:     state,
		spinner:   components.NewSpinner("Loading overview..."),
		budgetBar: components.NewBudgetBar(),
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		showChart: true,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case components.AnimationTickMsg:
		var cmd tea.Cmd
		m.budgetBar, cmd = m.budgetBar.Update(msg)
		cmds = append(cmds, cmd)

	case app.OverviewLoadedMsg:
		cmds = append(cmds, m.budgetBar.SetPercent(msg.Overview.Budget.PercentUsed))

	case app.ServiceEventMsg:
		if ev, ok := msg.Event.(services.BudgetEvent); ok {
			cmds = append(cmds, m.budgetBar.SetPercent(ev.Snapshot.PercentUsed))
		}

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ToggleChart):
		m.showChart = !m.showChart
	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.ScrollUp(1)
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ScrollDown,
		m.keys.ScrollUp,
		m.keys.ToggleChart,
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ScrollDown, m.keys.ScrollUp},
		{m.keys.ToggleChart, m.keys.Refresh},
	}
}
