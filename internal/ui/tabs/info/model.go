// Package info provides the tab showing configuration, stored settings and
// build information.
package info

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/omnicoach/internal/app"
	"github.com/j-veylop/omnicoach/internal/config"
	"github.com/j-veylop/omnicoach/internal/services"
	"github.com/j-veylop/omnicoach/internal/services/llm"
)

const loadTimeout = 5 * time.Second

// keyMap defines the key bindings specific to the info tab.
type keyMap struct {
	Reload key.Binding
	Up     key.Binding
	Down   key.Binding
}

// defaultKeyMap returns the default key bindings for the info tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Reload: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "reload settings"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// settingsLoadedMsg carries masked settings and the installed local models.
type settingsLoadedMsg struct {
	settings  map[string]string
	models    []llm.LocalModel
	providers []string
	err       error
}

// Model represents the info tab state.
type Model struct {
	state     *app.State
	config    *config.Config
	services  *services.Manager
	keys      keyMap
	viewport  viewport.Model
	settings  map[string]string
	models    []llm.LocalModel
	providers []string
	loadErr   error
	width     int
	height    int
}

// New creates a new info model. svc may be nil, in which case only the
// static configuration is shown.
func New(state *app.State, cfg *config.Config, svc *services.Manager) *Model {
	return &Model{
		state:    state,
		config:   cfg,
		services: svc,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init loads the stored settings.
func (m *Model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m *Model) loadCmd() tea.Cmd {
	svc := m.services
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		settings, err := svc.Settings().Raw(ctx)
		if err != nil {
			return settingsLoadedMsg{err: err}
		}
		return settingsLoadedMsg{
			settings:  settings,
			models:    svc.Gateway().ListLocalModels(ctx),
			providers: svc.Gateway().Providers(),
		}
	}
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsLoadedMsg:
		m.loadErr = msg.err
		if msg.err == nil {
			m.settings = msg.settings
			m.models = msg.models
			m.providers = msg.providers
		}

	case app.TabSwitchMsg:
		if msg.Tab == app.TabInfo {
			return m, m.loadCmd()
		}

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Reload) {
			return m, m.loadCmd()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Reload,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Reload},
		{m.keys.Up, m.keys.Down},
	}
}
