// Package feedback provides the tab for reading, requesting and rating
// coaching feedback.
package feedback

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/omnicoach/internal/app"
	"github.com/j-veylop/omnicoach/internal/models"
	"github.com/j-veylop/omnicoach/internal/services"
	"github.com/j-veylop/omnicoach/internal/ui/components"
	fbsvc "github.com/j-veylop/omnicoach/internal/services/feedback"
)

const (
	shortHistory = fbsvc.DefaultRecentLimit
	longHistory  = 50
	defaultStars = 3
)

// keyMap defines the key bindings specific to the feedback tab.
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	RateUp     key.Binding
	RateDown   key.Binding
	Generate   key.Binding
	ToggleSize key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next"),
		),
		RateUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "rate up"),
		),
		RateDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "rate down"),
		),
		Generate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "get feedback now"),
		),
		ToggleSize: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle history size"),
		),
	}
}

type historyLoadedMsg struct {
	entries []models.FeedbackEntry
}

type historyErrorMsg struct {
	err string
}

// Model represents the feedback tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	keys     keyMap
	viewport viewport.Model
	spinner  components.LoadingSpinner
	renderer *markdown
	entries  []models.FeedbackEntry
	errorMsg string
	width    int
	height   int
	selected int
	limit    int
	loading  bool
}

// New creates a new feedback tab.
func New(state *app.State, svc *services.Manager) *Model {
	return &Model{
		state:    state,
		services: svc,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		spinner:  components.NewSpinner("generating feedback..."),
		renderer: newMarkdown(),
		limit:    shortHistory,
	}
}

// Init loads the feedback history.
func (m *Model) Init() tea.Cmd {
	if m.services == nil {
		return nil
	}
	m.loading = true
	return m.loadHistoryCmd()
}

func (m *Model) loadHistoryCmd() tea.Cmd {
	svc := m.services
	limit := m.limit
	return func() tea.Msg {
		if svc == nil {
			return historyErrorMsg{err: "Services not initialized"}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		entries, err := svc.Feedback().RecentFeedback(ctx, limit)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}
		return historyLoadedMsg{entries: entries}
	}
}

// Update handles messages for the feedback tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case historyLoadedMsg:
		m.loading = false
		m.errorMsg = ""
		m.entries = msg.entries
		m.merge(m.state.RecentFeedback())

	case historyErrorMsg:
		m.loading = false
		m.errorMsg = msg.err
		cmds = append(cmds, func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationError,
				Message:  fmt.Sprintf("Feedback history error: %s", msg.err),
				Duration: app.LongNotificationDuration,
			}
		})

	case app.OverviewLoadedMsg, app.FeedbackResultMsg, app.ServiceEventMsg:
		m.merge(m.state.RecentFeedback())

	case app.StartLoadingMsg:
		if msg.Resource == app.ResourceFeedback {
			cmds = append(cmds, m.spinner.Init())
		}

	case spinner.TickMsg:
		if m.state.IsGenerating() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case app.FeedbackRatedMsg:
		if msg.Error == nil {
			m.setRating(msg.ID, msg.Rating)
		}

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.entries)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.RateUp):
		return m.rateSelected(1)
	case key.Matches(msg, m.keys.RateDown):
		return m.rateSelected(-1)
	case key.Matches(msg, m.keys.Generate):
		return func() tea.Msg { return app.GenerateFeedbackMsg{} }
	case key.Matches(msg, m.keys.ToggleSize):
		if m.limit == shortHistory {
			m.limit = longHistory
		} else {
			m.limit = shortHistory
		}
		if m.services != nil {
			m.loading = true
			return m.loadHistoryCmd()
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// rateSelected steps the selected entry's rating by delta within 1..5. An
// unrated entry starts from the middle of the scale.
func (m *Model) rateSelected(delta int) tea.Cmd {
	entry, ok := m.Selected()
	if !ok {
		return nil
	}

	rating := defaultStars
	if entry.Rating != nil {
		rating = min(max(*entry.Rating+delta, 1), 5)
		if rating == *entry.Rating {
			return nil
		}
	}

	id := entry.ID
	return func() tea.Msg { return app.RateFeedbackMsg{ID: id, Rating: rating} }
}

// merge folds entries into the list, keeping it unique by ID and newest
// first.
func (m *Model) merge(entries []models.FeedbackEntry) {
	byID := make(map[int64]int, len(m.entries))
	for i, e := range m.entries {
		byID[e.ID] = i
	}
	for _, e := range entries {
		if i, ok := byID[e.ID]; ok {
			if e.Rating != nil {
				m.entries[i].Rating = e.Rating
			}
			continue
		}
		byID[e.ID] = len(m.entries)
		m.entries = append(m.entries, e)
	}

	sort.SliceStable(m.entries, func(i, j int) bool {
		if !m.entries[i].Timestamp.Equal(m.entries[j].Timestamp) {
			return m.entries[i].Timestamp.After(m.entries[j].Timestamp)
		}
		return m.entries[i].ID > m.entries[j].ID
	})
	if len(m.entries) > m.limit {
		m.entries = m.entries[:m.limit]
	}
	m.selected = min(m.selected, max(len(m.entries)-1, 0))
}

func (m *Model) setRating(id int64, rating int) {
	for i := range m.entries {
		if m.entries[i].ID == id {
			r := rating
			m.entries[i].Rating = &r
			return
		}
	}
}

// Selected returns the highlighted entry.
func (m *Model) Selected() (models.FeedbackEntry, bool) {
	if m.selected < 0 || m.selected >= len(m.entries) {
		return models.FeedbackEntry{}, false
	}
	return m.entries[m.selected], true
}

// SetSize sets the available size for the feedback tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.renderer.setWidth(max(width-8, 20))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Generate,
		m.keys.RateUp,
		m.keys.RateDown,
		m.keys.ToggleSize,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.RateUp, m.keys.RateDown},
		{m.keys.Generate, m.keys.ToggleSize},
	}
}
