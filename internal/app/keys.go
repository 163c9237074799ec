package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the global key bindings. Tabs add their own on top.
type KeyMap struct {
	Dashboard key.Binding
	Feedback  key.Binding
	Info      key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding

	Generate key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
	Close    key.Binding

	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

// DefaultKeyMap returns the default global bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Dashboard: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "dashboard")),
		Feedback:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "feedback")),
		Info:      key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "info")),
		NextTab:   key.NewBinding(key.WithKeys("tab", "l", "right"), key.WithHelp("tab", "next tab")),
		PrevTab:   key.NewBinding(key.WithKeys("shift+tab", "h", "left"), key.WithHelp("shift+tab", "previous tab")),

		Generate: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "get feedback now")),
		Refresh:  key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh data")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Close:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),

		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	}
}

// ShortHelp returns the bindings shown in the status line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Generate, k.Refresh, k.Quit}
}

// FullHelp returns the bindings grouped the way the help panel lists them.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Dashboard, k.Feedback, k.Info, k.NextTab, k.PrevTab},
		{k.Generate, k.Refresh, k.Help, k.Quit},
		{k.Up, k.Down, k.PageUp, k.PageDown},
	}
}

// helpSections names the FullHelp groups, in order.
var helpSections = []string{"Navigation", "Actions", "Lists"}

type tabJump struct {
	binding key.Binding
	tab     TabID
}

// tabJumps pairs each direct tab binding with its tab.
func (k KeyMap) tabJumps() []tabJump {
	return []tabJump{
		{k.Dashboard, TabDashboard},
		{k.Feedback, TabFeedback},
		{k.Info, TabInfo},
	}
}
