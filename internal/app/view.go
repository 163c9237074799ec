package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/omnicoach/internal/ui/styles"
)

// toastTop is the row the notification stack starts at, below the navbar.
const toastTop = 2

// View renders the navbar, the active tab and any overlays.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(styles.ContentStyle.Render(m.spinner.View() + " Loading..."))
		return b.String()
	}

	if tab := m.currentTab(); tab != nil {
		b.WriteString(tab.View())
	} else {
		b.WriteString(m.renderPlaceholder())
	}
	view := b.String()

	if m.showHelp {
		panel := m.renderHelp()
		x := (m.width - lipgloss.Width(panel)) / 2
		y := (m.height - lipgloss.Height(panel)) / 2
		view = placeOverlay(view, panel, x, y)
	}

	if toasts := m.renderToasts(); toasts != "" {
		view = placeOverlay(view, toasts, m.width-lipgloss.Width(toasts)-2, toastTop)
	}

	return view
}

func (m *Model) renderNavbar() string {
	items := make([]string, 0, len(m.tabNames))
	for i, name := range m.tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if TabID(i) == m.activeTab {
			items = append(items, styles.ActiveTabStyle.Render("▸ "+label))
			continue
		}
		items = append(items, styles.InactiveTabStyle.Render("  "+label))
	}
	return styles.NavBarStyle.Width(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, items...))
}

func (m *Model) renderToasts() string {
	notes := m.state.GetNotifications()
	if len(notes) == 0 {
		return ""
	}

	toasts := make([]string, 0, len(notes))
	for _, n := range notes {
		color, mark := toastLook(n.Type)
		if n.Type == NotificationLoading {
			mark = m.spinner.View()
		}
		body := lipgloss.NewStyle().Foreground(color).Render(mark + " " + n.Message)
		toasts = append(toasts, styles.ToastStyle.BorderForeground(color).Render(body))
	}
	return lipgloss.JoinVertical(lipgloss.Right, toasts...)
}

func toastLook(t NotificationType) (lipgloss.Color, string) {
	switch t {
	case NotificationSuccess:
		return styles.Success, "✓"
	case NotificationError:
		return styles.Error, "✗"
	case NotificationWarning:
		return styles.Warning, "!"
	default:
		return styles.Info, "•"
	}
}

func (m *Model) renderHelp() string {
	groups := m.keymap.FullHelp()
	names := append([]string(nil), helpSections...)

	if tab := m.currentTab(); tab != nil {
		if own := tab.ShortHelp(); len(own) > 0 {
			groups = append(groups, own)
			names = append(names, m.tabNames[m.activeTab]+" Tab")
		}
	}

	heading := styles.InfoTextStyle.Bold(true)
	lines := []string{styles.TitleStyle.Render("Keyboard Shortcuts")}
	for i, group := range groups {
		lines = append(lines, heading.Render(names[i]))
		for _, b := range group {
			lines = append(lines, "  "+helpLine(b))
		}
		lines = append(lines, "")
	}
	lines = append(lines, styles.HelpStyle.Render("Press ? or Esc to close"))

	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}

func helpLine(b key.Binding) string {
	h := b.Help()
	desc := h.Desc
	if desc != "" {
		desc = strings.ToUpper(desc[:1]) + desc[1:]
	}
	return styles.HelpKeyStyle.Render(fmt.Sprintf("%-11s", h.Key)) + desc
}

func (m *Model) renderPlaceholder() string {
	return styles.ContentStyle.Render(fmt.Sprintf("%s\n\n%s",
		m.tabNames[m.activeTab],
		styles.HelpStyle.Render("This tab is not yet implemented."),
	))
}

// placeOverlay draws overlay over base with its top-left corner at (x, y).
// Rows missing from base are added so the overlay is never clipped.
func placeOverlay(base, overlay string, x, y int) string {
	x, y = max(x, 0), max(y, 0)

	rows := strings.Split(base, "\n")
	over := strings.Split(overlay, "\n")
	for len(rows) < y+len(over) {
		rows = append(rows, "")
	}

	width := lipgloss.Width(overlay)
	for i, line := range over {
		row := rows[y+i]

		left := ansi.Truncate(row, x, "")
		if pad := x - ansi.StringWidth(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		if pad := width - ansi.StringWidth(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}

		rows[y+i] = left + line + ansi.TruncateLeft(row, x+width, "")
	}
	return strings.Join(rows, "\n")
}
