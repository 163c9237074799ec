package feedback

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/omnicoach/internal/ui/components"
	"github.com/j-veylop/omnicoach/internal/ui/styles"
)

// View renders the feedback tab.
func (m *Model) View() string {
	if m.loading && len(m.entries) == 0 {
		return m.wrap(styles.HelpStyle.Render("Loading feedback..."))
	}
	if m.errorMsg != "" && len(m.entries) == 0 {
		return m.wrap(fmt.Sprintf("%s %s", styles.ErrorTextStyle.Render("Error:"), m.errorMsg))
	}

	sections := []string{m.renderHeader()}

	if len(m.entries) == 0 {
		sections = append(sections, m.renderEmpty())
	} else {
		sections = append(sections, m.renderList(), m.renderDetail())
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))
	return m.wrap(m.viewport.View())
}

func (m *Model) wrap(content string) string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Feedback")

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)
	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] last %d", m.limit))

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)

	hint := "enter: get feedback now"
	if m.state.IsGenerating() {
		hint = m.spinner.ViewWithLabel()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, styles.HelpStyle.Render(hint), "")
}

func (m *Model) renderEmpty() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.HelpStyle.Render("No feedback yet."),
		styles.HelpStyle.Render("Scheduled check-ins appear here, or press enter to ask now."),
	)
}

func (m *Model) renderList() string {
	cardWidth := max(m.width-6, 40)
	textWidth := max(cardWidth-40, 20)

	rows := []string{
		fmt.Sprintf("%s %s",
			lipgloss.NewStyle().Foreground(styles.Primary).Render("◈"),
			styles.CardTitleStyle.Render("Recent Check-ins")),
		"",
	}

	for i, e := range m.entries {
		line := fmt.Sprintf("%s  %-9s %s  %s",
			e.Timestamp.Local().Format("Jan 02 15:04"),
			string(e.Trigger),
			renderStars(e.Rating),
			truncate(firstLine(e.Content), textWidth),
		)
		if i == m.selected {
			rows = append(rows, styles.TableSelectedStyle.Render("▸ "+line))
		} else {
			rows = append(rows, styles.TableCellStyle.Render("  "+line))
		}
	}

	if trend := m.productivityTrend(); trend != "" {
		rows = append(rows, "", "  "+styles.HelpStyle.Render("Productivity trend ")+trend)
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderDetail() string {
	entry, ok := m.Selected()
	if !ok {
		return ""
	}
	cardWidth := max(m.width-6, 40)

	meta := fmt.Sprintf("%s · %s · mood %.0f · productivity %.0f",
		entry.Timestamp.Local().Format("Mon Jan 2 15:04"),
		entry.Trigger,
		entry.MoodScore,
		entry.ProductivityScore,
	)
	rows := []string{
		styles.HelpStyle.Render(meta),
		"",
		m.renderer.render(entry.Content),
		"",
		"Your rating " + renderStars(entry.Rating) + styles.HelpStyle.Render("  (+/- to change)"),
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// productivityTrend plots productivity scores oldest to newest.
func (m *Model) productivityTrend() string {
	if len(m.entries) < 2 {
		return ""
	}
	values := make([]float64, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0; i-- {
		values = append(values, m.entries[i].ProductivityScore)
	}
	spark := components.RenderSparkline(values, len(values))
	return styles.GetProductivityStyle(values[len(values)-1]).Render(spark)
}

func renderStars(rating *int) string {
	if rating == nil {
		return styles.HelpStyle.Render("·····")
	}
	r := min(max(*rating, 0), 5)
	return styles.RatingStyle.Render(strings.Repeat("★", r) + strings.Repeat("☆", 5-r))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

