package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/omnicoach/internal/models"
	"github.com/j-veylop/omnicoach/internal/services"
	"github.com/j-veylop/omnicoach/internal/services/feedback"
	"github.com/j-veylop/omnicoach/internal/ui/components"
	"github.com/j-veylop/omnicoach/internal/ui/styles"
)

// View renders the dashboard component.
func (m *Model) View() string {
	ov, ok := m.state.GetOverview()
	if m.state.IsInitialLoading() || !ok {
		return m.spinner.Centered(m.width, m.height)
	}

	cardWidth := max(m.width-6, 40)

	sections := []string{
		m.renderTitle(),
		m.renderBudget(ov, cardWidth),
		m.renderToday(ov.Today, cardWidth),
		m.renderCoach(ov, cardWidth),
	}
	if len(ov.Usage) > 0 {
		sections = append(sections, m.renderUsage(ov.Usage, cardWidth))
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("OmniCoach")
	subtitle := styles.HelpStyle.Render("Activity, coaching and LLM spend at a glance")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func cardHeader(icon, title string) string {
	iconStr := lipgloss.NewStyle().Foreground(styles.Primary).Render(icon)
	return fmt.Sprintf("%s %s", iconStr, styles.CardTitleStyle.Render(title))
}

func (m *Model) renderBudget(ov services.Overview, width int) string {
	snap := ov.Budget
	rows := []string{cardHeader("◈", "Monthly Budget"), ""}

	rows = append(rows, "  "+m.budgetBar.View(snap, width-6))

	remaining := fmt.Sprintf("$%.2f remaining", snap.Remaining)
	switch {
	case snap.OverBudget:
		remaining = styles.ErrorTextStyle.Render(fmt.Sprintf("Over budget by $%.2f", snap.Spend-snap.Limit))
	case snap.ShouldWarn:
		remaining = styles.WarningTextStyle.Render(remaining)
	default:
		remaining = styles.HelpStyle.Render(remaining)
	}
	rows = append(rows, "  "+remaining, "")

	rows = append(rows, "  "+renderForecast(ov.Forecast))

	if m.showChart && ov.Forecast.Status != models.ForecastUnknown {
		rows = append(rows, "")
		chart := components.RenderBurnChart(ov.Forecast, snap.Limit, width-16, 6)
		rows = append(rows, indent(chart, "  "))
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderForecast(f models.BudgetForecast) string {
	badge := forecastBadge(f.Status)
	if f.Status == models.ForecastUnknown {
		return badge + " " + styles.HelpStyle.Render("Not enough data for a forecast yet")
	}

	detail := fmt.Sprintf("$%.2f/day, projected $%.2f (%.0f%%)", f.DailyRate, f.ProjectedSpend, f.ProjectedPct)
	if f.ExhaustionDate != nil {
		detail += ", limit reached " + f.ExhaustionDate.Format("Jan 2")
	}
	confidence := styles.HelpStyle.Render(fmt.Sprintf("[%s confidence]", f.Confidence))

	return fmt.Sprintf("%s %s %s", badge, detail, confidence)
}

func forecastBadge(status models.ForecastStatus) string {
	glyph := "○"
	switch status {
	case models.ForecastCritical, models.ForecastWarning:
		glyph = "▲"
	case models.ForecastSafe:
		glyph = "●"
	}
	return styles.GetForecastStyle(status).Render(glyph + " " + string(status))
}

func (m *Model) renderToday(stats models.TodayStats, width int) string {
	rows := []string{cardHeader("◷", "Today"), ""}

	if stats.TotalTime == 0 {
		rows = append(rows, "  "+styles.HelpStyle.Render("No activity recorded yet today"))
		return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	summary := fmt.Sprintf("%s active across %d sessions", formatSeconds(stats.TotalTime), stats.Sessions)
	rows = append(rows, "  "+summary)
	rows = append(rows, "  "+components.ProductivityBar(stats.AvgProductivity, "Productivity", width-6), "")

	rows = append(rows, "  "+styles.SubTitleStyle.Render("Top applications"))
	for _, name := range topApps(stats.Apps, topAppCount) {
		app := stats.Apps[name]
		label := fmt.Sprintf("%-16s %8s", truncate(name, 16), formatSeconds(app.Time))
		rows = append(rows, "  "+components.ProductivityBar(app.Productivity, label, width-6))
	}

	if len(stats.Categories) > 0 {
		values, labels := categorySeries(stats.Categories)
		rows = append(rows, "", "  "+styles.SubTitleStyle.Render("Hours by category"))
		rows = append(rows, indent(components.RenderBarChart(values, labels, width-8), "  "))
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderCoach(ov services.Overview, width int) string {
	rows := []string{cardHeader("✦", "Coach"), ""}

	status := styles.SuccessTextStyle.Render("● auto feedback on")
	if !ov.Enabled {
		status = styles.HelpStyle.Render("○ auto feedback off")
	}
	rows = append(rows, fmt.Sprintf("  %s  %s", status, styles.HelpStyle.Render("scheduler "+ov.State.String())))

	switch {
	case ov.State == feedback.StateGenerating:
		rows = append(rows, "  "+m.spinner.View()+" generating feedback...")
	case ov.NextSlot != nil:
		rows = append(rows, "  Next check-in "+formatSlot(ov.NextSlot.At, time.Now()))
	case ov.Enabled:
		rows = append(rows, "  "+styles.HelpStyle.Render("No check-ins left today"))
	}

	if len(ov.Recent) > 0 {
		latest := ov.Recent[0]
		rows = append(rows, "", "  "+styles.SubTitleStyle.Render("Latest"))
		rows = append(rows, "  "+styles.HelpStyle.Render(latest.Timestamp.Local().Format("Jan 2 15:04"))+" "+
			truncate(firstLine(latest.Content), max(width-24, 20)))
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderUsage(usage []models.ProviderUsage, width int) string {
	rows := []string{cardHeader("⬡", "LLM Usage This Month"), ""}

	header := fmt.Sprintf("  %-12s %-24s %6s %10s %9s", "Provider", "Model", "Calls", "Tokens", "Cost")
	rows = append(rows, styles.TableHeaderStyle.Render(header))

	for _, u := range usage {
		provider := lipgloss.NewStyle().Foreground(styles.GetProviderColor(u.Provider)).
			Width(12).Render(u.Provider)
		line := fmt.Sprintf("  %s %-24s %6d %10d %9s",
			provider, truncate(u.Model, 24), u.Calls, u.InputTokens+u.OutputTokens, fmt.Sprintf("$%.4f", u.Cost))
		rows = append(rows, line)
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func topApps(apps map[string]models.AppStats, n int) []string {
	names := make([]string, 0, len(apps))
	for name := range apps {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if apps[names[i]].Time != apps[names[j]].Time {
			return apps[names[i]].Time > apps[names[j]].Time
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func categorySeries(cats map[models.Category]models.CategoryStats) (values []float64, labels []string) {
	keys := make([]string, 0, len(cats))
	for c := range cats {
		keys = append(keys, string(c))
	}
	sort.Strings(keys)
	for _, k := range keys {
		labels = append(labels, k)
		values = append(values, float64(cats[models.Category(k)].Time)/3600)
	}
	return values, labels
}

func formatSlot(at, now time.Time) string {
	until := at.Sub(now)
	if until <= 0 {
		return at.Format("15:04") + " (due)"
	}
	return fmt.Sprintf("%s (in %s)", at.Format("15:04"), formatSeconds(int64(until.Seconds())))
}

func formatSeconds(sec int64) string {
	if sec < 60 {
		return fmt.Sprintf("%ds", max(sec, 0))
	}
	h := sec / 3600
	m := (sec % 3600) / 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}

func truncate(s string, n int) string {
	if n <= 0 || len([]rune(s)) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func indent(block, prefix string) string {
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
