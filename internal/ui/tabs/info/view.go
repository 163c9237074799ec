package info

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/omnicoach/internal/ui/styles"
	"github.com/j-veylop/omnicoach/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderSettingsCard(),
		m.renderAboutCard(),
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, settings and build information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	if m.config == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	} else {
		c := m.config
		rows = append(rows,
			renderRow("Database", c.DatabasePath),
			renderRow("Weights File", c.WeightsPath),
			renderRow("Log Directory", c.LogDir),
			renderRow("API Address", c.APIAddr),
			renderRow("Ollama", c.OllamaURL),
			renderRow("OpenAI", c.OpenAIURL),
			renderRow("Anthropic", c.AnthropicURL),
			renderRow("LLM Timeout", c.LLMTimeout.String()),
			renderRow("Poll Interval", c.PollInterval.String()),
		)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderSettingsCard() string {
	rows := []string{styles.CardTitleStyle.Render("Settings"), ""}

	switch {
	case m.loadErr != nil:
		rows = append(rows, styles.ErrorTextStyle.Render("Failed to load settings: "+m.loadErr.Error()))
	case m.settings == nil:
		rows = append(rows, styles.HelpStyle.Render("Settings not loaded"))
	default:
		keys := make([]string, 0, len(m.settings))
		for k := range m.settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := m.settings[k]
			if v == "" {
				v = styles.HelpStyle.Render("(unset)")
			}
			rows = append(rows, renderRow(k, v))
		}
	}

	if len(m.providers) > 0 {
		rows = append(rows, "", renderRow("Providers", strings.Join(m.providers, ", ")))
	}
	if m.settings != nil {
		if len(m.models) == 0 {
			rows = append(rows, renderRow("Local Models", styles.HelpStyle.Render("none found")))
		} else {
			names := make([]string, len(m.models))
			for i, lm := range m.models {
				names[i] = lm.Name
			}
			rows = append(rows, renderRow("Local Models", strings.Join(names, ", ")))
		}
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(26).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About OmniCoach"),
		"",
		renderRow("Version", version.GetVersion()),
		renderRow("Build Date", version.GetDate()),
		renderRow("Git Commit", version.GetCommit()),
		renderRow("Go Version", runtime.Version()),
		renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	if updated := m.state.GetLastUpdated(); !updated.IsZero() {
		rows = append(rows, "", renderRow("Last Refresh", updated.Format("15:04:05")))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
