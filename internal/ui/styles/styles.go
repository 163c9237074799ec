// Package styles holds the palette and lipgloss styles shared by the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/omnicoach/internal/models"
)

// Palette.
var (
	Primary   = lipgloss.Color("205")
	Secondary = lipgloss.Color("63")
	Subtle    = lipgloss.Color("240")

	Local  = lipgloss.Color("42")
	OpenAI = lipgloss.Color("39")
	Claude = lipgloss.Color("208")

	Success = lipgloss.Color("42")
	Error   = lipgloss.Color("196")
	Warning = lipgloss.Color("220")
	Info    = lipgloss.Color("39")

	BgDark  = lipgloss.Color("235")
	BgLight = lipgloss.Color("237")

	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

// Page layout.
var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(Primary).MarginBottom(1)
	SubTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(Secondary).MarginBottom(1)
	DocStyle      = lipgloss.NewStyle().Margin(1, 2).Padding(0, 1)
	ContentStyle  = lipgloss.NewStyle().Padding(1, 2)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Subtle).
			Padding(1, 2).
			MarginBottom(1)
	CardTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(Primary).MarginBottom(1)

	ProgressLabelStyle = lipgloss.NewStyle().Foreground(TextSecondary).Width(20)
)

// Navigation bar.
var (
	NavBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(Subtle)
	ActiveTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(Primary).Padding(0, 2)
	InactiveTabStyle = lipgloss.NewStyle().Foreground(TextMuted).Padding(0, 2)
)

// Help and key hints.
var (
	HelpStyle    = lipgloss.NewStyle().Foreground(TextMuted)
	HelpKeyStyle = lipgloss.NewStyle().Foreground(Primary).Bold(true)

	HelpPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(Primary).
			Padding(1, 3).
			Background(BgDark)
)

// Toasts.
var (
	ToastStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Primary).
		Padding(0, 1).
		MarginBottom(1)
)

// Tables and text.
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Primary).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(Subtle)
	TableCellStyle     = lipgloss.NewStyle().Padding(0, 1)
	TableSelectedStyle = lipgloss.NewStyle().Background(BgLight).Foreground(TextPrimary).Bold(true)

	RatingStyle      = lipgloss.NewStyle().Foreground(Warning)
	ErrorTextStyle   = lipgloss.NewStyle().Foreground(Error)
	SuccessTextStyle = lipgloss.NewStyle().Foreground(Success)
	WarningTextStyle = lipgloss.NewStyle().Foreground(Warning)
	InfoTextStyle    = lipgloss.NewStyle().Foreground(Info)
)

// GetBudgetStyle colors a percent-used value against the warning threshold.
func GetBudgetStyle(percentUsed, threshold float64) lipgloss.Style {
	switch {
	case percentUsed > 100:
		return ErrorTextStyle.Bold(true)
	case percentUsed > threshold:
		return WarningTextStyle
	default:
		return SuccessTextStyle
	}
}

// GetForecastStyle colors a month-end forecast status.
func GetForecastStyle(status models.ForecastStatus) lipgloss.Style {
	switch status {
	case models.ForecastCritical:
		return ErrorTextStyle.Bold(true)
	case models.ForecastWarning:
		return WarningTextStyle.Bold(true)
	case models.ForecastSafe:
		return SuccessTextStyle
	default:
		return HelpStyle
	}
}

// GetProductivityStyle colors a 0-100 productivity score.
func GetProductivityStyle(score float64) lipgloss.Style {
	switch {
	case score >= 75:
		return SuccessTextStyle
	case score >= 50:
		return WarningTextStyle
	default:
		return ErrorTextStyle
	}
}

// GetProviderColor returns the brand color of a provider.
func GetProviderColor(provider string) lipgloss.Color {
	switch provider {
	case "openai":
		return OpenAI
	case "claude", "anthropic":
		return Claude
	default:
		return Local
	}
}

// CenterBoth centers content in a width x height box.
func CenterBoth(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
