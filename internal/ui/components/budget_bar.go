// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/omnicoach/internal/logger"
	"github.com/j-veylop/omnicoach/internal/models"
	"github.com/j-veylop/omnicoach/internal/ui/styles"
)

// AnimationTickMsg advances bar animations.
type AnimationTickMsg time.Time

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*50, func(t time.Time) tea.Msg {
		return AnimationTickMsg(t)
	})
}

// BudgetBar renders month-to-date spend against the monthly limit. The
// filled part eases toward the latest percent.
type BudgetBar struct {
	progress       progress.Model
	percent        float64
	currentPercent float64
	isAnimating    bool
}

// NewBudgetBar creates a budget bar that runs green to red.
func NewBudgetBar() BudgetBar {
	p := progress.New(
		progress.WithScaledGradient("#51cf66", "#ff6b6b"),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
	return BudgetBar{progress: p}
}

// Init initializes the progress bar model.
func (b BudgetBar) Init() tea.Cmd {
	return nil
}

// Update steps the easing animation.
func (b BudgetBar) Update(msg tea.Msg) (BudgetBar, tea.Cmd) {
	var cmds []tea.Cmd

	if _, ok := msg.(AnimationTickMsg); ok && b.isAnimating {
		diff := b.percent - b.currentPercent
		step := diff / 10
		if step > -0.5 && step < 0.5 {
			step = 0.5
			if diff < 0 {
				step = -0.5
			}
		}
		b.currentPercent += step
		if (step > 0 && b.currentPercent >= b.percent) || (step < 0 && b.currentPercent <= b.percent) {
			b.currentPercent = b.percent
			b.isAnimating = false
		} else {
			cmds = append(cmds, animationTick())
		}
	}

	model, cmd := b.progress.Update(msg)
	b.progress = model.(progress.Model)
	cmds = append(cmds, cmd)

	return b, tea.Batch(cmds...)
}

// SetPercent sets the target percent used and starts the animation.
func (b *BudgetBar) SetPercent(percent float64) tea.Cmd {
	b.percent = percent
	if b.currentPercent == percent {
		return nil
	}
	if b.isAnimating {
		return nil
	}
	b.isAnimating = true
	return animationTick()
}

// Percent returns the target percent.
func (b BudgetBar) Percent() float64 {
	return b.percent
}

// Displayed returns the percent currently drawn.
func (b BudgetBar) Displayed() float64 {
	return b.currentPercent
}

// View renders the bar with the spend summary.
func (b BudgetBar) View(snap models.BudgetSnapshot, width int) string {
	barWidth := max(width-34, 10)
	b.progress.Width = barWidth

	fill := b.currentPercent / 100
	fill = min(max(fill, 0), 1)
	bar := b.progress.ViewAs(fill)

	percentStr := styles.GetBudgetStyle(snap.PercentUsed, snap.Threshold).
		Width(7).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.1f%%", snap.PercentUsed))

	spend := styles.ProgressLabelStyle.Width(22).Render(
		fmt.Sprintf("$%.2f / $%.2f", snap.Spend, snap.Limit))

	return lipgloss.JoinHorizontal(lipgloss.Center, spend, bar, " ", percentStr)
}

// RenderGradientBar renders a bar of width cells filled to percent.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * percent / 100)
	filled = min(max(filled, 0), width)

	var barChars []string
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#ff6b6b", "#51cf66", t)
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			barChars = append(barChars, style.Render("█"))
		} else {
			style := lipgloss.NewStyle().Foreground(styles.Subtle)
			barChars = append(barChars, style.Render("░"))
		}
	}

	return strings.Join(barChars, "")
}

// ProductivityBar renders a labelled 0-100 productivity score.
func ProductivityBar(score float64, label string, width int) string {
	labelWidth := len(label) + 1
	percentWidth := 6
	barWidth := max(width-labelWidth-percentWidth-4, 5)

	bar := RenderGradientBar(score, barWidth)

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(label)

	scoreStr := styles.GetProductivityStyle(score).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f", score))

	return fmt.Sprintf("%s [%s] %s", labelStr, bar, scoreStr)
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
