package dashboard

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/omnicoach/internal/app"
	"github.com/j-veylop/omnicoach/internal/models"
	"github.com/j-veylop/omnicoach/internal/services"
	"github.com/j-veylop/omnicoach/internal/services/feedback"
	"github.com/j-veylop/omnicoach/internal/ui/components"
)

func sampleOverview() services.Overview {
	return services.Overview{
		Budget: models.BudgetSnapshot{
			Limit: 100, Spend: 12, Remaining: 88, PercentUsed: 12, Threshold: 80,
		},
		Forecast: models.BudgetForecast{
			Status: models.ForecastSafe, Confidence: "medium",
			DailyRate: 1.2, ProjectedSpend: 37.2, ProjectedPct: 37.2,
			DaysElapsed: 10, DaysInMonth: 31,
		},
		Today: models.TodayStats{
			TotalTime: 5400, Sessions: 12, AvgProductivity: 82,
			Apps: map[string]models.AppStats{
				"Code":    {Time: 3600, Sessions: 6, Productivity: 95},
				"Firefox": {Time: 1800, Sessions: 6, Productivity: 55},
			},
			Categories: map[models.Category]models.CategoryStats{
				models.CategoryDevelopment: {Time: 3600, Productivity: 95},
				models.CategoryBrowsing:    {Time: 1800, Productivity: 55},
			},
		},
		Usage: []models.ProviderUsage{
			{Provider: "openai", Model: "gpt-4", Calls: 3, InputTokens: 300, OutputTokens: 200, Cost: 0.045},
		},
		Recent: []models.FeedbackEntry{
			{ID: 1, Content: "Strong start to the day.\nKeep it up.", Timestamp: time.Now()},
		},
		NextSlot: &feedback.Slot{At: time.Now().Add(90 * time.Minute)},
		State:    feedback.StateScheduled,
		Enabled:  true,
	}
}

func newLoaded(t *testing.T) *Model {
	t.Helper()
	state := app.NewState()
	state.SetOverview(sampleOverview())
	m := New(state)
	m.SetSize(120, 200)
	return m
}

func TestNew(t *testing.T) {
	m := New(app.NewState())
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
}

func TestModel_ViewLoading(t *testing.T) {
	m := New(app.NewState())
	m.SetSize(80, 24)

	if !strings.Contains(m.View(), "Loading overview...") {
		t.Error("View should show the spinner before the first overview")
	}
}

func TestModel_View(t *testing.T) {
	m := newLoaded(t)
	view := m.View()

	for _, want := range []string{
		"Monthly Budget",
		"$12.00 / $100.00",
		"SAFE",
		"Code",
		"Firefox",
		"1h 30m active across 12 sessions",
		"development",
		"auto feedback on",
		"Next check-in",
		"Strong start to the day.",
		"gpt-4",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q", want)
		}
	}
	if strings.Contains(view, "Keep it up.") {
		t.Error("latest feedback should be cut to its first line")
	}
}

func TestModel_ViewEmptyDay(t *testing.T) {
	state := app.NewState()
	ov := sampleOverview()
	ov.Today = models.TodayStats{}
	ov.Usage = nil
	ov.Enabled = false
	ov.NextSlot = nil
	ov.Forecast = models.BudgetForecast{Status: models.ForecastUnknown}
	state.SetOverview(ov)

	m := New(state)
	m.SetSize(120, 200)
	view := m.View()

	for _, want := range []string{"No activity recorded yet today", "auto feedback off", "Not enough data"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q", want)
		}
	}
	if strings.Contains(view, "LLM Usage") {
		t.Error("usage card should be hidden without usage")
	}
}

func TestModel_BudgetBarAnimation(t *testing.T) {
	m := newLoaded(t)

	_, cmd := m.Update(app.OverviewLoadedMsg{Overview: sampleOverview()})
	if cmd == nil {
		t.Fatal("new budget percent should start the animation")
	}
	if m.budgetBar.Percent() != 12 {
		t.Errorf("Percent = %v, want 12", m.budgetBar.Percent())
	}

	for i := 0; i < 100 && m.budgetBar.Displayed() != 12; i++ {
		m.Update(components.AnimationTickMsg(time.Now()))
	}
	if m.budgetBar.Displayed() != 12 {
		t.Errorf("Displayed = %v, want 12", m.budgetBar.Displayed())
	}

	snap := models.BudgetSnapshot{Limit: 100, Spend: 90, PercentUsed: 90}
	m.Update(app.ServiceEventMsg{Event: services.BudgetEvent{Snapshot: snap}})
	if m.budgetBar.Percent() != 90 {
		t.Errorf("Percent after BudgetEvent = %v, want 90", m.budgetBar.Percent())
	}
}

func TestModel_ToggleChart(t *testing.T) {
	m := newLoaded(t)
	if !strings.Contains(m.View(), "projected spend vs limit") {
		t.Fatal("burn chart should be shown by default")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	if strings.Contains(m.View(), "projected spend vs limit") {
		t.Error("burn chart should be hidden after toggling")
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState())
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := map[int64]string{
		-5:   "0s",
		45:   "45s",
		600:  "10m",
		3660: "1h 01m",
	}
	for in, want := range tests {
		if got := formatSeconds(in); got != want {
			t.Errorf("formatSeconds(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestTopApps(t *testing.T) {
	apps := map[string]models.AppStats{
		"a": {Time: 10}, "b": {Time: 30}, "c": {Time: 20}, "d": {Time: 30},
	}
	got := topApps(apps, 3)
	want := []string{"b", "d", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("topApps = %v, want %v", got, want)
		}
	}
}
