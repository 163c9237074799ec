package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/omnicoach/internal/models"
	"github.com/j-veylop/omnicoach/internal/services"
	"github.com/j-veylop/omnicoach/internal/services/feedback"
	"github.com/j-veylop/omnicoach/internal/services/llm"
)

func readyModel() *Model {
	model := NewModel(nil)
	model.ready = true
	model.width = 100
	model.height = 30
	return model
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func lastNotification(t *testing.T, m *Model) Notification {
	t.Helper()
	notifs := m.state.GetNotifications()
	if len(notifs) == 0 {
		t.Fatal("no notifications")
	}
	return notifs[len(notifs)-1]
}

// drain runs cmd and feeds AddNotificationMsg results back into the model.
func drain(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case AddNotificationMsg:
		m.Update(msg)
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if add, ok := c().(AddNotificationMsg); ok {
				m.Update(add)
			}
		}
	}
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil)
	if model.state == nil {
		t.Fatal("State should be initialized")
	}
	if model.activeTab != TabDashboard {
		t.Error("Default tab should be Dashboard")
	}
	if len(model.tabs) != 3 {
		t.Errorf("Should have 3 tab slots, got %d", len(model.tabs))
	}
	if model.Init() == nil {
		t.Error("Init returned nil command")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	model := NewModel(nil)
	newModel, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	m := newModel.(*Model)
	if m.width != 100 || m.height != 50 {
		t.Errorf("size = %dx%d, want 100x50", m.width, m.height)
	}
	if !m.ready {
		t.Error("Model should be ready after WindowSizeMsg")
	}
}

func TestModel_TabSwitching(t *testing.T) {
	model := readyModel()

	model.Update(TabSwitchMsg{Tab: TabFeedback})
	if model.activeTab != TabFeedback {
		t.Errorf("ActiveTab = %v, want Feedback", model.activeTab)
	}

	model.handleKeyMsg(runeKey('3'))
	if model.activeTab != TabInfo {
		t.Errorf("ActiveTab = %v, want Info", model.activeTab)
	}

	model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyTab})
	if model.activeTab != TabDashboard {
		t.Errorf("next tab from Info should wrap to Dashboard, got %v", model.activeTab)
	}

	model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyShiftTab})
	if model.activeTab != TabInfo {
		t.Errorf("prev tab from Dashboard should wrap to Info, got %v", model.activeTab)
	}
}

func TestModel_Update_Tick(t *testing.T) {
	model := NewModel(nil)
	if _, cmd := model.Update(TickMsg{Time: time.Now()}); cmd == nil {
		t.Error("TickMsg should return a command (next tick)")
	}
}

func TestModel_View(t *testing.T) {
	model := NewModel(nil)
	if !strings.Contains(model.View(), "Loading...") {
		t.Error("View should show Loading when not ready")
	}

	model = readyModel()
	view := model.View()
	for _, name := range []string{"Dashboard", "Feedback", "Info"} {
		if !strings.Contains(view, name) {
			t.Errorf("navbar missing %q", name)
		}
	}
	if !strings.Contains(view, "not yet implemented") {
		t.Error("View should show placeholder text when tabs are unset")
	}
}

func TestModel_Help(t *testing.T) {
	model := readyModel()

	model.Update(ToggleHelpMsg{})
	if !model.showHelp {
		t.Fatal("showHelp should be true")
	}
	view := model.View()
	if !strings.Contains(view, "Keyboard Shortcuts") || !strings.Contains(view, "Get feedback now") {
		t.Error("View should show help modal")
	}

	model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEsc})
	if model.showHelp {
		t.Error("Esc should close help")
	}
}

func TestModel_Notifications(t *testing.T) {
	model := readyModel()
	model.Update(AddNotificationMsg{Message: "Test Note", Type: NotificationInfo})

	if len(model.state.GetNotifications()) != 1 {
		t.Errorf("expected one notification, got %d", len(model.state.GetNotifications()))
	}
	if !strings.Contains(model.View(), "Test Note") {
		t.Error("View should show notification")
	}
}

func TestModel_OverviewLoaded(t *testing.T) {
	model := NewModel(nil)
	model.Init()

	ov := services.Overview{
		Budget: models.BudgetSnapshot{Limit: 100, Spend: 12},
		Recent: []models.FeedbackEntry{{ID: 1, Content: "Good pace"}},
	}
	model.Update(OverviewLoadedMsg{Overview: ov})

	if model.state.IsInitialLoading() {
		t.Error("initial loading should end with the first overview")
	}
	got, ok := model.state.GetOverview()
	if !ok || got.Budget.Spend != 12 {
		t.Errorf("overview = %+v, %v", got, ok)
	}
	for _, n := range model.state.GetNotifications() {
		if n.ID == LoadingNotificationID {
			t.Error("loading notification should be cleared")
		}
	}
}

func TestModel_FeedbackResult(t *testing.T) {
	model := NewModel(nil)

	model.Update(StartLoadingMsg{Resource: ResourceFeedback})
	if !model.state.IsGenerating() {
		t.Fatal("feedback loading should be set")
	}

	entry := &models.FeedbackEntry{ID: 7, Content: "Nice focus block", Trigger: models.TriggerManual}
	cmds := model.handleFeedbackResult(FeedbackResultMsg{Result: feedback.Result{Entry: entry, Success: true}})
	drain(model, cmds[0])

	if model.state.IsGenerating() {
		t.Error("feedback loading should be cleared")
	}
	if recent := model.state.RecentFeedback(); len(recent) != 1 || recent[0].ID != 7 {
		t.Errorf("recent = %+v", recent)
	}
	if n := lastNotification(t, model); n.Type != NotificationSuccess {
		t.Errorf("notification type = %v, want success", n.Type)
	}

	cmds = model.handleFeedbackResult(FeedbackResultMsg{Result: feedback.Result{
		Reason: llm.ReasonServerNotRunning,
		Error:  "Ollama is not running",
	}})
	drain(model, cmds[0])
	n := lastNotification(t, model)
	if n.Type != NotificationError || !strings.Contains(n.Message, "Ollama is not running") {
		t.Errorf("notification = %+v", n)
	}
	if len(model.state.RecentFeedback()) != 1 {
		t.Error("failed generation should not add an entry")
	}
}

func TestModel_GenerateWhileGeneratingIsIgnored(t *testing.T) {
	model := NewModel(nil)
	model.Update(StartLoadingMsg{Resource: ResourceFeedback})

	cmds := model.handleAppMsg(GenerateFeedbackMsg{})
	if len(cmds) != 0 {
		t.Errorf("expected no commands while generating, got %d", len(cmds))
	}
}

func TestModel_FeedbackRated(t *testing.T) {
	model := NewModel(nil)
	model.state.SetOverview(services.Overview{Recent: []models.FeedbackEntry{{ID: 3}}})

	drain(model, model.handleFeedbackRated(FeedbackRatedMsg{ID: 3, Rating: 4}))
	recent := model.state.RecentFeedback()
	if recent[0].Rating == nil || *recent[0].Rating != 4 {
		t.Errorf("rating = %v, want 4", recent[0].Rating)
	}

	drain(model, model.handleFeedbackRated(FeedbackRatedMsg{ID: 3, Rating: 9, Error: errors.New("rating must be between 1 and 5")}))
	if n := lastNotification(t, model); n.Type != NotificationError {
		t.Errorf("notification type = %v, want error", n.Type)
	}
	if *model.state.RecentFeedback()[0].Rating != 4 {
		t.Error("failed rating should not change the cached entry")
	}
}

func TestModel_HandleServiceEvent(t *testing.T) {
	model := NewModel(nil)
	model.state.SetOverview(services.Overview{})

	cmd := model.handleServiceEvent(services.FeedbackGeneratedEvent{
		Entry: models.FeedbackEntry{ID: 11, Trigger: models.TriggerScheduled},
	})
	if cmd == nil {
		t.Error("scheduled feedback should notify")
	}
	if len(model.state.RecentFeedback()) != 1 {
		t.Error("event entry should be cached")
	}

	warn := models.BudgetSnapshot{Limit: 10, Spend: 9, PercentUsed: 90, ShouldWarn: true}
	if cmd := model.handleServiceEvent(services.BudgetEvent{Snapshot: warn}); cmd == nil {
		t.Error("crossing the warning threshold should notify")
	}
	if cmd := model.handleServiceEvent(services.BudgetEvent{Snapshot: warn}); cmd != nil {
		t.Error("repeated warning should not notify again")
	}
	over := models.BudgetSnapshot{Limit: 10, Spend: 11, PercentUsed: 110, ShouldWarn: true, OverBudget: true}
	if cmd := model.handleServiceEvent(services.BudgetEvent{Snapshot: over}); cmd == nil {
		t.Error("going over budget should notify")
	}
	if ov, _ := model.state.GetOverview(); !ov.Budget.OverBudget {
		t.Error("budget should be updated from the event")
	}

	if cmd := model.handleServiceEvent(services.WeightsReloadedEvent{Overrides: 2}); cmd == nil {
		t.Error("weights reload should notify")
	}
	if cmd := model.handleServiceEvent(services.ErrorEvent{Service: "weights", Error: errors.New("boom")}); cmd == nil {
		t.Error("Error event should trigger notification command")
	}
}

func TestModel_LoadingMessages(t *testing.T) {
	model := NewModel(nil)

	model.Update(StartLoadingMsg{Resource: ResourceOverview})
	if !model.state.Loading.Overview {
		t.Error("Loading.Overview should be true")
	}
	model.Update(StopLoadingMsg{Resource: ResourceOverview})
	if model.state.Loading.Overview {
		t.Error("Loading.Overview should be false")
	}

	model.Update(RefreshMsg{})
	model.Update(RemoveNotificationMsg{ID: "nonexistent"})
	model.Update(ClearExpiredNotificationsMsg{})
}

func TestModel_HandleSpinnerTick(t *testing.T) {
	model := NewModel(nil)
	if _, cmd := model.Update(spinner.TickMsg{}); cmd == nil {
		t.Error("Spinner tick should return command")
	}
}

func TestTabID_String(t *testing.T) {
	tests := map[TabID]string{
		TabDashboard: "Dashboard",
		TabFeedback:  "Feedback",
		TabInfo:      "Info",
		TabID(999):   "Unknown",
	}
	for id, want := range tests {
		if got := id.String(); got != want {
			t.Errorf("TabID(%d).String() = %q, want %q", id, got, want)
		}
	}
}

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.ShortHelp()) == 0 || len(km.FullHelp()) == 0 {
		t.Error("help bindings empty")
	}
}
