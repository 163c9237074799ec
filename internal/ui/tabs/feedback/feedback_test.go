package feedback

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/omnicoach/internal/app"
	"github.com/j-veylop/omnicoach/internal/models"
	"github.com/j-veylop/omnicoach/internal/services"
)

func intPtr(v int) *int { return &v }

func sampleEntries() []models.FeedbackEntry {
	base := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)
	return []models.FeedbackEntry{
		{ID: 2, Timestamp: base, Trigger: models.TriggerScheduled, Content: "Solid afternoon focus.", ProductivityScore: 80},
		{ID: 1, Timestamp: base.Add(-3 * time.Hour), Trigger: models.TriggerManual, Content: "Slow start.", ProductivityScore: 40, Rating: intPtr(4)},
	}
}

func newLoaded(t *testing.T) *Model {
	t.Helper()
	state := app.NewState()
	state.SetOverview(services.Overview{Recent: sampleEntries()})

	m := New(state, nil)
	m.SetSize(120, 80)
	m.Update(app.OverviewLoadedMsg{})
	return m
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNew(t *testing.T) {
	m := New(app.NewState(), nil)
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() != nil {
		t.Error("Init without services should not load")
	}
}

func TestModel_ViewEmpty(t *testing.T) {
	m := New(app.NewState(), nil)
	m.SetSize(100, 40)

	if !strings.Contains(m.View(), "No feedback yet.") {
		t.Error("View should show the empty state")
	}
}

func TestModel_ViewEntries(t *testing.T) {
	m := newLoaded(t)
	view := m.View()

	for _, want := range []string{"Recent Check-ins", "Solid afternoon focus.", "Slow start.", "★★★★☆", "[t] last 10"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q", want)
		}
	}
}

func TestModel_Selection(t *testing.T) {
	m := newLoaded(t)

	if e, _ := m.Selected(); e.ID != 2 {
		t.Fatalf("newest entry should be selected first, got %d", e.ID)
	}
	m.Update(keyRune('j'))
	if e, _ := m.Selected(); e.ID != 1 {
		t.Errorf("j should select the next entry, got %d", e.ID)
	}
	m.Update(keyRune('j'))
	if e, _ := m.Selected(); e.ID != 1 {
		t.Error("selection should stop at the last entry")
	}
	m.Update(keyRune('k'))
	if e, _ := m.Selected(); e.ID != 2 {
		t.Errorf("k should select the previous entry, got %d", e.ID)
	}
}

func TestModel_Rating(t *testing.T) {
	m := newLoaded(t)

	_, cmd := m.Update(keyRune('+'))
	msg, ok := cmd().(app.RateFeedbackMsg)
	if !ok {
		t.Fatalf("expected RateFeedbackMsg, got %T", cmd())
	}
	if msg.ID != 2 || msg.Rating != defaultStars {
		t.Errorf("unrated entry should start at %d, got %+v", defaultStars, msg)
	}

	m.Update(keyRune('j'))
	_, cmd = m.Update(keyRune('+'))
	msg = cmd().(app.RateFeedbackMsg)
	if msg.ID != 1 || msg.Rating != 5 {
		t.Errorf("rating up from 4 = %+v, want 5", msg)
	}

	m.Update(app.FeedbackRatedMsg{ID: 1, Rating: 5})
	if e, _ := m.Selected(); e.Rating == nil || *e.Rating != 5 {
		t.Error("FeedbackRatedMsg should update the entry")
	}
	if _, cmd = m.Update(keyRune('+')); cmd != nil {
		t.Error("rating above 5 should be a no-op")
	}

	m.Update(app.FeedbackRatedMsg{ID: 1, Rating: 1, Error: errors.New("boom")})
	if e, _ := m.Selected(); *e.Rating != 5 {
		t.Error("failed rating should not change the entry")
	}
}

func TestModel_Generate(t *testing.T) {
	m := newLoaded(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if _, ok := cmd().(app.GenerateFeedbackMsg); !ok {
		t.Error("enter should request feedback")
	}
}

func TestModel_MergeNewEntry(t *testing.T) {
	m := newLoaded(t)

	entry := models.FeedbackEntry{ID: 3, Timestamp: time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC), Content: "Evening wrap-up."}
	m.state.PrependFeedback(entry)
	m.Update(app.ServiceEventMsg{Event: services.FeedbackGeneratedEvent{Entry: entry}})

	if len(m.entries) != 3 || m.entries[0].ID != 3 {
		t.Errorf("entries = %+v", m.entries)
	}

	m.Update(app.OverviewLoadedMsg{})
	if len(m.entries) != 3 {
		t.Error("merge should not duplicate entries")
	}
}

func TestModel_ToggleSize(t *testing.T) {
	m := newLoaded(t)
	m.Update(keyRune('t'))
	if m.limit != longHistory {
		t.Errorf("limit = %d, want %d", m.limit, longHistory)
	}
	m.Update(keyRune('t'))
	if m.limit != shortHistory {
		t.Errorf("limit = %d, want %d", m.limit, shortHistory)
	}
}

func TestModel_HistoryError(t *testing.T) {
	m := New(app.NewState(), nil)
	m.SetSize(100, 40)

	_, cmd := m.Update(historyErrorMsg{err: "database is locked"})
	if cmd == nil {
		t.Error("history error should notify")
	}
	if !strings.Contains(m.View(), "database is locked") {
		t.Error("View should show the error")
	}

	m.Update(historyLoadedMsg{entries: sampleEntries()})
	if m.errorMsg != "" || len(m.entries) != 2 {
		t.Error("a successful load should clear the error")
	}
}

func TestMarkdownFallback(t *testing.T) {
	md := &markdown{}
	if got := md.render("**plain**"); got != "**plain**" {
		t.Errorf("render without renderer = %q", got)
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), nil)
	if len(m.ShortHelp()) == 0 || len(m.FullHelp()) == 0 {
		t.Error("help bindings empty")
	}
}

func TestFeedbackTab_GeneratingSpinner(t *testing.T) {
	state := app.NewState()
	m := New(state, nil)
	m.SetSize(100, 40)

	if _, cmd := m.Update(app.StartLoadingMsg{Resource: app.ResourceOverview}); cmd != nil {
		if msg := cmd(); msg != nil {
			t.Errorf("overview loading should not start the spinner, got %T", msg)
		}
	}

	state.SetLoading(app.ResourceFeedback, true)
	_, cmd := m.Update(app.StartLoadingMsg{Resource: app.ResourceFeedback})
	if cmd == nil {
		t.Fatal("feedback loading should start the spinner")
	}
	if !strings.Contains(m.View(), "generating feedback...") {
		t.Error("header should show the generating spinner")
	}
}
