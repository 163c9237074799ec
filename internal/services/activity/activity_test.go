package activity

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/j-veylop/omnicoach/internal/clock"
	"github.com/j-veylop/omnicoach/internal/models"
)

type memStore struct {
	mu      sync.Mutex
	samples []models.ActivitySample
	failIns bool
}

func (m *memStore) InsertActivitySample(_ context.Context, s *models.ActivitySample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIns {
		return errors.New("disk full")
	}
	s.ID = int64(len(m.samples) + 1)
	m.samples = append(m.samples, *s)
	return nil
}

func (m *memStore) ActivitySamplesSince(_ context.Context, since time.Time) ([]models.ActivitySample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ActivitySample
	for _, s := range m.samples {
		if !s.Timestamp.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) AppUsageSince(_ context.Context, _ time.Time) ([]models.AppUsage, error) {
	return nil, nil
}

type scriptedFocus struct {
	windows []Window
	errs    []error
	i       int
}

func (f *scriptedFocus) ActiveWindow(_ context.Context) (Window, error) {
	i := f.i
	f.i++
	if i < len(f.errs) && f.errs[i] != nil {
		return Window{App: UnknownApp}, f.errs[i]
	}
	if i >= len(f.windows) {
		return f.windows[len(f.windows)-1], nil
	}
	return f.windows[i], nil
}

type recordingPersister struct {
	app    string
	weight float64
}

func (p *recordingPersister) SetWeight(app string, weight float64) error {
	p.app, p.weight = app, weight
	return nil
}

func TestClassify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name     string
		app      string
		weight   float64
		category models.Category
	}{
		{"exact", "Slack", 70, models.CategoryCommunication},
		{"substring in name", "Visual Studio Code", 95, models.CategoryDevelopment},
		{"browser title", "Google Chrome", 60, models.CategoryBrowsing},
		{"name inside key", "notepad", 85, models.CategoryOther},
		{"entertainment", "Netflix", 10, models.CategoryEntertainment},
		{"unknown", "Blender", DefaultWeight, models.CategoryOther},
		{"empty", "", EmptyNameWeight, models.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.app)
			if got.Weight != tt.weight {
				t.Errorf("Weight(%q) = %v, want %v", tt.app, got.Weight, tt.weight)
			}
			if got.Category != tt.category {
				t.Errorf("Category(%q) = %v, want %v", tt.app, got.Category, tt.category)
			}
		})
	}
}

func TestClassifier_SetWeightPurgesCache(t *testing.T) {
	c := NewClassifier()

	if got := c.Weight("Blender"); got != DefaultWeight {
		t.Fatalf("Weight() = %v, want default", got)
	}

	if applied := c.SetWeight("Blender", 140); applied != 100 {
		t.Errorf("SetWeight() applied %v, want clamp to 100", applied)
	}
	if got := c.Weight("blender"); got != 100 {
		t.Errorf("Weight() after SetWeight = %v, want 100", got)
	}

	c.SetWeight("", 10)
	if got := c.Weight("Blender"); got != 100 {
		t.Errorf("empty name must not enter the table, got %v", got)
	}
}

func TestClassifier_ApplyOverrides(t *testing.T) {
	c := NewClassifier()
	c.SetWeight("blender", 90)

	c.ApplyOverrides(
		map[string]float64{"Chrome": 40, "figma": -5},
		map[models.Category][]string{models.CategoryDevelopment: {"Blender"}},
	)

	if got := c.Weight("Chrome"); got != 40 {
		t.Errorf("override not applied: %v", got)
	}
	if got := c.Weight("figma"); got != 0 {
		t.Errorf("override should clamp to 0, got %v", got)
	}
	if got := c.Weight("blender"); got != DefaultWeight {
		t.Errorf("ApplyOverrides should reset runtime weights, got %v", got)
	}
	if got := c.Category("Blender"); got != models.CategoryDevelopment {
		t.Errorf("extra category keyword not applied: %v", got)
	}
}

func TestComputeStats(t *testing.T) {
	samples := []models.ActivitySample{
		{AppName: "Chrome", Duration: 600, Productivity: 60, Category: models.CategoryBrowsing},
		{AppName: "Chrome", Duration: 300, Productivity: 60, Category: models.CategoryBrowsing},
		{AppName: "VS Code", Duration: 1800, Productivity: 95, Category: models.CategoryDevelopment},
	}

	stats := ComputeStats(samples)

	if stats.TotalTime != 2700 {
		t.Errorf("TotalTime = %d, want 2700", stats.TotalTime)
	}
	if math.Abs(stats.AvgProductivity-71.6667) > 0.001 {
		t.Errorf("AvgProductivity = %v, want ~71.67", stats.AvgProductivity)
	}
	if stats.Sessions != 3 {
		t.Errorf("Sessions = %d, want 3", stats.Sessions)
	}
	if got := stats.Apps["Chrome"]; got.Time != 900 || got.Sessions != 2 || got.Productivity != 60 {
		t.Errorf("Apps[Chrome] = %+v", got)
	}
	if got := stats.Categories[models.CategoryDevelopment]; got.Time != 1800 || got.Productivity != 95 {
		t.Errorf("Categories[development] = %+v", got)
	}
	if h := stats.ActiveHours(); h != 0.75 {
		t.Errorf("ActiveHours() = %v, want 0.75", h)
	}
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)
	if stats.TotalTime != 0 || stats.AvgProductivity != 0 || stats.Sessions != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
	if stats.Apps == nil || stats.Categories == nil {
		t.Error("breakdown maps should be non-nil")
	}
}

func TestSampler_PollOpensAndClosesSessions(t *testing.T) {
	start := time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local)
	clk := clock.NewFixed(start)
	store := &memStore{}
	focus := &scriptedFocus{windows: []Window{
		{App: "Code", Title: "main.go"},
		{App: "Code", Title: "main.go"},
		{App: "Chrome", Title: "docs"},
		{App: "Slack", Title: "general"},
	}}

	var seen []models.ActivitySample
	s := NewSampler(store, focus, nil, Options{
		Clock:    clk,
		OnSample: func(sample models.ActivitySample) { seen = append(seen, sample) },
	})
	ctx := context.Background()

	s.Poll(ctx) // open Code
	clk.Advance(10 * time.Minute)
	s.Poll(ctx) // still Code
	clk.Advance(2 * time.Minute)
	s.Poll(ctx) // Chrome: Code written (12m)
	clk.Advance(3 * time.Second)
	s.Poll(ctx) // Slack: Chrome discarded as noise

	if len(store.samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(store.samples))
	}
	got := store.samples[0]
	if got.AppName != "Code" || got.Duration != 720 || got.Productivity != 95 || got.Category != models.CategoryDevelopment {
		t.Errorf("sample = %+v", got)
	}
	if len(seen) != 1 {
		t.Errorf("OnSample called %d times, want 1", len(seen))
	}
	if app, ok := s.CurrentApp(); !ok || app != "Slack" {
		t.Errorf("CurrentApp() = %q, %v; want Slack", app, ok)
	}
}

func TestSampler_FailedPollCountsAsUnknown(t *testing.T) {
	clk := clock.NewFixed(time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local))
	store := &memStore{}
	focus := &scriptedFocus{
		windows: []Window{{App: "Visual Studio Code"}},
		errs:    []error{nil, errors.New("xdotool: not found"), errors.New("xdotool: not found")},
	}
	s := NewSampler(store, focus, nil, Options{Clock: clk})
	ctx := context.Background()

	s.Poll(ctx)
	clk.Advance(time.Minute)
	s.Poll(ctx)
	clk.Advance(30 * time.Minute)
	s.Poll(ctx)

	if len(store.samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(store.samples))
	}
	if got := store.samples[0]; got.AppName != "Visual Studio Code" || got.Duration != 60 {
		t.Errorf("sample = %+v, want 60s of Visual Studio Code", got)
	}
	if app, _ := s.CurrentApp(); app != UnknownApp {
		t.Errorf("CurrentApp() = %q, want %q", app, UnknownApp)
	}

	sample := s.CloseSession(ctx)
	if sample == nil || sample.AppName != UnknownApp || sample.Duration != 1800 {
		t.Fatalf("closed sample = %+v, want 1800s of %s", sample, UnknownApp)
	}
	if sample.Productivity == 95 {
		t.Error("unknown time should not inherit the previous app's weight")
	}
}

func TestSampler_Flush(t *testing.T) {
	clk := clock.NewFixed(time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local))
	store := &memStore{}
	s := NewSampler(store, &scriptedFocus{windows: []Window{{App: "Code"}}}, nil, Options{Clock: clk})
	ctx := context.Background()

	if s.Flush(ctx) != nil {
		t.Error("Flush() without a session should write nothing")
	}

	s.Poll(ctx)
	clk.Advance(2 * time.Second)
	if s.Flush(ctx) != nil {
		t.Error("Flush() of a short session should write nothing")
	}
	clk.Advance(5 * time.Minute)
	if sample := s.Flush(ctx); sample == nil || sample.Duration != 302 {
		t.Fatalf("Flush() = %+v, want 302s sample", sample)
	}
	clk.Advance(time.Minute)
	if sample := s.CloseSession(ctx); sample == nil || sample.Duration != 60 {
		t.Errorf("CloseSession() after flush = %+v, want 60s sample", sample)
	}
	if _, ok := s.CurrentApp(); ok {
		t.Error("CloseSession() should clear the session")
	}
}

func TestSampler_StoreFailureIsSwallowed(t *testing.T) {
	clk := clock.NewFixed(time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local))
	store := &memStore{failIns: true}
	s := NewSampler(store, &scriptedFocus{windows: []Window{{App: "Code"}}}, nil, Options{Clock: clk})
	ctx := context.Background()

	s.Poll(ctx)
	clk.Advance(time.Minute)
	if sample := s.CloseSession(ctx); sample != nil {
		t.Errorf("CloseSession() = %+v, want nil on store failure", sample)
	}
}

func TestSampler_TodayStats(t *testing.T) {
	now := time.Date(2024, 3, 5, 15, 0, 0, 0, time.Local)
	store := &memStore{samples: []models.ActivitySample{
		{AppName: "Yesterday", Duration: 100, Productivity: 10, Timestamp: now.AddDate(0, 0, -1)},
		{AppName: "Chrome", Duration: 600, Productivity: 60, Timestamp: now.Add(-3 * time.Hour)},
		{AppName: "Chrome", Duration: 300, Productivity: 60, Timestamp: now.Add(-2 * time.Hour)},
		{AppName: "VS Code", Duration: 1800, Productivity: 95, Timestamp: now.Add(-time.Hour)},
	}}
	s := NewSampler(store, &scriptedFocus{windows: []Window{{App: "x"}}}, nil, Options{Clock: clock.NewFixed(now)})

	stats, err := s.TodayStats(context.Background())
	if err != nil {
		t.Fatalf("TodayStats() failed: %v", err)
	}
	if stats.TotalTime != 2700 || stats.Apps["Chrome"].Time != 900 {
		t.Errorf("TodayStats() = %+v", stats)
	}
}

func TestSampler_SetProductivityScore(t *testing.T) {
	p := &recordingPersister{}
	s := NewSampler(&memStore{}, &scriptedFocus{windows: []Window{{App: "x"}}}, nil, Options{Persister: p})

	applied, err := s.SetProductivityScore("Figma", -20)
	if err != nil {
		t.Fatalf("SetProductivityScore() failed: %v", err)
	}
	if applied != 0 || p.weight != 0 || p.app != "Figma" {
		t.Errorf("applied %v, persisted %q=%v", applied, p.app, p.weight)
	}
	if got := s.Classifier().Weight("figma"); got != 0 {
		t.Errorf("Weight() = %v, want 0", got)
	}
}

func TestSampler_RunStopsOnCancel(t *testing.T) {
	clk := clock.NewFixed(time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local))
	store := &memStore{}
	s := NewSampler(store, &scriptedFocus{windows: []Window{{App: "Code"}}}, nil, Options{
		Clock:        clk,
		PollInterval: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Wait for the initial poll to open a session.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := s.CurrentApp(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Run() never polled")
		}
		time.Sleep(5 * time.Millisecond)
	}

	clk.Advance(time.Minute)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.samples) != 1 || store.samples[0].Duration != 60 {
		t.Errorf("final session not written: %+v", store.samples)
	}
}

func TestParsePowerShellOutput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		app   string
		err   bool
	}{
		{"array", `[{"ProcessName":"Code","MainWindowTitle":"main.go"},{"ProcessName":"slack","MainWindowTitle":"x"}]`, "Code", false},
		{"single", `{"ProcessName":"chrome","MainWindowTitle":"docs"}`, "chrome", false},
		{"empty", "", UnknownApp, false},
		{"garbage", "{oops", UnknownApp, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := parsePowerShellOutput([]byte(tt.input))
			if (err != nil) != tt.err {
				t.Fatalf("err = %v, want err %v", err, tt.err)
			}
			if w.App != tt.app {
				t.Errorf("App = %q, want %q", w.App, tt.app)
			}
		})
	}
}

func TestCommandFocusProvider(t *testing.T) {
	p := &CommandFocusProvider{
		goos: "linux",
		run: func(_ context.Context, name string, args ...string) ([]byte, error) {
			if name != "xdotool" {
				t.Errorf("unexpected command %q", name)
			}
			return []byte("  Firefox  \n"), nil
		},
	}

	w, err := p.ActiveWindow(context.Background())
	if err != nil {
		t.Fatalf("ActiveWindow() failed: %v", err)
	}
	if w.App != "Firefox" || w.Title != "Firefox" {
		t.Errorf("ActiveWindow() = %+v", w)
	}

	p.run = func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}
	w, err = p.ActiveWindow(context.Background())
	if err == nil || w.App != UnknownApp {
		t.Errorf("ActiveWindow() on failure = %+v, %v", w, err)
	}
}
