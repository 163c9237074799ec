// Package feedback schedules coaching check-ins across the day and turns
// planner and activity state into generated feedback.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/j-veylop/omnicoach/internal/clock"
	"github.com/j-veylop/omnicoach/internal/config"
	"github.com/j-veylop/omnicoach/internal/logger"
	"github.com/j-veylop/omnicoach/internal/models"
	"github.com/j-veylop/omnicoach/internal/services/llm"
)

// DefaultCheckInterval is how often due slots are looked for.
const DefaultCheckInterval = 30 * time.Minute

// DefaultRecentLimit is the number of entries RecentFeedback returns when
// no positive limit is given.
const DefaultRecentLimit = 10

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// ErrInvalidRating is returned for ratings outside [MinRating, MaxRating].
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// State is the lifecycle state of a Scheduler.
type State int

const (
	StateUninitialized State = iota
	StateScheduled
	StateIdle
	StateGenerating
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateScheduled:
		return "scheduled"
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Store persists feedback entries.
type Store interface {
	InsertFeedback(ctx context.Context, e *models.FeedbackEntry) error
	RecentFeedback(ctx context.Context, limit int) ([]models.FeedbackEntry, error)
	RateFeedback(ctx context.Context, id int64, rating int) error
}

// Planner reads the tasks, goals and habits the context is built from.
type Planner interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	ListGoals(ctx context.Context) ([]models.Goal, error)
	HabitsForDay(ctx context.Context, day time.Time) ([]models.Habit, error)
}

// StatsSource supplies today's activity statistics.
type StatsSource interface {
	TodayStats(ctx context.Context) (models.TodayStats, error)
}

// Generator produces text through the LLM gateway.
type Generator interface {
	Generate(ctx context.Context, prompt string, pc llm.Context, opts llm.Options) llm.Result
}

// SettingsSource supplies frequency, enablement, tone and personality.
type SettingsSource interface {
	Load(ctx context.Context) (config.Settings, error)
}

// Options configures a Scheduler.
type Options struct {
	Clock         clock.Clock
	OnFeedback    func(models.FeedbackEntry)
	CheckInterval time.Duration
}

// Result is the outcome of one generation.
type Result struct {
	Entry   *models.FeedbackEntry `json:"feedback,omitempty"`
	Usage   *models.UsageRecord   `json:"usage,omitempty"`
	Reason  llm.Reason            `json:"reason,omitempty"`
	Error   string                `json:"error,omitempty"`
	Success bool                  `json:"success"`
}

// Scheduler owns the daily schedule and serializes feedback generation.
type Scheduler struct {
	mu       sync.Mutex
	genMu    sync.Mutex
	store    Store
	planner  Planner
	stats    StatsSource
	gen      Generator
	settings SettingsSource
	clock    clock.Clock
	onFeed   func(models.FeedbackEntry)
	interval time.Duration

	state    State
	schedule []Slot
	day      time.Time
	enabled  bool

	wake     chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a scheduler in the uninitialized state.
func NewScheduler(store Store, planner Planner, stats StatsSource, gen Generator, settings SettingsSource, opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	return &Scheduler{
		store:    store,
		planner:  planner,
		stats:    stats,
		gen:      gen,
		settings: settings,
		clock:    opts.Clock,
		onFeed:   opts.OnFeedback,
		interval: opts.CheckInterval,
		wake:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Initialize builds today's schedule from the settings and moves to
// StateScheduled. It does nothing once initialized.
func (s *Scheduler) Initialize(ctx context.Context) error {
	settings := s.loadSettings(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateStopped:
		return errors.New("scheduler is stopped")
	case StateUninitialized:
	default:
		return nil
	}

	s.rebuildLocked(settings)
	s.state = StateScheduled
	logger.Info("feedback scheduler initialized", "enabled", s.enabled, "slots", len(s.schedule))
	return nil
}

// Reschedule rebuilds the schedule from the current settings, e.g. after
// the frequency or the enabled flag changed.
func (s *Scheduler) Reschedule(ctx context.Context) {
	settings := s.loadSettings(ctx)

	s.mu.Lock()
	if s.state == StateStopped || s.state == StateUninitialized {
		s.mu.Unlock()
		return
	}
	s.rebuildLocked(settings)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) rebuildLocked(settings config.Settings) {
	now := s.clock.Now()
	s.day = clock.StartOfDay(now)
	s.enabled = settings.AutoFeedback && settings.FeedbackFrequency > 0
	if !s.enabled {
		s.schedule = nil
		return
	}
	s.schedule = BuildSchedule(now, settings.FeedbackFrequency)
}

// Check generates feedback for every untriggered slot whose time has passed
// and returns how many it fired. Each slot is marked triggered before its
// generation starts, so it fires at most once even if generation fails.
func (s *Scheduler) Check(ctx context.Context) int {
	now := s.clock.Now()

	s.mu.Lock()
	if s.state == StateUninitialized || s.state == StateStopped {
		s.mu.Unlock()
		return 0
	}
	if !clock.StartOfDay(now).Equal(s.day) {
		s.mu.Unlock()
		settings := s.loadSettings(ctx)
		s.mu.Lock()
		s.rebuildLocked(settings)
		logger.Info("feedback schedule rebuilt for new day", "slots", len(s.schedule))
	}

	due := 0
	for i := range s.schedule {
		if !s.schedule[i].Triggered && !now.Before(s.schedule[i].At) {
			s.schedule[i].Triggered = true
			due++
		}
	}
	s.mu.Unlock()

	for range due {
		if ctx.Err() != nil {
			break
		}
		res := s.GenerateFeedback(ctx, models.TriggerScheduled)
		if !res.Success {
			logger.Warn("scheduled feedback failed", "reason", string(res.Reason), "error", res.Error)
		}
	}
	return due
}

// Run checks the schedule on a ticker until ctx is cancelled or Stop is
// called. While feedback is disabled no ticker runs; Reschedule wakes it.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	defer s.Stop()

	for s.runPeriod(ctx) {
	}
	return nil
}

// runPeriod reports whether the loop should continue with a fresh ticker.
func (s *Scheduler) runPeriod(ctx context.Context) bool {
	var tick <-chan time.Time
	if s.Enabled() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return false
		case <-s.stopCh:
			return false
		case <-s.wake:
			return true
		case <-tick:
			s.Check(ctx)
		}
	}
}

// Stop ends the run loop and moves to StateStopped. It is safe to call more
// than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.mu.Lock()
		s.state = StateStopped
		s.schedule = nil
		s.mu.Unlock()
		logger.Info("feedback scheduler stopped")
	})
}

// State returns the lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Enabled reports whether scheduled feedback is on.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Schedule returns a copy of the current slots.
func (s *Scheduler) Schedule() []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Slot, len(s.schedule))
	copy(out, s.schedule)
	return out
}

// NextSlot returns the earliest untriggered slot.
func (s *Scheduler) NextSlot() (Slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, slot := range s.schedule {
		if !slot.Triggered {
			return slot, true
		}
	}
	return Slot{}, false
}

func (s *Scheduler) setGenerating() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	if prev != StateStopped {
		s.state = StateGenerating
	}
	return prev
}

func (s *Scheduler) finishGenerating(prev State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == StateStopped:
	case prev == StateUninitialized:
		s.state = StateUninitialized
	default:
		s.state = StateIdle
	}
}

// GenerateFeedback builds the current context, asks the gateway for
// feedback and persists it. Generations are serialized.
func (s *Scheduler) GenerateFeedback(ctx context.Context, trigger models.TriggerKind) Result {
	s.genMu.Lock()
	defer s.genMu.Unlock()

	prev := s.setGenerating()
	defer s.finishGenerating(prev)

	settings := s.loadSettings(ctx)
	snap := s.BuildContext(ctx)
	prompt := BuildPrompt(trigger, settings.FeedbackTone, snap)

	res := s.gen.Generate(ctx, prompt, snap.LLMContext(), llm.Options{
		Personality: settings.DefaultPersonality,
		RequestKind: models.RequestKindFeedback,
	})
	if !res.Success {
		return Result{Usage: res.Usage, Reason: res.Reason, Error: res.Error}
	}

	entry := &models.FeedbackEntry{
		Timestamp:         s.clock.Now(),
		Trigger:           trigger,
		Content:           res.Text,
		MoodScore:         snap.MoodScore,
		ProductivityScore: snap.ProductivityScore,
	}
	if err := s.store.InsertFeedback(ctx, entry); err != nil {
		logger.Error("failed to save feedback", "trigger", string(trigger), "error", err)
		return Result{Usage: res.Usage, Error: "failed to save feedback"}
	}

	logger.Info("feedback generated", "id", entry.ID, "trigger", string(trigger), "provider", res.Provider)
	if s.onFeed != nil {
		s.onFeed(*entry)
	}
	return Result{Entry: entry, Usage: res.Usage, Success: true}
}

// BuildContext gathers planner and activity state into a snapshot. Read
// failures are logged and treated as empty data.
func (s *Scheduler) BuildContext(ctx context.Context) Snapshot {
	now := s.clock.Now()

	tasks, err := s.planner.ListTasks(ctx)
	if err != nil {
		logger.Warn("feedback context: failed to load tasks", "error", err)
	}
	goals, err := s.planner.ListGoals(ctx)
	if err != nil {
		logger.Warn("feedback context: failed to load goals", "error", err)
	}
	habits, err := s.planner.HabitsForDay(ctx, now)
	if err != nil {
		logger.Warn("feedback context: failed to load habits", "error", err)
	}

	var stats *models.TodayStats
	if s.stats != nil {
		today, err := s.stats.TodayStats(ctx)
		if err != nil {
			logger.Warn("feedback context: failed to load activity stats", "error", err)
		} else {
			stats = &today
		}
	}

	return BuildContext(now, tasks, goals, habits, stats)
}

// RecentFeedback returns up to limit entries, newest first.
func (s *Scheduler) RecentFeedback(ctx context.Context, limit int) ([]models.FeedbackEntry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	entries, err := s.store.RecentFeedback(ctx, limit)
	if err != nil {
		return []models.FeedbackEntry{}, fmt.Errorf("failed to load feedback: %w", err)
	}
	if entries == nil {
		entries = []models.FeedbackEntry{}
	}
	return entries, nil
}

// RateFeedback attaches a rating to an entry, replacing any previous rating.
func (s *Scheduler) RateFeedback(ctx context.Context, id int64, rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return s.store.RateFeedback(ctx, id, rating)
}

func (s *Scheduler) loadSettings(ctx context.Context) config.Settings {
	if s.settings == nil {
		return config.DefaultSettings()
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		logger.Warn("feedback using fallback settings", "error", err)
	}
	return settings
}
