// Package services wires the coaching components together and routes their
// events to the TUI and the API.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/omnicoach/internal/clock"
	"github.com/j-veylop/omnicoach/internal/config"
	"github.com/j-veylop/omnicoach/internal/db"
	"github.com/j-veylop/omnicoach/internal/logger"
	"github.com/j-veylop/omnicoach/internal/models"
	"github.com/j-veylop/omnicoach/internal/services/activity"
	"github.com/j-veylop/omnicoach/internal/services/budget"
	"github.com/j-veylop/omnicoach/internal/services/feedback"
	"github.com/j-veylop/omnicoach/internal/services/llm"
	"github.com/j-veylop/omnicoach/internal/services/weights"
)

type (
	// FeedbackGeneratedEvent is emitted when a feedback entry is saved.
	FeedbackGeneratedEvent struct {
		Entry models.FeedbackEntry
	}

	// BudgetEvent is emitted whenever the budget is recomputed.
	BudgetEvent struct {
		Snapshot models.BudgetSnapshot
	}

	// ActivityEvent is emitted when an activity sample is written.
	ActivityEvent struct {
		Sample models.ActivitySample
	}

	// WeightsReloadedEvent is emitted when the weight overrides file changes.
	WeightsReloadedEvent struct {
		Overrides int
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (FeedbackGeneratedEvent) isServiceEvent() {}
func (BudgetEvent) isServiceEvent()            {}
func (ActivityEvent) isServiceEvent()          {}
func (WeightsReloadedEvent) isServiceEvent()   {}
func (ErrorEvent) isServiceEvent()             {}

// Options replaces the collaborators NewManager would otherwise build.
// Zero values use the real implementations.
type Options struct {
	Clock      clock.Clock
	Focus      activity.FocusProvider
	HTTPClient *http.Client
	Notify     func(title, message string) error
}

// Overview is everything the dashboard shows in one read.
type Overview struct {
	NextSlot *feedback.Slot
	Today    models.TodayStats
	Usage    []models.ProviderUsage
	Recent   []models.FeedbackEntry
	Forecast models.BudgetForecast
	Budget   models.BudgetSnapshot
	State    feedback.State
	Enabled  bool
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	clock       clock.Clock
	database    *db.DB
	settings    *config.Store
	weights     *weights.Service
	classifier  *activity.Classifier
	sampler     *activity.Sampler
	gateway     *llm.Gateway
	budget      *budget.Accountant
	feedback    *feedback.Scheduler
	notify      func(title, message string) error
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	started   bool
	closeOnce sync.Once

	budgetMu   sync.Mutex
	warned     bool
	overBudget bool
}

// NewManager opens the database, seeds the settings and builds every
// component. Call Start to begin the background loops.
func NewManager(cfg *config.Config, opts Options) (*Manager, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Focus == nil {
		opts.Focus = activity.NewCommandFocusProvider()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Notify == nil {
		opts.Notify = func(title, message string) error {
			return beeep.Notify(title, message, "")
		}
	}

	m := &Manager{
		cfg:      cfg,
		clock:    opts.Clock,
		notify:   opts.Notify,
		stopChan: make(chan struct{}),
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.settings = config.NewStore(m.database)
	if err := m.settings.Seed(context.Background(), cfg); err != nil {
		_ = m.database.Close()
		return nil, fmt.Errorf("failed to seed settings: %w", err)
	}

	m.weights, err = weights.New(cfg.WeightsPath)
	if err != nil {
		_ = m.database.Close()
		return nil, err
	}

	m.classifier = activity.NewClassifier()
	m.classifier.ApplyOverrides(m.weights.Weights(), m.weights.Categories())
	m.weights.OnChange(func(weights.File) {
		m.classifier.ApplyOverrides(m.weights.Weights(), m.weights.Categories())
	})

	m.sampler = activity.NewSampler(m.database, opts.Focus, m.classifier, activity.Options{
		Clock:         opts.Clock,
		Persister:     m.weights,
		OnSample:      m.onSample,
		PollInterval:  cfg.PollInterval,
		FlushInterval: cfg.FlushInterval,
	})

	m.budget = budget.New(m.database, m.settings, opts.Clock)

	m.gateway = llm.NewGateway(llm.GatewayConfig{
		Ledger:             m.database,
		Settings:           m.settings,
		Budget:             m.budget,
		CloudRatePerMinute: cfg.CloudRateLimit,
		Timeout:            cfg.LLMTimeout,
	},
		llm.NewOllama(cfg.OllamaURL, "", opts.HTTPClient),
		llm.NewOpenAI(cfg.OpenAIURL, "", opts.HTTPClient),
		llm.NewAnthropic(cfg.AnthropicURL, "", opts.HTTPClient),
	)

	m.feedback = feedback.NewScheduler(m.database, m.database, m.sampler, m.gateway, m.settings, feedback.Options{
		Clock:         opts.Clock,
		OnFeedback:    m.onFeedback,
		CheckInterval: cfg.FeedbackCheckInterval,
	})

	m.wg.Add(1)
	go m.routeEvents()

	return m, nil
}

// Start launches the sampler and the feedback scheduler. They stop when ctx
// is cancelled or the manager is closed.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		m.sampler.Run(ctx)
	}()
	go func() {
		defer m.wg.Done()
		if err := m.feedback.Run(ctx); err != nil {
			logger.Error("feedback scheduler exited", "error", err)
			m.broadcast(ErrorEvent{Service: "feedback", Error: err})
		}
	}()

	_, _ = m.CheckBudget(ctx)
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	defer m.wg.Done()
	for {
		select {
		case event := <-m.weights.Events():
			m.handleWeightsEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleWeightsEvent(event weights.Event) {
	switch event.Type {
	case weights.EventChanged:
		m.broadcast(WeightsReloadedEvent{Overrides: len(m.weights.Weights())})

	case weights.EventError:
		m.broadcast(ErrorEvent{
			Service: "weights",
			Error:   event.Error,
		})
	}
}

func (m *Manager) onSample(sample models.ActivitySample) {
	m.broadcast(ActivityEvent{Sample: sample})
}

func (m *Manager) onFeedback(entry models.FeedbackEntry) {
	m.broadcast(FeedbackGeneratedEvent{Entry: entry})

	if entry.Trigger == models.TriggerScheduled {
		_ = m.notify("Coaching check-in", truncate(entry.Content, 180))
	}
}

// CheckBudget recomputes the budget, broadcasts it and sends a desktop
// notification when the warning threshold or the limit is first crossed.
func (m *Manager) CheckBudget(ctx context.Context) (models.BudgetSnapshot, error) {
	snap, err := m.budget.Snapshot(ctx)
	if err != nil {
		logger.Warn("failed to compute budget", "error", err)
		m.broadcast(ErrorEvent{Service: "budget", Error: err})
		return snap, err
	}

	m.broadcast(BudgetEvent{Snapshot: snap})

	m.budgetMu.Lock()
	crossedWarn := snap.ShouldWarn && !m.warned
	crossedOver := snap.OverBudget && !m.overBudget
	m.warned = snap.ShouldWarn
	m.overBudget = snap.OverBudget
	m.budgetMu.Unlock()

	switch {
	case crossedOver:
		_ = m.notify("Over budget",
			fmt.Sprintf("LLM spend is $%.2f of your $%.2f monthly budget", snap.Spend, snap.Limit))
	case crossedWarn:
		_ = m.notify("Budget warning",
			fmt.Sprintf("You have used %.1f%% of your monthly LLM budget", snap.PercentUsed))
	}
	return snap, nil
}

// Generate serves a free-form prompt with the current planner and activity
// context attached, then refreshes the budget when the call cost money.
func (m *Manager) Generate(ctx context.Context, prompt string, opts llm.Options) llm.Result {
	snap := m.feedback.BuildContext(ctx)
	res := m.gateway.Generate(ctx, prompt, snap.LLMContext(), opts)
	if res.Usage != nil && res.Usage.Cost > 0 {
		_, _ = m.CheckBudget(ctx)
	}
	return res
}

// GenerateFeedback produces manual feedback.
func (m *Manager) GenerateFeedback(ctx context.Context) feedback.Result {
	res := m.feedback.GenerateFeedback(ctx, models.TriggerManual)
	if res.Usage != nil && res.Usage.Cost > 0 {
		_, _ = m.CheckBudget(ctx)
	}
	return res
}

// SetSetting validates and stores one setting and applies it to the
// running components.
func (m *Manager) SetSetting(ctx context.Context, key, value string) error {
	if err := m.settings.Set(ctx, key, value); err != nil {
		return err
	}

	switch key {
	case config.KeyFeedbackFrequency, config.KeyAutoFeedback:
		m.feedback.Reschedule(ctx)
	case config.KeyMonthlyBudget, config.KeyBudgetThreshold, config.KeyBudgetWarnings:
		_, _ = m.CheckBudget(ctx)
	}
	return nil
}

// Overview gathers the dashboard data. Read failures leave the affected
// part empty and are logged.
func (m *Manager) Overview(ctx context.Context) Overview {
	var ov Overview
	var err error

	if ov.Today, err = m.sampler.TodayStats(ctx); err != nil {
		logger.Warn("overview: activity unavailable", "error", err)
	}
	if ov.Budget, err = m.budget.Snapshot(ctx); err != nil {
		logger.Warn("overview: budget unavailable", "error", err)
	} else {
		ov.Forecast = budget.Project(ov.Budget, m.clock.Now())
	}
	if ov.Usage, err = m.budget.Breakdown(ctx); err != nil {
		logger.Warn("overview: usage unavailable", "error", err)
	}
	if ov.Recent, err = m.feedback.RecentFeedback(ctx, 5); err != nil {
		logger.Warn("overview: feedback unavailable", "error", err)
	}
	if slot, ok := m.feedback.NextSlot(); ok {
		ov.NextSlot = &slot
	}
	ov.State = m.feedback.State()
	ov.Enabled = m.feedback.Enabled()
	return ov
}

// broadcast sends an event to every subscriber. A full subscriber misses it.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Config returns the process configuration.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Clock returns the clock shared by every component.
func (m *Manager) Clock() clock.Clock {
	return m.clock
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Settings returns the settings store.
func (m *Manager) Settings() *config.Store {
	return m.settings
}

// Weights returns the weight overrides service.
func (m *Manager) Weights() *weights.Service {
	return m.weights
}

// Sampler returns the activity sampler.
func (m *Manager) Sampler() *activity.Sampler {
	return m.sampler
}

// Gateway returns the LLM gateway.
func (m *Manager) Gateway() *llm.Gateway {
	return m.gateway
}

// Budget returns the budget accountant.
func (m *Manager) Budget() *budget.Accountant {
	return m.budget
}

// Feedback returns the feedback scheduler.
func (m *Manager) Feedback() *feedback.Scheduler {
	return m.feedback
}

// Close stops the background loops, waits for them and releases every
// resource. Safe to call more than once.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.mu.Lock()
		cancel := m.cancel
		m.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		m.feedback.Stop()
		close(m.stopChan)

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			logger.Warn("timed out waiting for background loops")
		}

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		var errs []error
		if cerr := m.weights.Close(); cerr != nil {
			errs = append(errs, cerr)
		}
		if m.database != nil {
			if cerr := m.database.Close(); cerr != nil {
				errs = append(errs, cerr)
			}
		}
		err = errors.Join(errs...)
	})
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
