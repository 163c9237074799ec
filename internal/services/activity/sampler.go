package activity

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/j-veylop/omnicoach/internal/clock"
	"github.com/j-veylop/omnicoach/internal/logger"
	"github.com/j-veylop/omnicoach/internal/models"
)

const (
	// DefaultPollInterval is the focus-change detection cadence.
	DefaultPollInterval = 10 * time.Second

	// DefaultFlushInterval is the cadence at which a long-running session is written out.
	DefaultFlushInterval = 5 * time.Minute

	// MinSessionDuration is the shortest session that is recorded.
	MinSessionDuration = 5 * time.Second
)

// Store is the part of the ledger the sampler writes to and reads from.
type Store interface {
	InsertActivitySample(ctx context.Context, s *models.ActivitySample) error
	ActivitySamplesSince(ctx context.Context, since time.Time) ([]models.ActivitySample, error)
	AppUsageSince(ctx context.Context, since time.Time) ([]models.AppUsage, error)
}

// WeightPersister saves user-defined weights outside the process.
type WeightPersister interface {
	SetWeight(app string, weight float64) error
}

// Options configures a Sampler. Zero values take the package defaults.
type Options struct {
	Clock         clock.Clock
	Persister     WeightPersister
	OnSample      func(models.ActivitySample)
	PollInterval  time.Duration
	FlushInterval time.Duration
}

type session struct {
	start time.Time
	app   string
	title string
}

// Sampler tracks the focused application and records one activity sample per
// focus session.
type Sampler struct {
	mu         sync.Mutex
	store      Store
	focus      FocusProvider
	classifier *Classifier
	clock      clock.Clock
	persister  WeightPersister
	onSample   func(models.ActivitySample)
	current    *session
	poll       time.Duration
	flush      time.Duration
}

// NewSampler creates a sampler. A nil classifier uses the built-in tables.
func NewSampler(store Store, focus FocusProvider, classifier *Classifier, opts Options) *Sampler {
	if classifier == nil {
		classifier = NewClassifier()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}

	return &Sampler{
		store:      store,
		focus:      focus,
		classifier: classifier,
		clock:      opts.Clock,
		persister:  opts.Persister,
		onSample:   opts.OnSample,
		poll:       opts.PollInterval,
		flush:      opts.FlushInterval,
	}
}

// Classifier returns the classifier used to weigh sessions.
func (s *Sampler) Classifier() *Classifier {
	return s.classifier
}

// CurrentApp returns the application of the open session, if any.
func (s *Sampler) CurrentApp() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return "", false
	}
	return s.current.app, true
}

// Poll queries the focused application. When it differs from the open
// session, the session is closed and a new one opened. A failed query counts
// as the unknown application.
func (s *Sampler) Poll(ctx context.Context) {
	win, err := s.focus.ActiveWindow(ctx)
	if err != nil {
		logger.Debug("focus query failed", "error", err)
		win = Window{App: UnknownApp}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.app == win.App {
		return
	}

	s.closeLocked(ctx)
	s.current = &session{app: win.App, title: win.Title, start: s.clock.Now()}
}

// CloseSession writes out the open session and clears it. It returns the
// written sample, or nil when there was nothing worth recording.
func (s *Sampler) CloseSession(ctx context.Context) *models.ActivitySample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked(ctx)
}

// Flush writes out the open session and immediately reopens it for the same
// window so long-running sessions reach the ledger periodically.
func (s *Sampler) Flush(ctx context.Context) *models.ActivitySample {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	reopened := *s.current
	sample := s.closeLocked(ctx)
	if sample != nil {
		reopened.start = sample.Timestamp
	}
	// A session that was not written keeps its original start and accumulates.
	s.current = &reopened
	return sample
}

func (s *Sampler) closeLocked(ctx context.Context) *models.ActivitySample {
	cur := s.current
	if cur == nil {
		return nil
	}
	s.current = nil

	now := s.clock.Now()
	elapsed := now.Sub(cur.start)
	if elapsed < MinSessionDuration {
		return nil
	}

	class := s.classifier.Classify(cur.app)
	sample := &models.ActivitySample{
		Timestamp:    now,
		AppName:      cur.app,
		WindowTitle:  cur.title,
		Duration:     int64(math.Round(elapsed.Seconds())),
		Category:     class.Category,
		Productivity: class.Weight,
	}

	if err := s.store.InsertActivitySample(ctx, sample); err != nil {
		logger.Warn("failed to record activity sample", "app", cur.app, "error", err)
		return nil
	}

	logger.Debug("recorded activity sample",
		"app", sample.AppName, "duration", sample.Duration, "productivity", sample.Productivity)

	if s.onSample != nil {
		s.onSample(*sample)
	}
	return sample
}

// Run polls and flushes on their tickers until ctx is cancelled, then writes
// out the open session.
func (s *Sampler) Run(ctx context.Context) {
	pollTicker := time.NewTicker(s.poll)
	defer pollTicker.Stop()
	flushTicker := time.NewTicker(s.flush)
	defer flushTicker.Stop()

	s.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			// The run context is already cancelled; give the final write its own.
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			s.CloseSession(final)
			cancel()
			return
		case <-pollTicker.C:
			s.Poll(ctx)
		case <-flushTicker.C:
			s.Flush(ctx)
		}
	}
}

// TodayStats aggregates the samples recorded since local midnight.
func (s *Sampler) TodayStats(ctx context.Context) (models.TodayStats, error) {
	samples, err := s.store.ActivitySamplesSince(ctx, clock.StartOfDay(s.clock.Now()))
	if err != nil {
		return ComputeStats(nil), fmt.Errorf("failed to load today's activity: %w", err)
	}
	return ComputeStats(samples), nil
}

// AppStats returns per-application totals over the last days days.
func (s *Sampler) AppStats(ctx context.Context, days int) ([]models.AppUsage, error) {
	if days <= 0 {
		days = 7
	}
	since := s.clock.Now().AddDate(0, 0, -days)
	usage, err := s.store.AppUsageSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load app stats: %w", err)
	}
	return usage, nil
}

// SetProductivityScore overrides the weight of an application, clamped to
// [0,100], and persists it when a persister is configured.
func (s *Sampler) SetProductivityScore(app string, score float64) (float64, error) {
	applied := s.classifier.SetWeight(app, score)
	if s.persister != nil {
		if err := s.persister.SetWeight(app, applied); err != nil {
			return applied, fmt.Errorf("failed to persist weight: %w", err)
		}
	}
	return applied, nil
}
