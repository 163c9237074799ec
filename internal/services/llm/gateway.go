package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/j-veylop/omnicoach/internal/config"
	"github.com/j-veylop/omnicoach/internal/logger"
	"github.com/j-veylop/omnicoach/internal/models"
)

// DefaultTimeout bounds one provider call.
const DefaultTimeout = 30 * time.Second

// UsageRecorder appends usage records to the ledger.
type UsageRecorder interface {
	InsertUsageRecord(ctx context.Context, r *models.UsageRecord) error
}

// SettingsSource supplies the current user settings.
type SettingsSource interface {
	Load(ctx context.Context) (config.Settings, error)
}

// BudgetChecker computes the month-to-date spend picture.
type BudgetChecker interface {
	Snapshot(ctx context.Context) (models.BudgetSnapshot, error)
}

// Options select how one request is served. Empty fields use the settings.
type Options struct {
	Provider    string
	Model       string
	Personality string
	RequestKind string
}

// Result is the outcome of Generate. On failure Text holds FallbackText and
// Error holds a user-presentable message.
type Result struct {
	Usage     *models.UsageRecord `json:"usage,omitempty"`
	Text      string              `json:"response"`
	Provider  string              `json:"provider"`
	Model     string              `json:"model"`
	Reason    Reason              `json:"reason,omitempty"`
	Error     string              `json:"error,omitempty"`
	RequestID string              `json:"request_id"`
	LatencyMs int64               `json:"latency_ms"`
	Success   bool                `json:"success"`
}

// Err reconstructs a classified error from a failed result, or nil.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Reason: r.Reason, Provider: r.Provider, Message: r.Error}
}

// GatewayConfig wires a Gateway.
type GatewayConfig struct {
	Ledger   UsageRecorder
	Settings SettingsSource
	Budget   BudgetChecker
	Prices   map[string]PriceTable
	// CloudRatePerMinute limits calls to each metered provider; zero disables it.
	CloudRatePerMinute int
	Timeout            time.Duration
}

// Gateway routes requests to providers and records their usage.
type Gateway struct {
	providers map[string]Provider
	limiters  map[string]*rate.Limiter
	prices    map[string]PriceTable
	ledger    UsageRecorder
	settings  SettingsSource
	budget    BudgetChecker
	timeout   time.Duration
	now       func() time.Time
}

// NewGateway creates a gateway over the given providers, keyed by Name().
func NewGateway(cfg GatewayConfig, providers ...Provider) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Prices == nil {
		cfg.Prices = map[string]PriceTable{
			config.ProviderOpenAI: OpenAIPrices,
			config.ProviderClaude: AnthropicPrices,
		}
	}

	g := &Gateway{
		providers: make(map[string]Provider, len(providers)),
		limiters:  make(map[string]*rate.Limiter),
		prices:    cfg.Prices,
		ledger:    cfg.Ledger,
		settings:  cfg.Settings,
		budget:    cfg.Budget,
		timeout:   cfg.Timeout,
		now:       time.Now,
	}

	for _, p := range providers {
		g.providers[p.Name()] = p
		if p.Metered() && cfg.CloudRatePerMinute > 0 {
			every := time.Minute / time.Duration(cfg.CloudRatePerMinute)
			g.limiters[p.Name()] = rate.NewLimiter(rate.Every(every), cfg.CloudRatePerMinute)
		}
	}
	return g
}

// Providers returns the registered provider names, sorted.
func (g *Gateway) Providers() []string {
	names := make([]string, 0, len(g.providers))
	for name := range g.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Cost prices a call for provider; free providers cost nothing.
func (g *Gateway) Cost(provider, model string, inputTokens, outputTokens int) float64 {
	p, ok := g.providers[provider]
	if !ok || !p.Metered() {
		return 0
	}
	table, ok := g.prices[provider]
	if !ok {
		return 0
	}
	return table.Cost(model, inputTokens, outputTokens)
}

// Generate builds the full prompt and serves it with the selected provider.
// It never returns an error; failures are reported in the Result.
func (g *Gateway) Generate(ctx context.Context, prompt string, pc Context, opts Options) Result {
	settings := g.loadSettings(ctx)

	providerName := opts.Provider
	if providerName == "" {
		providerName = settings.DefaultLLM
	}
	personality := opts.Personality
	if personality == "" {
		personality = settings.DefaultPersonality
	}
	kind := opts.RequestKind
	if kind == "" {
		kind = models.RequestKindChat
	}

	result := Result{
		Provider:  providerName,
		RequestID: uuid.NewString(),
	}

	provider, ok := g.providers[providerName]
	if !ok {
		return g.fail(result, &Error{Reason: ReasonUnknownProvider, Provider: providerName, Message: fmt.Sprintf("unknown provider %q", providerName)})
	}

	model := opts.Model
	if model == "" {
		model = settings.ModelFor(providerName)
	}
	if model == "" {
		model = provider.DefaultModel()
	}
	result.Model = model

	call := Call{
		Model:      model,
		Prompt:     BuildPrompt(Personality(personality), prompt, pc),
		Credential: settings.CredentialFor(providerName),
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.wait(callCtx, provider, call); err != nil {
		return g.fail(result, err)
	}

	start := g.now()
	completion, err := provider.Complete(callCtx, call)
	result.LatencyMs = g.now().Sub(start).Milliseconds()

	if completion.Model != "" {
		result.Model = completion.Model
	}

	if err == nil || completion.Billed() {
		result.Usage = g.record(ctx, provider, result, kind, completion, err)
	}

	if err != nil {
		return g.fail(result, err)
	}

	result.Success = true
	result.Text = completion.Text
	return result
}

// wait applies the provider's rate limit. Credential checks come first so a
// misconfigured provider fails without consuming a token.
func (g *Gateway) wait(ctx context.Context, provider Provider, call Call) error {
	limiter, ok := g.limiters[provider.Name()]
	if !ok || call.Credential == "" {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return &Error{Reason: ReasonRateLimited, Provider: provider.Name(), Message: "too many requests, try again shortly", Cause: err}
	}
	return nil
}

func (g *Gateway) record(ctx context.Context, provider Provider, result Result, kind string, c Completion, callErr error) *models.UsageRecord {
	rec := &models.UsageRecord{
		Timestamp:    g.now(),
		Provider:     provider.Name(),
		Model:        result.Model,
		RequestKind:  kind,
		RequestID:    result.RequestID,
		InputTokens:  c.InputTokens,
		OutputTokens: c.OutputTokens,
		LatencyMs:    result.LatencyMs,
		Cost:         g.Cost(provider.Name(), result.Model, c.InputTokens, c.OutputTokens),
	}
	if callErr != nil {
		rec.Error = callErr.Error()
	}

	if g.ledger == nil {
		return rec
	}
	// The caller's context may be cancelled by now; the ledger write must still land.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := g.ledger.InsertUsageRecord(writeCtx, rec); err != nil {
		logger.Warn("failed to record llm usage", "provider", rec.Provider, "request_id", rec.RequestID, "error", err)
	}
	return rec
}

func (g *Gateway) fail(result Result, err error) Result {
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Reason: ReasonUpstream, Provider: result.Provider, Cause: err}
	}

	logger.Warn("llm request failed",
		"provider", result.Provider,
		"model", result.Model,
		"request_id", result.RequestID,
		"reason", string(e.Reason),
		"status", e.StatusCode,
		"error", err,
	)

	result.Success = false
	result.Text = FallbackText
	result.Reason = e.Reason
	result.Error = userMessage(e)
	return result
}

func userMessage(e *Error) string {
	switch {
	case e.Message != "" && e.StatusCode != 0:
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
	case e.Message != "":
		return e.Message
	default:
		return string(e.Reason)
	}
}

func (g *Gateway) loadSettings(ctx context.Context) config.Settings {
	if g.settings == nil {
		return config.DefaultSettings()
	}
	s, err := g.settings.Load(ctx)
	if err != nil {
		logger.Warn("using fallback settings", "error", err)
	}
	return s
}

// CheckBudget returns the current spend picture. It is advisory: Generate
// does not consult it.
func (g *Gateway) CheckBudget(ctx context.Context) (models.BudgetSnapshot, error) {
	if g.budget == nil {
		return models.BudgetSnapshot{}, fmt.Errorf("no budget accountant configured")
	}
	return g.budget.Snapshot(ctx)
}

// ListLocalModels returns the models installed on the local server, or an
// empty list when it cannot be reached.
func (g *Gateway) ListLocalModels(ctx context.Context) []LocalModel {
	p, ok := g.providers[config.ProviderOllama]
	if !ok {
		return []LocalModel{}
	}
	lister, ok := p.(Lister)
	if !ok {
		return []LocalModel{}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	list, err := lister.ListModels(ctx)
	if err != nil {
		logger.Debug("failed to list local models", "error", err)
		return []LocalModel{}
	}
	if list == nil {
		list = []LocalModel{}
	}
	return list
}
