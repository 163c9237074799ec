// Package budget turns the usage ledger into a month-to-date spend picture.
package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/j-veylop/omnicoach/internal/clock"
	"github.com/j-veylop/omnicoach/internal/config"
	"github.com/j-veylop/omnicoach/internal/logger"
	"github.com/j-veylop/omnicoach/internal/models"
)

const (
	lowConfDays = 3
	medConfDays = 10
)

// Ledger is the read side of the usage ledger.
type Ledger interface {
	SumCostSince(ctx context.Context, since time.Time) (float64, error)
	UsageByModelSince(ctx context.Context, since time.Time) ([]models.ProviderUsage, error)
}

// SettingsSource supplies the budget settings.
type SettingsSource interface {
	Load(ctx context.Context) (config.Settings, error)
}

// Accountant derives spend figures from the ledger on every call.
type Accountant struct {
	ledger   Ledger
	settings SettingsSource
	clock    clock.Clock
}

// New creates an accountant. A nil clock uses the system time.
func New(ledger Ledger, settings SettingsSource, clk clock.Clock) *Accountant {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Accountant{ledger: ledger, settings: settings, clock: clk}
}

// MonthToDateSpend sums the cost of every usage record since local midnight
// on the first of the current month.
func (a *Accountant) MonthToDateSpend(ctx context.Context) (float64, error) {
	spend, err := a.ledger.SumCostSince(ctx, clock.StartOfMonth(a.clock.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to sum monthly spend: %w", err)
	}
	return spend, nil
}

// Snapshot computes the current spend against the configured limit.
func (a *Accountant) Snapshot(ctx context.Context) (models.BudgetSnapshot, error) {
	settings := a.loadSettings(ctx)

	spend, err := a.MonthToDateSpend(ctx)
	if err != nil {
		return models.BudgetSnapshot{}, err
	}
	return Compute(spend, settings, clock.StartOfMonth(a.clock.Now())), nil
}

// Compute builds a snapshot from a spend figure. Remaining may be negative.
func Compute(spend float64, s config.Settings, monthStart time.Time) models.BudgetSnapshot {
	snap := models.BudgetSnapshot{
		MonthStart: monthStart,
		Limit:      s.MonthlyBudget,
		Spend:      spend,
		Remaining:  s.MonthlyBudget - spend,
		Threshold:  s.BudgetThreshold,
		OverBudget: spend > s.MonthlyBudget,
	}
	if s.MonthlyBudget > 0 {
		snap.PercentUsed = spend / s.MonthlyBudget * 100
	}
	snap.ShouldWarn = s.BudgetWarnings && snap.PercentUsed > s.BudgetThreshold
	return snap
}

// Forecast projects month-end spend at the month-to-date daily rate.
func (a *Accountant) Forecast(ctx context.Context) (models.BudgetForecast, error) {
	snap, err := a.Snapshot(ctx)
	if err != nil {
		return models.BudgetForecast{}, err
	}
	return Project(snap, a.clock.Now()), nil
}

// Project extrapolates a snapshot taken at now to the end of its month.
func Project(snap models.BudgetSnapshot, now time.Time) models.BudgetForecast {
	monthStart := clock.StartOfMonth(now)
	monthEnd := monthStart.AddDate(0, 1, 0)

	f := models.BudgetForecast{
		DaysElapsed: now.Sub(monthStart).Hours() / 24,
		DaysInMonth: monthEnd.AddDate(0, 0, -1).Day(),
		Status:      models.ForecastUnknown,
	}

	switch {
	case f.DaysElapsed < lowConfDays:
		f.Confidence = "low"
	case f.DaysElapsed < medConfDays:
		f.Confidence = "medium"
	default:
		f.Confidence = "high"
	}

	if f.DaysElapsed <= 0 {
		return f
	}

	f.DailyRate = snap.Spend / f.DaysElapsed
	f.ProjectedSpend = f.DailyRate * float64(f.DaysInMonth)
	if snap.Limit > 0 {
		f.ProjectedPct = f.ProjectedSpend / snap.Limit * 100
	}
	f.WillExceedLimit = f.ProjectedSpend > snap.Limit

	if snap.OverBudget {
		exhausted := now
		f.ExhaustionDate = &exhausted
	} else if f.DailyRate > 0 {
		daysLeft := snap.Remaining / f.DailyRate
		at := now.Add(time.Duration(daysLeft * float64(24*time.Hour)))
		if at.Before(monthEnd) {
			f.ExhaustionDate = &at
		}
	}

	switch {
	case f.WillExceedLimit:
		f.Status = models.ForecastCritical
	case f.ProjectedPct > snap.Threshold:
		f.Status = models.ForecastWarning
	default:
		f.Status = models.ForecastSafe
	}
	return f
}

// Breakdown returns this month's usage grouped by provider and model.
func (a *Accountant) Breakdown(ctx context.Context) ([]models.ProviderUsage, error) {
	usage, err := a.ledger.UsageByModelSince(ctx, clock.StartOfMonth(a.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly usage: %w", err)
	}
	return usage, nil
}

// FormatComparison describes spend relative to a reference amount.
func FormatComparison(current, reference float64) string {
	if reference <= 0 {
		return "No prior data"
	}
	diff := (current - reference) / reference * 100
	switch {
	case diff > -10 && diff < 10:
		return "On track with budget"
	case diff > 0:
		return fmt.Sprintf("%.0f%% above budget pace", diff)
	default:
		return fmt.Sprintf("%.0f%% below budget pace", -diff)
	}
}

func (a *Accountant) loadSettings(ctx context.Context) config.Settings {
	if a.settings == nil {
		return config.DefaultSettings()
	}
	s, err := a.settings.Load(ctx)
	if err != nil {
		logger.Warn("budget using fallback settings", "error", err)
	}
	return s
}
