package budget

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/omnicoach/internal/clock"
	"github.com/j-veylop/omnicoach/internal/config"
	"github.com/j-veylop/omnicoach/internal/db"
	"github.com/j-veylop/omnicoach/internal/models"
)

type fixedSettings struct {
	s config.Settings
}

func (f fixedSettings) Load(context.Context) (config.Settings, error) {
	return f.s, nil
}

type failingLedger struct{}

func (failingLedger) SumCostSince(context.Context, time.Time) (float64, error) {
	return 0, errors.New("database is locked")
}

func (failingLedger) UsageByModelSince(context.Context, time.Time) ([]models.ProviderUsage, error) {
	return nil, errors.New("database is locked")
}

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func insertCost(t *testing.T, database *db.DB, at time.Time, provider, model string, cost float64) {
	t.Helper()
	require.NoError(t, database.InsertUsageRecord(context.Background(), &models.UsageRecord{
		Timestamp:    at,
		Provider:     provider,
		Model:        model,
		InputTokens:  100,
		OutputTokens: 50,
		Cost:         cost,
	}))
}

func TestCompute(t *testing.T) {
	s := config.DefaultSettings()
	s.MonthlyBudget = 50
	s.BudgetThreshold = 80

	tests := []struct {
		name       string
		spend      float64
		warnings   bool
		wantPct    float64
		wantOver   bool
		wantWarn   bool
		wantRemain float64
	}{
		{"empty", 0, true, 0, false, false, 50},
		{"at threshold does not warn", 40, true, 80, false, false, 10},
		{"above threshold warns", 41, true, 82, false, true, 9},
		{"warnings disabled", 45, false, 90, false, false, 5},
		{"exactly at limit is not over", 50, true, 100, false, true, 0},
		{"over budget", 60, true, 120, true, true, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.BudgetWarnings = tt.warnings
			snap := Compute(tt.spend, s, time.Time{})
			assert.InDelta(t, tt.wantPct, snap.PercentUsed, 1e-9)
			assert.Equal(t, tt.wantOver, snap.OverBudget)
			assert.Equal(t, tt.wantWarn, snap.ShouldWarn)
			assert.InDelta(t, tt.wantRemain, snap.Remaining, 1e-9)
		})
	}
}

func TestCompute_ZeroLimit(t *testing.T) {
	s := config.DefaultSettings()
	s.MonthlyBudget = 0
	snap := Compute(3, s, time.Time{})
	assert.Equal(t, 0.0, snap.PercentUsed)
	assert.True(t, snap.OverBudget)
}

func TestSnapshot_MonthBoundary(t *testing.T) {
	database := newTestDB(t)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local)

	insertCost(t, database, time.Date(2026, 2, 28, 23, 59, 59, 0, time.Local), "openai", "gpt-4", 7.5)
	insertCost(t, database, time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local), "openai", "gpt-4", 1.25)
	insertCost(t, database, time.Date(2026, 3, 10, 9, 30, 0, 0, time.Local), "claude", "claude-3-opus-20240229", 2.5)
	insertCost(t, database, time.Date(2026, 3, 14, 8, 0, 0, 0, time.Local), "ollama", "mistral", 0)

	s := config.DefaultSettings()
	s.MonthlyBudget = 10
	acct := New(database, fixedSettings{s}, clock.NewFixed(now))

	spend, err := acct.MonthToDateSpend(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 3.75, spend, 1e-9)

	snap, err := acct.Snapshot(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 37.5, snap.PercentUsed, 1e-9)
	assert.InDelta(t, 6.25, snap.Remaining, 1e-9)
	assert.False(t, snap.OverBudget)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local), snap.MonthStart)

	usage, err := acct.Breakdown(context.Background())
	require.NoError(t, err)
	require.Len(t, usage, 3)
	assert.Equal(t, "claude", usage[0].Provider)
}

func TestSnapshot_LedgerError(t *testing.T) {
	acct := New(failingLedger{}, nil, nil)
	_, err := acct.Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to sum monthly spend")
}

func TestProject(t *testing.T) {
	// April has 30 days; ten full days have elapsed at midnight on the 11th.
	now := time.Date(2026, 4, 11, 0, 0, 0, 0, time.Local)
	s := config.DefaultSettings()
	s.MonthlyBudget = 100

	t.Run("safe", func(t *testing.T) {
		f := Project(Compute(20, s, clock.StartOfMonth(now)), now)
		assert.InDelta(t, 10, f.DaysElapsed, 1e-9)
		assert.Equal(t, 30, f.DaysInMonth)
		assert.InDelta(t, 2, f.DailyRate, 1e-9)
		assert.InDelta(t, 60, f.ProjectedSpend, 1e-9)
		assert.Equal(t, models.ForecastSafe, f.Status)
		assert.Equal(t, "high", f.Confidence)
		assert.False(t, f.WillExceedLimit)
		assert.Nil(t, f.ExhaustionDate)
	})

	t.Run("warning", func(t *testing.T) {
		f := Project(Compute(30, s, clock.StartOfMonth(now)), now)
		assert.InDelta(t, 90, f.ProjectedPct, 1e-9)
		assert.Equal(t, models.ForecastWarning, f.Status)
	})

	t.Run("critical with exhaustion date", func(t *testing.T) {
		f := Project(Compute(50, s, clock.StartOfMonth(now)), now)
		assert.True(t, f.WillExceedLimit)
		assert.Equal(t, models.ForecastCritical, f.Status)
		require.NotNil(t, f.ExhaustionDate)
		assert.Equal(t, now.AddDate(0, 0, 10), *f.ExhaustionDate)
	})

	t.Run("already over budget", func(t *testing.T) {
		f := Project(Compute(120, s, clock.StartOfMonth(now)), now)
		require.NotNil(t, f.ExhaustionDate)
		assert.Equal(t, now, *f.ExhaustionDate)
	})

	t.Run("first instant of month", func(t *testing.T) {
		start := clock.StartOfMonth(now)
		f := Project(Compute(0, s, start), start)
		assert.Equal(t, models.ForecastUnknown, f.Status)
		assert.Equal(t, "low", f.Confidence)
	})
}

func TestForecast(t *testing.T) {
	database := newTestDB(t)
	now := time.Date(2026, 2, 8, 0, 0, 0, 0, time.Local)
	insertCost(t, database, time.Date(2026, 2, 2, 10, 0, 0, 0, time.Local), "openai", "gpt-4", 14)

	acct := New(database, fixedSettings{config.DefaultSettings()}, clock.NewFixed(now))
	f, err := acct.Forecast(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 28, f.DaysInMonth)
	assert.InDelta(t, 2, f.DailyRate, 1e-9)
	assert.InDelta(t, 56, f.ProjectedSpend, 1e-9)
	assert.Equal(t, "medium", f.Confidence)
}

func TestFormatComparison(t *testing.T) {
	assert.Equal(t, "No prior data", FormatComparison(5, 0))
	assert.Equal(t, "On track with budget", FormatComparison(105, 100))
	assert.Equal(t, "50% above budget pace", FormatComparison(150, 100))
	assert.Equal(t, "40% below budget pace", FormatComparison(60, 100))
}
