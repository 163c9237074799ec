package models

import "time"

// BudgetSnapshot is the derived month-to-date spend picture.
type BudgetSnapshot struct {
	MonthStart  time.Time `json:"month_start"`
	Limit       float64   `json:"monthly_budget"`
	Spend       float64   `json:"current_spend"`
	Remaining   float64   `json:"remaining_budget"`
	PercentUsed float64   `json:"percent_used"`
	Threshold   float64   `json:"warning_threshold"`
	OverBudget  bool      `json:"is_over_budget"`
	ShouldWarn  bool      `json:"should_warn"`
}

// ForecastStatus indicates how urgent the projected spend is.
type ForecastStatus string

const (
	ForecastSafe     ForecastStatus = "SAFE"
	ForecastWarning  ForecastStatus = "WARNING"
	ForecastCritical ForecastStatus = "CRITICAL"
	ForecastUnknown  ForecastStatus = "UNKNOWN"
)

// BudgetForecast projects month-end spend from the month-to-date daily rate.
type BudgetForecast struct {
	ExhaustionDate  *time.Time     `json:"exhaustion_date,omitempty"`
	Status          ForecastStatus `json:"status"`
	Confidence      string         `json:"confidence"`
	DailyRate       float64        `json:"daily_rate"`
	ProjectedSpend  float64        `json:"projected_spend"`
	ProjectedPct    float64        `json:"projected_percent"`
	DaysElapsed     float64        `json:"days_elapsed"`
	DaysInMonth     int            `json:"days_in_month"`
	WillExceedLimit bool           `json:"will_exceed_limit"`
}
