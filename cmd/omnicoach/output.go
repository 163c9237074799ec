package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/j-veylop/omnicoach/internal/models"
)

var (
	cyan   = color.New(color.FgCyan, color.Bold)
	green  = color.New(color.FgGreen, color.Bold)
	yellow = color.New(color.FgYellow, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
	faint  = color.New(color.Faint)
)

var jsonOutput bool

func disableColor() {
	color.NoColor = true
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func budgetColor(snap models.BudgetSnapshot) *color.Color {
	switch {
	case snap.OverBudget:
		return red
	case snap.ShouldWarn:
		return yellow
	default:
		return green
	}
}

func forecastColor(status models.ForecastStatus) *color.Color {
	switch status {
	case models.ForecastCritical:
		return red
	case models.ForecastWarning:
		return yellow
	case models.ForecastSafe:
		return green
	default:
		return faint
	}
}

func productivityColor(score float64) *color.Color {
	switch {
	case score >= 75:
		return green
	case score >= 50:
		return yellow
	default:
		return red
	}
}

func formatSeconds(sec int64) string {
	d := time.Duration(sec) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}

func stars(rating *int) string {
	if rating == nil {
		return "-"
	}
	return fmt.Sprintf("%d/5", *rating)
}
