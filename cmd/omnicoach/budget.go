package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/j-veylop/omnicoach/internal/api"
	"github.com/j-veylop/omnicoach/internal/services/budget"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show month-to-date LLM spend, forecast and per-model usage",
	RunE:  runBudget,
}

func init() {
	budgetCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	snap, err := a.manager.CheckBudget(ctx)
	if err != nil {
		return err
	}
	forecast := budget.Project(snap, a.manager.Clock().Now())
	usage, err := a.manager.Budget().Breakdown(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, api.BudgetResponse{
			Snapshot:   snap,
			Forecast:   forecast,
			Comparison: budget.FormatComparison(forecast.ProjectedSpend, snap.Limit),
		})
	}

	cyan.Fprintln(out, "Monthly Budget")
	budgetColor(snap).Fprintf(out, "  $%.2f of $%.2f (%.1f%%)\n", snap.Spend, snap.Limit, snap.PercentUsed)
	if snap.OverBudget {
		red.Fprintf(out, "  Over budget by $%.2f\n", snap.Spend-snap.Limit)
	} else {
		fmt.Fprintf(out, "  $%.2f remaining\n", snap.Remaining)
	}

	fmt.Fprintln(out)
	cyan.Fprintln(out, "Forecast")
	forecastColor(forecast.Status).Fprintf(out, "  %s", forecast.Status)
	if forecast.DailyRate > 0 {
		fmt.Fprintf(out, "  $%.2f/day, month end $%.2f, %s",
			forecast.DailyRate, forecast.ProjectedSpend,
			budget.FormatComparison(forecast.ProjectedSpend, snap.Limit))
	}
	fmt.Fprintln(out)
	if forecast.ExhaustionDate != nil {
		yellow.Fprintf(out, "  Limit reached around %s\n", forecast.ExhaustionDate.Format("Jan 2"))
	}

	if len(usage) > 0 {
		fmt.Fprintln(out)
		cyan.Fprintln(out, "Usage This Month")
		for _, u := range usage {
			fmt.Fprintf(out, "  %-10s %-28s %5d calls %9d tokens  $%.4f\n",
				u.Provider, u.Model, u.Calls, u.InputTokens+u.OutputTokens, u.Cost)
		}
	}
	return nil
}
