package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/j-veylop/omnicoach/internal/models"
)

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show today's activity, or per-application totals with --days",
	Example: `  omnicoach stats
  omnicoach stats --days 7`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 0, "Show per-application totals over the last N days")
	statsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if statsDays > 0 {
		apps, err := a.manager.Sampler().AppStats(ctx, statsDays)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(out, apps)
		}
		cyan.Fprintf(out, "Applications, last %d days\n", statsDays)
		if len(apps) == 0 {
			faint.Fprintln(out, "  No activity recorded")
		}
		for _, app := range apps {
			fmt.Fprintf(out, "  %-24s %9s  ", app.AppName, formatSeconds(app.TotalDuration))
			productivityColor(app.AvgProductivity).Fprintf(out, "%3.0f\n", app.AvgProductivity)
		}
		return nil
	}

	stats, err := a.manager.Sampler().TodayStats(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(out, stats)
	}

	cyan.Fprintln(out, "Today")
	if stats.TotalTime == 0 {
		faint.Fprintln(out, "  No activity recorded yet today")
		return nil
	}
	fmt.Fprintf(out, "  %s active, %d sessions, productivity ", formatSeconds(stats.TotalTime), stats.Sessions)
	productivityColor(stats.AvgProductivity).Fprintf(out, "%.0f\n", stats.AvgProductivity)

	names := make([]string, 0, len(stats.Apps))
	for name := range stats.Apps {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return stats.Apps[names[i]].Time > stats.Apps[names[j]].Time
	})

	fmt.Fprintln(out)
	cyan.Fprintln(out, "Applications")
	for _, name := range names {
		app := stats.Apps[name]
		fmt.Fprintf(out, "  %-24s %9s  ", name, formatSeconds(app.Time))
		productivityColor(app.Productivity).Fprintf(out, "%3.0f\n", app.Productivity)
	}

	cats := make([]string, 0, len(stats.Categories))
	for c := range stats.Categories {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)

	fmt.Fprintln(out)
	cyan.Fprintln(out, "Categories")
	for _, c := range cats {
		cs := stats.Categories[models.Category(c)]
		fmt.Fprintf(out, "  %-24s %9s\n", c, formatSeconds(cs.Time))
	}
	return nil
}
