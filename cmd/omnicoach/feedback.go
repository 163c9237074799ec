package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/j-veylop/omnicoach/internal/services/feedback"
)

var feedbackLimit int

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Generate, list and rate coaching feedback",
}

var feedbackGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate feedback now from today's activity",
	Args:  cobra.NoArgs,
	RunE:  runFeedbackGenerate,
}

var feedbackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent feedback, newest first",
	Args:  cobra.NoArgs,
	RunE:  runFeedbackList,
}

var feedbackRateCmd = &cobra.Command{
	Use:     "rate ID RATING",
	Short:   "Rate a feedback entry from 1 to 5",
	Example: `  omnicoach feedback rate 12 4`,
	Args:    cobra.ExactArgs(2),
	RunE:    runFeedbackRate,
}

func init() {
	feedbackListCmd.Flags().IntVarP(&feedbackLimit, "limit", "n", feedback.DefaultRecentLimit, "Number of entries to show")
	feedbackListCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")
	feedbackGenerateCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")

	feedbackCmd.AddCommand(feedbackGenerateCmd)
	feedbackCmd.AddCommand(feedbackListCmd)
	feedbackCmd.AddCommand(feedbackRateCmd)
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedbackGenerate(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	res := a.manager.GenerateFeedback(context.Background())
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, res)
	}
	if !res.Success {
		return fmt.Errorf("feedback generation failed: %s", res.Error)
	}

	cyan.Fprintf(out, "Feedback #%d\n", res.Entry.ID)
	fmt.Fprintln(out, strings.TrimSpace(res.Entry.Content))
	if res.Usage != nil && res.Usage.Cost > 0 {
		faint.Fprintf(out, "\n%s/%s, $%.4f\n", res.Usage.Provider, res.Usage.Model, res.Usage.Cost)
	}
	return nil
}

func runFeedbackList(cmd *cobra.Command, _ []string) error {
	if feedbackLimit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", feedbackLimit)
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	entries, err := a.manager.Feedback().RecentFeedback(context.Background(), feedbackLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, entries)
	}
	if len(entries) == 0 {
		faint.Fprintln(out, "No feedback yet")
		return nil
	}

	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(out)
		}
		cyan.Fprintf(out, "#%d ", e.ID)
		faint.Fprintf(out, "%s  %s  rating %s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Trigger, stars(e.Rating))
		fmt.Fprintln(out, strings.TrimSpace(e.Content))
	}
	return nil
}

func runFeedbackRate(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid feedback id: %s", args[0])
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid rating: %s", args[1])
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.manager.Feedback().RateFeedback(context.Background(), id, rating); err != nil {
		if errors.Is(err, feedback.ErrInvalidRating) {
			return err
		}
		return fmt.Errorf("failed to rate feedback %d: %w", id, err)
	}

	green.Fprintf(cmd.OutOrStdout(), "Rated feedback #%d %d/5\n", id, rating)
	return nil
}
