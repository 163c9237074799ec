package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/j-veylop/omnicoach/internal/config"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and change stored settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [KEY]",
	Short: "Print one setting, or all of them; credentials are masked",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Validate and store a setting",
	Example: `  omnicoach settings set monthly_budget 50
  omnicoach settings set feedback_frequency 6
  omnicoach settings set default_llm claude`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsGetCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if len(args) == 1 && !config.IsKnownKey(args[0]) {
		return fmt.Errorf("unknown setting %q", args[0])
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	raw, err := a.manager.Settings().Raw(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		fmt.Fprintln(out, raw[args[0]])
		return nil
	}
	if jsonOutput {
		return printJSON(out, raw)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cyan.Fprintf(out, "%-26s", k)
		fmt.Fprintf(out, " %s\n", raw[k])
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.manager.SetSetting(context.Background(), args[0], args[1]); err != nil {
		return err
	}

	shown := args[1]
	if config.IsSecret(args[0]) {
		shown = config.MaskSecret(shown)
	}
	green.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], shown)
	return nil
}
