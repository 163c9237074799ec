package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List configured providers and models installed on the local inference server",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func init() {
	modelsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	local := a.manager.Gateway().ListLocalModels(context.Background())
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, local)
	}

	cyan.Fprintln(out, "Providers")
	fmt.Fprintf(out, "  %s\n", strings.Join(a.manager.Gateway().Providers(), ", "))

	fmt.Fprintln(out)
	cyan.Fprintf(out, "Local models (%s)\n", a.cfg.OllamaURL)
	if len(local) == 0 {
		yellow.Fprintln(out, "  None found; is the local inference server running?")
		return nil
	}
	for _, m := range local {
		fmt.Fprintf(out, "  %-32s %8.1f GB  %s\n", m.Name, float64(m.Size)/1e9, m.ModifiedAt)
	}
	return nil
}
