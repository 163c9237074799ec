package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/j-veylop/omnicoach/internal/config"
	"github.com/j-veylop/omnicoach/internal/logger"
	"github.com/j-veylop/omnicoach/internal/services"
	"github.com/j-veylop/omnicoach/internal/version"
)

var (
	logLevel string
	noColor  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "omnicoach",
	Short: "OmniCoach - activity tracking and LLM productivity coaching",
	Long: `OmniCoach samples the focused application, schedules coaching check-ins
generated by a local or cloud LLM, and tracks LLM spend against a monthly budget.

Run without a subcommand to open the terminal dashboard.`,
	Version:       version.GetVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if noColor {
			disableColor()
		}
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles what every command needs. close releases the manager and the
// log file in that order.
type app struct {
	cfg     *config.Config
	manager *services.Manager
	logFile io.Closer
}

func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logFile, err := logger.Setup(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	logger.Info("starting omnicoach", "version", version.GetVersion(), "database", cfg.DatabasePath)

	mgr, err := services.NewManager(cfg, services.Options{})
	if err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &app{cfg: cfg, manager: mgr, logFile: logFile}, nil
}

func (a *app) close() {
	if err := a.manager.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", err)
	}
	_ = a.logFile.Close()
}
