package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/j-veylop/omnicoach/internal/api"
	"github.com/j-veylop/omnicoach/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run headless with the loopback JSON API",
	Long: `Run the activity sampler and the feedback scheduler without the dashboard,
serving the JSON API on the loopback address until interrupted.`,
	Example: `  omnicoach serve
  omnicoach serve --addr 127.0.0.1:9000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address; overrides API_ADDR")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	addr := a.cfg.APIAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.manager.Start(ctx)

	cyan.Fprintf(cmd.OutOrStdout(), "OmniCoach API listening on http://%s\n", addr)
	err = api.NewServer(addr, a.manager).ListenAndServe(ctx)
	logger.Info("shutdown complete")
	return err
}
