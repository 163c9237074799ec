package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/omnicoach/internal/api"
	tuiapp "github.com/j-veylop/omnicoach/internal/app"
	"github.com/j-veylop/omnicoach/internal/logger"
	"github.com/j-veylop/omnicoach/internal/ui/tabs/dashboard"
	"github.com/j-veylop/omnicoach/internal/ui/tabs/feedback"
	"github.com/j-veylop/omnicoach/internal/ui/tabs/info"
)

var withAPI bool

func init() {
	rootCmd.Flags().BoolVar(&withAPI, "api", false, "Also serve the loopback JSON API while the dashboard is open")
}

func runTUI(_ *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.manager.Start(ctx)

	if withAPI {
		srv := api.NewServer(a.cfg.APIAddr, a.manager)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				logger.Error("api server stopped", "error", err)
			}
		}()
	}

	model := tuiapp.NewModel(a.manager)
	state := model.GetState()
	model.SetTabs([]tuiapp.Tab{
		dashboard.New(state),
		feedback.New(state, a.manager),
		info.New(state, a.cfg, a.manager),
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
