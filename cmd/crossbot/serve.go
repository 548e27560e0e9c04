package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abdulachik/crossbot/internal/app"
	"github.com/abdulachik/crossbot/internal/config"
	"github.com/abdulachik/crossbot/internal/monitor"
	"github.com/abdulachik/crossbot/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the cross-posting daemon",
	Long: `Run the CrossBot daemon that polls the configured VK wall for new
posts and fans each one out to every active destination account.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer a.Close()

	source, err := monitor.NewVKWallSource(monitor.VKWallConfig{
		Token:   cfg.MonitorVKToken,
		OwnerID: cfg.MonitorVKOwner,
	})
	if err != nil {
		return fmt.Errorf("configure source: %w", err)
	}

	slog.Info("starting CrossBot daemon",
		"source", source.Name(),
		"monitor_interval", cfg.MonitorInterval,
	)

	sched := scheduler.New(scheduler.Config{
		Store: a.Store,
		Aggregator: monitor.NewAggregator(monitor.AggregatorConfig{
			Journal: a.Store.Queries,
			Sources: []monitor.Source{source},
		}),
		Dispatcher: a.Dispatcher,
		Recorder:   a.Recorder,
		Interval:   cfg.MonitorInterval,
	})

	// Run scheduler in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- sched.Run(ctx)
	}()

	// Wait for shutdown signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("scheduler error: %w", err)
		}
	}

	slog.Info("shutting down...")
	cancel()

	return nil
}
