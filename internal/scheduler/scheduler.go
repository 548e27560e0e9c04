// Package scheduler runs the periodic poll-and-dispatch loop: fetch new
// posts from the source feeds, fan each one out to every active account
// and record the outcomes.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abdulachik/crossbot/internal/db"
	"github.com/abdulachik/crossbot/internal/dispatch"
	"github.com/abdulachik/crossbot/internal/monitor"
	"github.com/abdulachik/crossbot/internal/stats"
)

// DefaultInterval is the default poll interval.
const DefaultInterval = 5 * time.Minute

// Scheduler orchestrates the periodic tasks of the bot.
type Scheduler struct {
	store    *db.Store
	agg      *monitor.Aggregator
	disp     *dispatch.Dispatcher
	recorder *stats.Recorder
	health   *Health
	interval time.Duration
	logger   *slog.Logger
}

// Config holds scheduler configuration.
type Config struct {
	Store      *db.Store
	Aggregator *monitor.Aggregator
	Dispatcher *dispatch.Dispatcher
	Recorder   *stats.Recorder
	Interval   time.Duration
	Logger     *slog.Logger
}

// New creates a new scheduler.
func New(cfg Config) *Scheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		store:    cfg.Store,
		agg:      cfg.Aggregator,
		disp:     cfg.Dispatcher,
		recorder: cfg.Recorder,
		health:   NewHealth(),
		interval: interval,
		logger:   logger,
	}
}

// Run starts the scheduler main loop. It polls once immediately, then
// on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle polls the sources and dispatches every new post to all
// active accounts.
func (s *Scheduler) runCycle(ctx context.Context) {
	s.logger.Debug("running poll cycle")

	fresh, err := s.agg.FetchNew(ctx)
	if err != nil {
		s.health.SetUnhealthy("monitor", err)
		s.logger.Error("poll cycle failed", "error", err)
		return
	}
	s.health.SetHealthy("monitor", "sources polled")

	if len(fresh) == 0 {
		return
	}

	accounts, err := s.store.ListActiveAccounts(ctx)
	if err != nil {
		s.health.SetUnhealthy("accounts", err)
		s.logger.Error("failed to list accounts", "error", err)
		return
	}
	s.health.SetHealthy("accounts", "loaded")

	if len(accounts) == 0 {
		s.logger.Warn("new posts found but no active accounts configured", "posts", len(fresh))
		return
	}

	for _, post := range fresh {
		report, err := s.disp.Dispatch(ctx, dispatch.Post{
			Text:  post.Text,
			Media: post.MediaURLs,
		}, accounts)
		if err != nil {
			s.logger.Error("dispatch failed",
				"source", post.Source, "id", post.ExternalID, "error", err)
			continue
		}

		if report.Failed > 0 {
			s.health.SetUnhealthy("dispatch", &partialFailure{failed: report.Failed})
		} else {
			s.health.SetHealthy("dispatch", "all destinations succeeded")
		}

		status := db.PostStatusFailed
		switch {
		case report.AllSucceeded():
			status = db.PostStatusPosted
		case report.Succeeded > 0:
			status = db.PostStatusPartial
		}
		if err := s.store.UpdatePostStatus(ctx, post.JournalID, status); err != nil {
			s.logger.Warn("failed to update post status",
				"id", post.JournalID, "status", status, "error", err)
		}

		if err := s.recorder.Record(ctx, report); err != nil {
			s.logger.Warn("failed to record statistics", "error", err)
		}

		s.logger.Info("post dispatched",
			"source", post.Source,
			"id", post.ExternalID,
			"succeeded", report.Succeeded,
			"failed", report.Failed,
			"skipped", report.Skipped)
	}
}

// Health returns the health tracker.
func (s *Scheduler) Health() *Health {
	return s.health
}

type partialFailure struct {
	failed int
}

func (e *partialFailure) Error() string {
	return fmt.Sprintf("%d destinations failed", e.failed)
}
