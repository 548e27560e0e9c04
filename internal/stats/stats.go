// Package stats turns dispatch reports into per-account daily counters.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abdulachik/crossbot/internal/dispatch"
)

// Sink persists one counter bump. Satisfied by *db.Queries.
type Sink interface {
	UpsertStatistic(ctx context.Context, accountID int64, date string, succeeded bool) error
}

// Recorder records dispatch outcomes.
type Recorder struct {
	sink   Sink
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder writing to sink.
func NewRecorder(sink Sink, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{sink: sink, logger: logger, now: time.Now}
}

// Record bumps the counter for every destination that actually ran.
// Skipped destinations never reached a platform, so they are not
// counted.
func (r *Recorder) Record(ctx context.Context, report *dispatch.Report) error {
	date := r.now().UTC().Format("2006-01-02")

	for _, out := range report.Outcomes {
		if out.State == dispatch.StateSkipped {
			continue
		}
		succeeded := out.State == dispatch.StateSucceeded
		if err := r.sink.UpsertStatistic(ctx, out.AccountID, date, succeeded); err != nil {
			return fmt.Errorf("record outcome for account %d: %w", out.AccountID, err)
		}
	}

	r.logger.Debug("statistics recorded",
		"date", date, "attempted", report.Attempted, "succeeded", report.Succeeded)
	return nil
}
