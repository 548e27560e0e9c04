package monitor

import (
	"context"
	"log/slog"
)

// Journal remembers which source posts have already been seen.
// Satisfied by *db.Queries.
type Journal interface {
	HasPost(ctx context.Context, source, sourcePostID string) (bool, error)
	RecordPost(ctx context.Context, source, sourcePostID, text string, mediaURLs []string) (int64, error)
}

// Aggregator polls every source and journals what it has not seen
// before. One source failing never blocks the others.
type Aggregator struct {
	sources []Source
	filter  *Filter
	journal Journal
	logger  *slog.Logger
}

// AggregatorConfig holds aggregator configuration.
type AggregatorConfig struct {
	Journal Journal
	Sources []Source
	Filter  *Filter
	Logger  *slog.Logger
}

// NewAggregator creates a new aggregator.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	filter := cfg.Filter
	if filter == nil {
		filter = NewFilter(FilterConfig{})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Aggregator{
		sources: cfg.Sources,
		filter:  filter,
		journal: cfg.Journal,
		logger:  logger,
	}
}

// FetchNew fetches posts from all sources, filters them, and returns
// the ones not seen before. New posts are journaled before they are
// returned, so a crash after journaling loses the post rather than
// double-posting it.
func (a *Aggregator) FetchNew(ctx context.Context) ([]SourcePost, error) {
	var fetched []SourcePost

	for _, source := range a.sources {
		a.logger.Debug("fetching from source", "source", source.Name())

		posts, err := source.FetchPosts(ctx)
		if err != nil {
			a.logger.Error("source fetch failed", "source", source.Name(), "error", err)
			continue
		}
		fetched = append(fetched, posts...)
	}

	filtered := a.filter.Apply(fetched)

	var fresh []SourcePost
	for _, post := range filtered {
		seen, err := a.journal.HasPost(ctx, post.Source, post.ExternalID)
		if err != nil {
			return nil, err
		}
		if seen {
			continue
		}

		id, err := a.journal.RecordPost(ctx, post.Source, post.ExternalID, post.Text, post.MediaURLs)
		if err != nil {
			a.logger.Error("failed to journal post",
				"source", post.Source, "id", post.ExternalID, "error", err)
			continue
		}
		post.JournalID = id
		fresh = append(fresh, post)
	}

	a.logger.Info("source poll complete",
		"fetched", len(fetched),
		"after_filter", len(filtered),
		"new", len(fresh))
	return fresh, nil
}
