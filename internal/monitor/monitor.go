// Package monitor polls source feeds for posts to cross-post.
package monitor

import (
	"context"
)

// SourcePost is one post observed on a source feed. JournalID is zero
// until the aggregator journals the post.
type SourcePost struct {
	Source     string
	ExternalID string
	Text       string
	MediaURLs  []string
	JournalID  int64
}

// Source is the interface for feed sources.
type Source interface {
	// Name identifies this source, including its feed address.
	Name() string

	// FetchPosts retrieves the current posts from the source feed.
	FetchPosts(ctx context.Context) ([]SourcePost, error)
}
