// Package poster contains the platform adapters. Each adapter owns the
// wire protocol of one platform and implements the common Poster
// interface; everything above this package is platform-agnostic.
package poster

import (
	"context"

	"github.com/abdulachik/crossbot/internal/account"
	"github.com/abdulachik/crossbot/internal/media"
)

// Request is one publish attempt against one destination. Media is
// order-significant; adapters that support a single attachment use the
// first.
type Request struct {
	Text  string
	Media []*media.Handle
}

// Result is a successful publish.
type Result struct {
	PostID  string
	PostURL string
}

// Poster is the interface every platform adapter implements.
type Poster interface {
	// Platform returns the platform this adapter publishes to.
	Platform() account.Platform

	// Publish delivers the request through the platform's protocol.
	Publish(ctx context.Context, req Request) (*Result, error)
}

// firstMedia returns the first attachment or nil.
func firstMedia(req Request) *media.Handle {
	if len(req.Media) == 0 {
		return nil
	}
	return req.Media[0]
}
