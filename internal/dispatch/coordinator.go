package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/abdulachik/crossbot/internal/account"
	"github.com/abdulachik/crossbot/internal/crypto"
	"github.com/abdulachik/crossbot/internal/media"
	"github.com/abdulachik/crossbot/internal/policy"
	"github.com/abdulachik/crossbot/internal/poster"
)

// DefaultWorkers bounds how many destinations publish concurrently.
const DefaultWorkers = 4

// Resolver prepares content references for adapters. Satisfied by
// *media.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (*media.Handle, error)
	Passthrough(ref string) *media.Handle
}

// Post is one piece of content to fan out. Media holds content
// references, either local paths or remote URLs, in attachment order.
type Post struct {
	Text  string
	Media []string
}

// Dispatcher runs dispatch batches.
type Dispatcher struct {
	encryptor *crypto.FieldEncryptor
	resolver  Resolver
	factory   Factory
	workers   int
	logger    *slog.Logger
}

// Config holds dispatcher configuration.
type Config struct {
	Encryptor *crypto.FieldEncryptor
	Resolver  Resolver
	// Factory defaults to NewPoster.
	Factory Factory
	// Workers defaults to DefaultWorkers.
	Workers int
	Logger  *slog.Logger
}

// New creates a dispatcher.
func New(cfg Config) *Dispatcher {
	factory := cfg.Factory
	if factory == nil {
		factory = NewPoster
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		encryptor: cfg.Encryptor,
		resolver:  cfg.Resolver,
		factory:   factory,
		workers:   workers,
		logger:    logger,
	}
}

// Dispatch delivers post to every account in parallel, at most workers
// at a time, and aggregates the per-destination outcomes. The returned
// report lists outcomes in the same order as accounts. The only
// batch-level error is a post with no content at all; everything that
// goes wrong per destination is recorded in its outcome instead.
func (d *Dispatcher) Dispatch(ctx context.Context, post Post, accounts []*account.Account) (*Report, error) {
	if post.Text == "" && len(post.Media) == 0 {
		return nil, errors.New("post has no content")
	}

	outcomes := make([]Outcome, len(accounts))

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, acct := range accounts {
		i, acct := i, acct
		g.Go(func() error {
			outcomes[i] = d.deliver(ctx, post, acct)
			return nil
		})
	}
	g.Wait()

	report := Aggregate(outcomes)
	d.logger.Info("dispatch finished",
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped)
	return report, nil
}

// deliver runs the full pipeline for one destination: capability check,
// credential reveal, media preparation, publish. Every failure mode
// terminates in an Outcome, never a panic or a batch error.
func (d *Dispatcher) deliver(ctx context.Context, post Post, acct *account.Account) Outcome {
	out := Outcome{
		AccountID:   acct.ID,
		AccountName: acct.Name,
		Platform:    acct.Platform,
	}
	fail := func(reason string) Outcome {
		out.State = StateFailed
		out.Reason = reason
		return out
	}

	if ctx.Err() != nil {
		return fail("dispatch cancelled")
	}

	if err := policy.Check(acct.Platform, post.Text, len(post.Media)); err != nil {
		var violation *policy.Violation
		if errors.As(err, &violation) {
			out.State = StateSkipped
			out.Reason = violation.Reason
			d.logger.Info("destination skipped",
				"account", acct.Name, "platform", acct.Platform, "reason", violation.Reason)
			return out
		}
		return fail(err.Error())
	}

	cred, err := acct.RevealCredential(d.encryptor)
	if err != nil {
		return fail(err.Error())
	}

	p, err := d.factory(acct, cred)
	if err != nil {
		return fail(err.Error())
	}

	handles, err := d.prepareMedia(ctx, acct.Platform, post.Media)
	if err != nil {
		return fail(err.Error())
	}
	defer func() {
		for _, h := range handles {
			if err := h.Cleanup(); err != nil {
				d.logger.Warn("media cleanup failed", "path", h.Path, "error", err)
			}
		}
	}()

	result, err := p.Publish(ctx, poster.Request{Text: post.Text, Media: handles})
	if err != nil {
		d.logger.Error("publish failed",
			"account", acct.Name, "platform", acct.Platform,
			"retryable", !poster.IsConfigError(err), "error", err)
		return fail(err.Error())
	}

	out.State = StateSucceeded
	out.PostID = result.PostID
	out.PostURL = result.PostURL
	d.logger.Info("published",
		"account", acct.Name, "platform", acct.Platform, "post_url", result.PostURL)
	return out
}

// prepareMedia turns content references into handles the way the
// platform consumes them: downloaded for upload protocols, passed
// through for URL consumers, downloaded with a URL fallback where the
// platform accepts either. References beyond the platform's attachment
// cap are dropped.
func (d *Dispatcher) prepareMedia(ctx context.Context, platform account.Platform, refs []string) ([]*media.Handle, error) {
	c := policy.For(platform)
	if c.MaxAttachments > 0 && len(refs) > c.MaxAttachments {
		refs = refs[:c.MaxAttachments]
	}

	handles := make([]*media.Handle, 0, len(refs))
	cleanup := func() {
		for _, h := range handles {
			h.Cleanup()
		}
	}

	for _, ref := range refs {
		var h *media.Handle
		var err error

		switch c.MediaDelivery {
		case policy.DeliverURL:
			if !media.IsRemote(ref) {
				cleanup()
				return nil, fmt.Errorf("media %q: %s takes a remote URL", ref, platform)
			}
			h = d.resolver.Passthrough(ref)
		case policy.DeliverLocalOrURL:
			h, err = d.resolver.Resolve(ctx, ref)
			if err != nil && media.IsRemote(ref) {
				d.logger.Warn("media fetch failed, passing the URL through",
					"url", ref, "platform", platform, "error", err)
				h, err = d.resolver.Passthrough(ref), nil
			}
		default:
			h, err = d.resolver.Resolve(ctx, ref)
		}

		if err != nil {
			cleanup()
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}
