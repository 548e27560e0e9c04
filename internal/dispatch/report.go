// Package dispatch fans one post out to every selected destination
// account, running the per-destination pipelines in parallel and
// collecting the results into a single report. One destination failing
// never affects the others.
package dispatch

import (
	"github.com/abdulachik/crossbot/internal/account"
)

// State is the terminal state of one destination within a batch.
type State string

const (
	// StateSucceeded means the platform accepted the post.
	StateSucceeded State = "succeeded"
	// StateFailed means the pipeline ran and something broke.
	StateFailed State = "failed"
	// StateSkipped means a capability check rejected the destination
	// before any adapter was invoked.
	StateSkipped State = "skipped"
)

// Outcome is the result of one destination's pipeline.
type Outcome struct {
	AccountID   int64
	AccountName string
	Platform    account.Platform
	State       State
	PostID      string
	PostURL     string
	Reason      string
}

// Report summarizes one dispatch batch. Failed counts every destination
// that did not succeed, so skipped destinations are included in it;
// Skipped breaks them out separately.
type Report struct {
	Outcomes  []Outcome
	Attempted int
	Succeeded int
	Failed    int
	Skipped   int
}

// AllSucceeded reports whether every destination in the batch succeeded.
func (r *Report) AllSucceeded() bool {
	return r.Attempted > 0 && r.Succeeded == r.Attempted
}

// Aggregate folds per-destination outcomes into a report. It is a pure
// function of its input; outcome order is preserved.
func Aggregate(outcomes []Outcome) *Report {
	r := &Report{
		Outcomes:  outcomes,
		Attempted: len(outcomes),
	}
	for _, out := range outcomes {
		switch out.State {
		case StateSucceeded:
			r.Succeeded++
		case StateSkipped:
			r.Skipped++
		}
	}
	r.Failed = r.Attempted - r.Succeeded
	return r
}
