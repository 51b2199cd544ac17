package engine

import (
	"context"

	"stabbench/internal/session"
)

// InputKind describes what a predictor accepts as its structural input.
type InputKind string

const (
	KindSequence InputKind = "sequence"
	KindPDBID    InputKind = "pdb_id"
	KindPDBFile  InputKind = "pdb_file"
)

// Header identifies a predictor adapter.
type Header struct {
	Name      string
	InputKind InputKind
	// BaseURL is probed for availability before any job is dispatched.
	BaseURL string
}

// Flags tunes how the engine prepares jobs for an adapter.
type Flags struct {
	// GroupMutations collapses all mutations sharing the grouping key into
	// a single job, for services that accept mutation lists.
	GroupMutations bool
	// GroupBy names the descriptor fields forming the grouping key.
	// Empty means identifier and chain.
	GroupBy []string
	// MutationDelimiter joins grouped mutations in a submission payload.
	MutationDelimiter string
	// RequiresLogin makes the engine call Login before the first submit.
	RequiresLogin bool
}

// Outcome is an adapter's verdict after one poll cycle.
type Outcome int

const (
	// Retry means the remote job is still pending; poll again later.
	Retry Outcome = iota
	// Done means the remote job reached a final state and the adapter has
	// recorded whatever results or failure it found.
	Done
)

// Adapter drives one remote predictor. The engine owns the job lifecycle
// and the HTTP session; the adapter owns the wire protocol.
type Adapter interface {
	Header() Header
	Flags() Flags

	// PreparePayload validates and precomputes per-job request data before
	// any network traffic. An error marks the job as unparseable.
	PreparePayload(job *Job) error

	// Login authenticates the session. Called only when RequiresLogin is
	// set; a failure is terminal for the job.
	Login(ctx context.Context, sess *session.Session, job *Job) error

	// Submit sends the job to the remote service and stashes whatever the
	// poll phase needs (job URL, tokens) on the job.
	Submit(ctx context.Context, sess *session.Session, job *Job) error

	// Poll checks the remote job once. Returning Done ends the poll loop;
	// Retry schedules another cycle after the wait interval.
	Poll(ctx context.Context, sess *session.Session, job *Job) (Outcome, error)
}
