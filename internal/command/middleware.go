package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Miya253/ledgerkit/internal/ledger"
)

// Invocation carries the host's metadata for one command call.
type Invocation struct {
	// Command is the command name (e.g. "pay", "daily").
	Command string

	// ActorID identifies the invoking user.
	ActorID string

	// ActorName is the human-readable actor, for logs only.
	ActorName string
}

// Handler is the host's handler signature. Wrap takes one and returns
// one, so the host needs no changes to be instrumented.
type Handler func(ctx context.Context, inv Invocation) error

// Store is the read-only slice of the ledger store the tracker needs:
// committed-state snapshots and the tracked-mutation counter.
type Store interface {
	Read() ledger.Ledger
	Mutations() uint64
}

// Diagnostic is one observation about a completed invocation.
type Diagnostic struct {
	// Invocation the observation belongs to.
	Invocation Invocation

	// Changes is the before/after delta across the invocation, nil when
	// nothing changed.
	Changes map[string]ledger.Change

	// Silent is true when the ledger changed but no mutation went
	// through the store's tracked path.
	Silent bool

	// Err is the handler's failure, if any.
	Err error
}

// Tracker wraps handlers with before/after ledger capture.
//
// Stateless between invocations; one Tracker may wrap any number of
// handlers and is safe for concurrent use.
type Tracker struct {
	store  Store
	logger *slog.Logger
	notify func(Diagnostic)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithDiagnosticSink adds a callback receiving every diagnostic, on top
// of the log output. Used by tests and by hosts that forward audit
// findings elsewhere.
func WithDiagnosticSink(notify func(Diagnostic)) Option {
	return func(t *Tracker) {
		t.notify = notify
	}
}

// NewTracker creates a tracker observing the given store.
func NewTracker(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Wrap returns a handler that forwards to h unchanged, capturing the
// ledger before and after. The post-capture runs on every exit path:
// normal return, error return, and panic (the panic keeps propagating).
func (t *Tracker) Wrap(h Handler) Handler {
	return func(ctx context.Context, inv Invocation) (err error) {
		before := t.store.Read()
		beforeMutations := t.store.Mutations()

		t.logger.Debug("command invoked",
			"command", inv.Command, "actor_id", inv.ActorID, "actor", inv.ActorName)

		defer func() {
			if r := recover(); r != nil {
				// Report, then let the panic keep propagating: the
				// wrapper never swallows the host's failure semantics.
				t.observe(inv, before, beforeMutations, fmt.Errorf("panic: %v", r))
				panic(r)
			}
			t.observe(inv, before, beforeMutations, err)
		}()

		return h(ctx, inv)
	}
}

// observe compares the pre/post state and emits diagnostics.
func (t *Tracker) observe(inv Invocation, before ledger.Ledger, beforeMutations uint64, err error) {
	after := t.store.Read()
	tracked := t.store.Mutations() != beforeMutations

	changes := ledger.Diff(before, after)
	if len(changes) == 0 {
		changes = nil
	}

	diag := Diagnostic{
		Invocation: inv,
		Changes:    changes,
		Silent:     changes != nil && !tracked,
		Err:        err,
	}

	switch {
	case err != nil:
		t.logger.Error("command failed",
			"command", inv.Command, "actor_id", inv.ActorID, "err", err)
	case diag.Silent:
		// The ledger moved without a tracked mutation: someone wrote
		// around the store. Not a blocker, but it must not go unseen.
		t.logger.Warn("silent ledger modification",
			"command", inv.Command, "actor_id", inv.ActorID,
			"accounts", len(changes),
			"summary", summarize(inv, changes))
	case changes != nil:
		t.logger.Info("command changed ledger",
			"command", inv.Command, "actor_id", inv.ActorID,
			"accounts", len(changes))
	default:
		t.logger.Debug("command left ledger unchanged",
			"command", inv.Command, "actor_id", inv.ActorID)
	}

	if t.notify != nil {
		t.notify(diag)
	}
}

func summarize(inv Invocation, changes map[string]ledger.Change) string {
	rec := &ledger.ChangeRecord{
		Actor:   inv.ActorID,
		Reason:  inv.Command,
		Changes: changes,
	}
	return rec.Summary()
}
