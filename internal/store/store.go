package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/Miya253/ledgerkit/internal/backup"
	"github.com/Miya253/ledgerkit/internal/codec"
	"github.com/Miya253/ledgerkit/internal/ledger"
)

// Snapshotter stores a pre-write copy of the primary blob. Implemented
// by *backup.Manager; tests substitute failing implementations to
// exercise the abort path.
type Snapshotter interface {
	Snapshot(blob []byte) (backup.Handle, error)
}

// Updater transforms a deep copy of the committed ledger into the next
// state. It runs with the write gate held and may block (further I/O,
// awaiting other services); it receives the mutation's context for
// cancellation. Returning an error aborts the mutation with the ledger
// unchanged. Returning nil commits the current state unchanged.
//
// The returned ledger becomes the store's committed state: the updater
// must not retain or mutate it after returning.
type Updater func(ctx context.Context, current ledger.Ledger) (ledger.Ledger, error)

// Store owns the in-memory ledger and serializes all mutation.
//
// Thread-safety:
//   - Read: safe from any goroutine, never blocked by writers beyond
//     copying the committed state
//   - Write/Update: safe from any goroutine, serialized by the gate
type Store struct {
	codec   *codec.Codec
	backups Snapshotter
	sink    ChangeSink
	logger  *slog.Logger

	gate *writeGate

	// mu guards committed. Writers hold the gate AND take mu only for
	// the pointer swap, so readers are blocked for the swap alone.
	mu        sync.RWMutex
	committed ledger.Ledger

	// mutations counts committed writes. Instrumentation compares it
	// across a handler invocation to tell tracked from silent changes.
	mutations atomic.Uint64
}

// Option configures a Store.
type Option func(*Store)

// WithBackups replaces the backup manager. The default stores
// generations next to the primary file.
func WithBackups(s Snapshotter) Option {
	return func(st *Store) {
		st.backups = s
	}
}

// WithSink sets the ChangeRecord sink. The default logs summaries via
// slog.
func WithSink(sink ChangeSink) Option {
	return func(st *Store) {
		st.sink = sink
	}
}

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(st *Store) {
		st.logger = logger
	}
}

// Open loads the ledger at path and returns a store owning it.
//
// A missing file opens as the empty ledger. A file that exists but does
// not decode surfaces as a *codec.CorruptDataError: the caller decides
// whether to abort or start over; Open never silently discards data.
func Open(path string, opts ...Option) (*Store, error) {
	c := codec.New(path)
	s := &Store{
		codec:  c,
		logger: slog.Default(),
		gate:   newWriteGate(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.backups == nil {
		s.backups = backup.NewManager(filepath.Dir(path), path)
	}
	if s.sink == nil {
		s.sink = LogSink{Logger: s.logger}
	}

	committed, err := c.Load()
	if err != nil {
		return nil, err
	}
	s.committed = committed
	return s, nil
}

// Path returns the primary blob location.
func (s *Store) Path() string {
	return s.codec.Path()
}

// Read returns a deep, independent copy of the last committed state.
// Mutating the copy never affects the store. In-flight mutations are
// invisible: the committed state only changes after a persist succeeds.
func (s *Store) Read() ledger.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed.Clone()
}

// Mutations returns the number of mutations committed through the store
// since Open. Used by command instrumentation to detect changes that
// bypassed the tracked path.
func (s *Store) Mutations() uint64 {
	return s.mutations.Load()
}

// Write replaces the ledger wholesale with next and returns the change
// record. Blocks until the gate is free (cancellable via ctx). A nil
// next is malformed and yields a *ValidationError.
func (s *Store) Write(ctx context.Context, next ledger.Ledger, actor, reason string) (*ledger.ChangeRecord, error) {
	if next == nil {
		return nil, &ValidationError{Reason: "ledger must be a non-nil mapping"}
	}

	if err := s.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.gate.Release()

	return s.commit(ctx, next.Clone(), actor, reason)
}

// Update applies updater to a copy of the committed state and commits
// the result, holding the gate across the full load -> transform ->
// persist sequence so no other mutation can interleave.
//
// An updater error (or a cancellation observed while the updater ran)
// propagates unchanged; backup and persist are skipped and the ledger
// stays exactly as it was.
func (s *Store) Update(ctx context.Context, updater Updater, actor, reason string) (*ledger.ChangeRecord, error) {
	if err := s.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.gate.Release()

	current := s.Read()
	next, err := updater(ctx, current)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		// Cancelled inside the updater: leave the ledger untouched.
		return nil, err
	}
	if next == nil {
		// Updater opted out; commit the current state unchanged so the
		// caller still gets a (empty-diff) change record.
		next = s.Read()
	}

	return s.commit(ctx, next, actor, reason)
}

// commit runs the write pipeline. Caller must hold the gate and pass a
// ledger the store may own from here on.
func (s *Store) commit(ctx context.Context, next ledger.Ledger, actor, reason string) (*ledger.ChangeRecord, error) {
	// The gate is held, so committed cannot change under us; Read is
	// only for the deep copy + lock discipline.
	prev := s.Read()

	// Capture the pre-write blob and back it up before anything
	// destructive. No backup, no write.
	blob, err := s.codec.ReadBlob()
	if err != nil {
		return nil, err
	}
	if _, err := s.backups.Snapshot(blob); err != nil {
		s.logger.Error("backup failed, aborting mutation",
			"path", s.codec.Path(), "actor", actor, "reason", reason, "err", err)
		return nil, err
	}

	if err := s.codec.Save(next); err != nil {
		return nil, err
	}

	rec := ledger.NewChangeRecord(actor, reason, ledger.Diff(prev, next))

	s.mu.Lock()
	s.committed = next
	s.mu.Unlock()
	s.mutations.Add(1)

	if err := s.sink.Record(ctx, rec); err != nil {
		// The mutation is already durable; a sink failure must not
		// unwind it. Surface loudly and move on.
		s.logger.Error("change sink failed", "id", rec.ID, "err", err)
	}
	return rec, nil
}
