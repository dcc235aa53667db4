package store

import (
	"context"
	"log/slog"

	"github.com/Miya253/ledgerkit/internal/ledger"
)

// ChangeSink consumes the ChangeRecord of each committed mutation.
// Implementations must tolerate being called from the mutation path:
// the record is delivered after the commit, so a sink error cannot and
// does not roll anything back (it is logged and dropped).
//
// The audit package provides a SQLite-backed sink; the default is
// LogSink.
type ChangeSink interface {
	Record(ctx context.Context, rec *ledger.ChangeRecord) error
}

// LogSink writes change summaries to a slog logger. It is the default
// sink: the core does not persist audit records itself.
type LogSink struct {
	Logger *slog.Logger
}

// Record logs the mutation summary at Info, or Debug when nothing
// actually changed.
func (s LogSink) Record(_ context.Context, rec *ledger.ChangeRecord) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if rec.Empty() {
		logger.Debug("ledger unchanged", "actor", rec.Actor, "reason", rec.Reason)
		return nil
	}
	logger.Info("ledger changed",
		"id", rec.ID,
		"actor", rec.Actor,
		"reason", rec.Reason,
		"accounts", len(rec.Changes),
		"summary", rec.Summary(),
	)
	return nil
}

// MultiSink fans a record out to several sinks in order. The first
// error stops the fan-out and is returned.
type MultiSink []ChangeSink

// Record implements ChangeSink.
func (m MultiSink) Record(ctx context.Context, rec *ledger.ChangeRecord) error {
	for _, s := range m {
		if err := s.Record(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
