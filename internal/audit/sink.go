package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/Miya253/ledgerkit/internal/ledger"
	"github.com/Miya253/ledgerkit/internal/store"
)

var _ store.ChangeSink = (*Log)(nil)

// Record appends one change record to the audit trail.
// Uses INSERT OR IGNORE keyed on the record ID for idempotency: a record
// delivered twice (sink retry, fan-out replay) is stored once.
//
// Called after the mutation committed; an error here is reported to the
// store's logger but never unwinds the commit.
func (l *Log) Record(ctx context.Context, rec *ledger.ChangeRecord) error {
	changes, err := marshalChanges(rec.Changes)
	if err != nil {
		return fmt.Errorf("record change: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO change_records (id, actor, reason, at, changes)
		VALUES (?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.Actor,
		rec.Reason,
		rec.At.UTC().Format(time.RFC3339Nano),
		changes,
	)
	if err != nil {
		return fmt.Errorf("record change: %w", err)
	}

	return nil
}

// marshalChanges renders the diff as canonical JSON TEXT for storage, so
// structurally equal diffs are byte-identical rows.
func marshalChanges(changes map[string]ledger.Change) (string, error) {
	obj := make(map[string]any, len(changes))
	for id, c := range changes {
		entry := make(map[string]any, 2)
		if c.Before != nil {
			entry["before"] = map[string]any(c.Before)
		}
		if c.After != nil {
			entry["after"] = map[string]any(c.After)
		}
		obj[id] = entry
	}
	data, err := ledger.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal changes: %w", err)
	}
	return string(data), nil
}
