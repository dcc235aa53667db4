package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Miya253/ledgerkit/internal/ledger"
)

// Entry is one stored audit row, decoded.
type Entry struct {
	ID      string
	Actor   string
	Reason  string
	At      time.Time
	Changes map[string]ledger.Change
}

// Recent returns up to limit entries, newest first.
// Ordering uses the UUIDv7 ID, not the timestamp: IDs are monotone by
// construction while wall clocks are not.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, actor, reason, at, changes
		FROM change_records
		ORDER BY id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ByActor returns up to limit entries attributed to actor, newest first.
func (l *Log) ByActor(ctx context.Context, actor string, limit int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, actor, reason, at, changes
		FROM change_records
		WHERE actor = ?
		ORDER BY id COLLATE BINARY DESC
		LIMIT ?
	`, actor, limit)
	if err != nil {
		return nil, fmt.Errorf("query by actor: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var at, changes string
		if err := rows.Scan(&e.ID, &e.Actor, &e.Reason, &at, &changes); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse entry time %q: %w", at, err)
		}
		e.At = parsed
		if err := json.Unmarshal([]byte(changes), &e.Changes); err != nil {
			return nil, fmt.Errorf("decode entry changes: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
