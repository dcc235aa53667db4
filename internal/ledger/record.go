package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxSummaryChanges caps how many per-account entries Summary renders.
// Bulk mutations (wipes, migrations) would otherwise flood the log; the
// ChangeRecord itself always carries the full diff, only the rendered
// summary truncates.
const MaxSummaryChanges = 5

// ChangeRecord is the audit unit for one committed mutation: who changed
// what, and why. Built once per successful Write/Update, delivered to the
// store's ChangeSink, and not retained by the store afterwards.
type ChangeRecord struct {
	// ID is a time-sortable UUIDv7 identifying this mutation.
	ID string `json:"id"`

	// Actor identifies who requested the mutation (e.g. a user ID).
	Actor string `json:"actor,omitempty"`

	// Reason is the caller-supplied justification (e.g. a command name).
	Reason string `json:"reason,omitempty"`

	// At is the commit wall-clock time. Informational only: nothing
	// orders by it.
	At time.Time `json:"at"`

	// Changes maps account ID to its before/after pair. Unchanged
	// accounts never appear.
	Changes map[string]Change `json:"changes"`
}

// NewChangeRecord stamps a diff with actor/reason metadata and a fresh
// UUIDv7 ID.
func NewChangeRecord(actor, reason string, changes map[string]Change) *ChangeRecord {
	return &ChangeRecord{
		ID:      uuid.Must(uuid.NewV7()).String(),
		Actor:   actor,
		Reason:  reason,
		At:      time.Now().UTC(),
		Changes: changes,
	}
}

// Empty reports whether the mutation changed nothing.
func (r *ChangeRecord) Empty() bool {
	return len(r.Changes) == 0
}

// Summary renders a short, deterministic one-line description for logs.
// Account IDs are sorted; at most MaxSummaryChanges entries are shown,
// with a trailing "+N more" for the rest.
func (r *ChangeRecord) Summary() string {
	if r.Empty() {
		return "no changes"
	}

	ids := make([]string, 0, len(r.Changes))
	for id := range r.Changes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	shown := ids
	if len(shown) > MaxSummaryChanges {
		shown = shown[:MaxSummaryChanges]
	}

	var b strings.Builder
	for i, id := range shown {
		if i > 0 {
			b.WriteString(", ")
		}
		c := r.Changes[id]
		switch {
		case c.Before == nil:
			fmt.Fprintf(&b, "%s: created", id)
		case c.After == nil:
			fmt.Fprintf(&b, "%s: deleted", id)
		default:
			fmt.Fprintf(&b, "%s: updated", id)
		}
	}
	if rest := len(ids) - len(shown); rest > 0 {
		fmt.Fprintf(&b, " (+%d more)", rest)
	}
	return b.String()
}
