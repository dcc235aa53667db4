// Package ledger defines the economy ledger data model and change tracking.
//
// A Ledger is a single JSON document mapping account IDs to open-schema
// Records. The package deliberately does not constrain Record contents:
// records are opaque payload, relevant here only as units for deep copying
// and structural diffing.
//
// # Change Tracking
//
// Diff computes the per-key before/after delta between two ledger
// snapshots. ChangeRecord attaches actor and reason metadata to a diff,
// forming the audit unit emitted once per committed mutation.
//
// # Determinism
//
// Diff output never depends on map iteration order, and MarshalCanonical
// renders values with sorted, NFC-normalized keys so that logs, golden
// files, and persisted audit rows are byte-stable across runs.
//
// All functions in this package are pure over their inputs and safe for
// concurrent use; they operate on copies and hold no state.
package ledger
