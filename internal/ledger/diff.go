package ledger

// Change is one account's before/after pair within a diff. A nil side
// marks the record as absent on that side: nil Before means the account
// was created, nil After means it was deleted.
type Change struct {
	Before Record `json:"before,omitempty"`
	After  Record `json:"after,omitempty"`
}

// Diff computes the structural delta between two ledger snapshots.
//
// Every account ID present in either snapshot is compared by deep
// structural equality; unchanged accounts are omitted. The result is
// independent of map iteration order.
//
// Identities: Diff(a, a) is empty for any a; Diff(a, b) and Diff(b, a)
// cover the same key set with Before/After swapped.
func Diff(before, after Ledger) map[string]Change {
	changes := make(map[string]Change)
	for id, prev := range before {
		next, ok := after[id]
		if !ok {
			changes[id] = Change{Before: prev.Clone()}
			continue
		}
		if !prev.Equal(next) {
			changes[id] = Change{Before: prev.Clone(), After: next.Clone()}
		}
	}
	for id, next := range after {
		if _, ok := before[id]; !ok {
			changes[id] = Change{After: next.Clone()}
		}
	}
	return changes
}
