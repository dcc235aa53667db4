package ledger

// Record is one account's payload: an open mapping from field name to
// value (balances, flags, inventories). The store never interprets the
// fields; equality and copying are structural over the JSON value domain
// (strings, bools, numbers, nil, []any, map[string]any).
type Record map[string]any

// Ledger is the full document: account ID to Record. Keys are unique by
// construction. A nil Ledger is the "absent document" and decodes from an
// empty or missing file; it behaves like an empty ledger everywhere
// except that Write rejects it as malformed input.
type Ledger map[string]Record

// Clone returns a deep, independent copy of l. Mutating the copy never
// affects the original. A nil ledger clones to an empty one so callers
// can populate the result unconditionally.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for id, rec := range l {
		out[id] = rec.Clone()
	}
	return out
}

// Clone returns a deep copy of the record. nil clones to nil, preserving
// the absent/present distinction Diff relies on.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = cloneValue(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		// Scalars in the JSON value domain are immutable.
		return v
	}
}

// Equal reports deep structural equality of two ledgers.
// nil and the empty ledger compare equal: both decode from "{}" and the
// distinction carries no meaning once committed.
func (l Ledger) Equal(other Ledger) bool {
	if len(l) != len(other) {
		return false
	}
	for id, rec := range l {
		orec, ok := other[id]
		if !ok || !rec.Equal(orec) {
			return false
		}
	}
	return true
}

// Equal reports deep structural equality of two records.
func (r Record) Equal(other Record) bool {
	return mapEqual(r, other)
}

func mapEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !valueEqual(av, bv) {
			return false
		}
	}
	return true
}

// valueEqual compares two values in the JSON value domain.
//
// Numbers compare by value across Go representations: a ledger built in
// code carries int fields, the same ledger reloaded from disk carries
// float64. Those must compare equal or every round trip would diff.
func valueEqual(a, b any) bool {
	if an, aok := asFloat(a); aok {
		bn, bok := asFloat(b)
		return bok && an == bn
	}
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		return ok && mapEqual(av, bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
