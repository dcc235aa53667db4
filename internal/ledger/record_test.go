package ledger

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChangeRecord(t *testing.T) {
	changes := map[string]Change{
		"u1": {After: Record{"money": 100}},
	}
	rec := NewChangeRecord("u1", "init", changes)

	_, err := uuid.Parse(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.Actor)
	assert.Equal(t, "init", rec.Reason)
	assert.False(t, rec.At.IsZero())
	assert.False(t, rec.Empty())
}

func TestChangeRecord_IDsAreSortable(t *testing.T) {
	// UUIDv7 embeds the timestamp in the most significant bits, so IDs
	// created in sequence sort in creation order.
	a := NewChangeRecord("", "", nil)
	b := NewChangeRecord("", "", nil)
	assert.LessOrEqual(t, a.ID, b.ID)
}

func TestChangeRecord_Summary(t *testing.T) {
	rec := NewChangeRecord("admin", "adjust", map[string]Change{
		"b": {Before: Record{"money": 1}, After: Record{"money": 2}},
		"a": {After: Record{"money": 5}},
		"c": {Before: Record{"money": 9}},
	})

	assert.Equal(t, "a: created, b: updated, c: deleted", rec.Summary())
}

func TestChangeRecord_SummaryTruncates(t *testing.T) {
	changes := make(map[string]Change)
	for i := 0; i < MaxSummaryChanges+3; i++ {
		changes[fmt.Sprintf("u%02d", i)] = Change{After: Record{"money": i}}
	}
	rec := NewChangeRecord("admin", "bulk", changes)

	assert.Equal(t,
		"u00: created, u01: created, u02: created, u03: created, u04: created (+3 more)",
		rec.Summary())
}

func TestChangeRecord_SummaryEmpty(t *testing.T) {
	rec := NewChangeRecord("u1", "noop", nil)
	assert.True(t, rec.Empty())
	assert.Equal(t, "no changes", rec.Summary())
}
