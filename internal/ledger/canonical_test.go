package ledger

import (
	"math"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestMarshalCanonical_SortedKeysNoHTMLEscape(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"b": 1,
		"a": "x<y",
		"c": []any{true, nil, 1.5},
	})
	require.NoError(t, err)

	newGoldie(t).Assert(t, "canonical_value", data)
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	l := Ledger{
		"u1": Record{"money": 100, "name": "alice"},
		"u2": Record{"money": 50},
	}

	first, err := MarshalCanonical(l)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := MarshalCanonical(l.Clone())
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestMarshalCanonical_IntegralFloats(t *testing.T) {
	// 100 decoded from JSON arrives as float64(100); it must render
	// identically to int(100) or round trips would change bytes.
	asInt, err := MarshalCanonical(Record{"money": 100})
	require.NoError(t, err)
	asFloat, err := MarshalCanonical(Record{"money": 100.0})
	require.NoError(t, err)
	assert.Equal(t, string(asInt), string(asFloat))
}

func TestMarshalCanonical_RejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(Record{"x": math.NaN()})
	require.Error(t, err)

	_, err = MarshalCanonical(Record{"x": math.Inf(1)})
	require.Error(t, err)
}

func TestChangeRecord_MarshalCanonicalGolden(t *testing.T) {
	rec := &ChangeRecord{
		ID:     "rec-1",
		Actor:  "u1",
		Reason: "init",
		At:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Changes: map[string]Change{
			"u1": {After: Record{"money": 100}},
		},
	}

	data, err := rec.MarshalCanonical()
	require.NoError(t, err)

	newGoldie(t).Assert(t, "change_record", data)
}
