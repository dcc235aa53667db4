package codec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Miya253/ledgerkit/internal/ledger"
)

func TestCodec_RoundTrip(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "balance.json"))

	orig := ledger.Ledger{
		"u1": ledger.Record{"money": 100, "name": "alice"},
		"u2": ledger.Record{"money": 50},
	}
	require.NoError(t, c.Save(orig))

	loaded, err := c.Load()
	require.NoError(t, err)
	assert.True(t, orig.Equal(loaded))
}

func TestCodec_LoadMissingFileIsEmptyLedger(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "balance.json"))

	l, err := c.Load()
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.Empty(t, l)
}

func TestCodec_LoadEmptyFileIsEmptyLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	l, err := New(path).Load()
	require.NoError(t, err)
	assert.Empty(t, l)
}

func TestCodec_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(path).Load()
	require.Error(t, err)
	assert.True(t, IsCorruptData(err))
	assert.Contains(t, err.Error(), path)
}

func TestCodec_LoadCorruptWrapped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.json")
	require.NoError(t, os.WriteFile(path, []byte("[1,2,3]"), 0o644))

	_, err := New(path).Load()
	require.Error(t, err)

	wrapped := fmt.Errorf("startup: %w", err)
	assert.True(t, IsCorruptData(wrapped))
}

func TestCodec_SaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	c := New(filepath.Join(dir, "balance.json"))
	require.NoError(t, c.Save(ledger.Ledger{"u1": ledger.Record{"money": 1}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "balance.json", entries[0].Name())
}

func TestCodec_SaveOverwritesAtomically(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "balance.json"))
	require.NoError(t, c.Save(ledger.Ledger{"u1": ledger.Record{"money": 1}}))
	require.NoError(t, c.Save(ledger.Ledger{"u1": ledger.Record{"money": 2}}))

	l, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, float64(2), l["u1"]["money"])
}

func TestCodec_SaveCreatesParentDir(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "data", "nested", "balance.json"))
	require.NoError(t, c.Save(ledger.Ledger{}))

	_, err := os.Stat(c.Path())
	require.NoError(t, err)
}

func TestEncode_Indented(t *testing.T) {
	data, err := Encode(ledger.Ledger{"u1": ledger.Record{"money": 100}})
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "\n    "), "output should be indented: %s", data)
}

func TestDecode_NullLiteral(t *testing.T) {
	l, err := Decode([]byte("null"))
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.Empty(t, l)
}

func TestCodec_ReadBlob(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "balance.json"))

	blob, err := c.ReadBlob()
	require.NoError(t, err)
	assert.Nil(t, blob)

	require.NoError(t, c.Save(ledger.Ledger{"u1": ledger.Record{"money": 1}}))
	blob, err = c.ReadBlob()
	require.NoError(t, err)
	assert.NotEmpty(t, blob)
}
