package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Miya253/ledgerkit/internal/backup"
	"github.com/Miya253/ledgerkit/internal/codec"
	"github.com/Miya253/ledgerkit/internal/ledger"
)

// collectSink retains every record it receives.
type collectSink struct {
	records []*ledger.ChangeRecord
}

func (s *collectSink) Record(_ context.Context, rec *ledger.ChangeRecord) error {
	s.records = append(s.records, rec)
	return nil
}

// failingBackups simulates a storage fault on the backup device.
type failingBackups struct{}

func (failingBackups) Snapshot([]byte) (backup.Handle, error) {
	return backup.Handle{}, &backup.Error{Op: "snapshot", Err: errors.New("device full")}
}

func openTestStore(t *testing.T, opts ...Option) (*Store, *collectSink) {
	t.Helper()
	sink := &collectSink{}
	opts = append([]Option{WithSink(sink)}, opts...)
	s, err := Open(filepath.Join(t.TempDir(), "balance.json"), opts...)
	require.NoError(t, err)
	return s, sink
}

func TestOpen_MissingFileIsEmptyLedger(t *testing.T) {
	s, _ := openTestStore(t)
	assert.Empty(t, s.Read())
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	_, err := Open(path)
	require.Error(t, err)
	assert.True(t, codec.IsCorruptData(err))
}

func TestOpen_LoadsExistingLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"u1": {"money": 100}}`), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, float64(100), s.Read()["u1"]["money"])
}

func TestWrite_NilLedgerIsValidationError(t *testing.T) {
	s, sink := openTestStore(t)

	_, err := s.Write(context.Background(), nil, "u1", "test")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Empty(t, sink.records)
}

func TestWrite_PersistsAndReturnsChangeRecord(t *testing.T) {
	s, sink := openTestStore(t)

	rec, err := s.Write(context.Background(), ledger.Ledger{"u1": ledger.Record{"money": 100}}, "u1", "init")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "u1", rec.Actor)
	assert.Equal(t, "init", rec.Reason)

	require.Len(t, rec.Changes, 1)
	c := rec.Changes["u1"]
	assert.Nil(t, c.Before)
	assert.Equal(t, ledger.Record{"money": 100}, c.After)

	require.Len(t, sink.records, 1)
	assert.Equal(t, rec.ID, sink.records[0].ID)

	// Durable: a fresh store sees the committed state.
	reopened, err := Open(s.Path(), WithBackups(failingBackups{}))
	require.NoError(t, err)
	assert.True(t, s.Read().Equal(reopened.Read()))
}

func TestWrite_CallerCannotMutateCommittedState(t *testing.T) {
	s, _ := openTestStore(t)

	l := ledger.Ledger{"u1": ledger.Record{"money": 100}}
	_, err := s.Write(context.Background(), l, "u1", "init")
	require.NoError(t, err)

	// Mutating the caller's map after Write must not leak in.
	l["u1"]["money"] = 0
	assert.Equal(t, 100, s.Read()["u1"]["money"])

	// Mutating a Read copy must not leak either.
	r := s.Read()
	r["u1"]["money"] = -1
	assert.Equal(t, 100, s.Read()["u1"]["money"])
}

func TestUpdate_FirstDepositScenario(t *testing.T) {
	s, _ := openTestStore(t)

	rec, err := s.Update(context.Background(), func(_ context.Context, cur ledger.Ledger) (ledger.Ledger, error) {
		cur["u1"] = ledger.Record{"money": 100}
		return cur, nil
	}, "u1", "init")
	require.NoError(t, err)

	assert.True(t, s.Read().Equal(ledger.Ledger{"u1": ledger.Record{"money": 100}}))
	require.Len(t, rec.Changes, 1)
	assert.Nil(t, rec.Changes["u1"].Before)
	assert.Equal(t, ledger.Record{"money": 100}, rec.Changes["u1"].After)
}

func TestUpdate_ErrorLeavesLedgerUnchanged(t *testing.T) {
	s, sink := openTestStore(t)
	_, err := s.Write(context.Background(), ledger.Ledger{"u1": ledger.Record{"money": 100}}, "u1", "init")
	require.NoError(t, err)
	before := s.Read()
	sink.records = nil

	boom := errors.New("updater exploded")
	_, err = s.Update(context.Background(), func(_ context.Context, cur ledger.Ledger) (ledger.Ledger, error) {
		cur["u1"]["money"] = 999 // mutates only the copy
		return nil, boom
	}, "u1", "explode")

	// Propagated unchanged, not wrapped.
	assert.Equal(t, boom, err)
	assert.True(t, before.Equal(s.Read()))
	assert.Empty(t, sink.records)

	// And the gate was released: the next mutation proceeds.
	_, err = s.Update(context.Background(), func(_ context.Context, cur ledger.Ledger) (ledger.Ledger, error) {
		return cur, nil
	}, "u1", "after")
	require.NoError(t, err)
}

func TestUpdate_NilResultCommitsUnchanged(t *testing.T) {
	s, _ := openTestStore(t)
	_, err := s.Write(context.Background(), ledger.Ledger{"u1": ledger.Record{"money": 100}}, "u1", "init")
	require.NoError(t, err)
	before := s.Read()

	rec, err := s.Update(context.Background(), func(_ context.Context, _ ledger.Ledger) (ledger.Ledger, error) {
		return nil, nil
	}, "u1", "noop")
	require.NoError(t, err)
	assert.True(t, rec.Empty())
	assert.True(t, before.Equal(s.Read()))
}

func TestUpdate_CancelledInsideUpdater(t *testing.T) {
	s, sink := openTestStore(t)
	_, err := s.Write(context.Background(), ledger.Ledger{"u1": ledger.Record{"money": 100}}, "u1", "init")
	require.NoError(t, err)
	before := s.Read()
	sink.records = nil

	ctx, cancel := context.WithCancel(context.Background())
	_, err = s.Update(ctx, func(_ context.Context, cur ledger.Ledger) (ledger.Ledger, error) {
		cur["u1"]["money"] = 0
		cancel() // caller gives up while the updater is running
		return cur, nil
	}, "u1", "cancelled")

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, before.Equal(s.Read()))
	assert.Empty(t, sink.records)
}

func TestWrite_BackupFailureAbortsMutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"u1": {"money": 100}}`), 0o644))

	sink := &collectSink{}
	s, err := Open(path, WithSink(sink), WithBackups(failingBackups{}))
	require.NoError(t, err)
	before := s.Read()

	_, err = s.Write(context.Background(), ledger.Ledger{"u1": ledger.Record{"money": 0}}, "u1", "wipe")
	require.Error(t, err)
	assert.True(t, backup.IsBackupFailure(err))

	// Ledger unchanged in memory and on disk; no record emitted.
	assert.True(t, before.Equal(s.Read()))
	onDisk, err := codec.New(path).Load()
	require.NoError(t, err)
	assert.True(t, before.Equal(onDisk))
	assert.Empty(t, sink.records)
	assert.Zero(t, s.Mutations())
}

func TestWrite_BackupMatchesPreMutationState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "balance.json")
	backups := backup.NewManager(filepath.Join(dir, "backups"), path)

	s, err := Open(path, WithBackups(backups), WithSink(&collectSink{}))
	require.NoError(t, err)

	_, err = s.Write(context.Background(), ledger.Ledger{"u1": ledger.Record{"money": 100}}, "u1", "init")
	require.NoError(t, err)
	preSecond := s.Read()

	_, err = s.Write(context.Background(), ledger.Ledger{"u1": ledger.Record{"money": 250}}, "u1", "raise")
	require.NoError(t, err)

	h, err := backups.Latest()
	require.NoError(t, err)
	require.False(t, h.Empty())

	blob, err := os.ReadFile(h.Path)
	require.NoError(t, err)
	restored, err := codec.Decode(blob)
	require.NoError(t, err)
	assert.True(t, preSecond.Equal(restored))
}

func TestWrite_NoBackupForFirstEverWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "balance.json")
	backups := backup.NewManager(filepath.Join(dir, "backups"), path)

	s, err := Open(path, WithBackups(backups), WithSink(&collectSink{}))
	require.NoError(t, err)

	_, err = s.Write(context.Background(), ledger.Ledger{"u1": ledger.Record{"money": 1}}, "u1", "init")
	require.NoError(t, err)

	handles, err := backups.List()
	require.NoError(t, err)
	assert.Empty(t, handles, "nothing existed before the first write, so nothing to back up")
}

func TestMutations_CountsCommits(t *testing.T) {
	s, _ := openTestStore(t)
	assert.Zero(t, s.Mutations())

	_, err := s.Write(context.Background(), ledger.Ledger{}, "u1", "noop")
	require.NoError(t, err)
	assert.EqualValues(t, 1, s.Mutations())

	_, err = s.Update(context.Background(), func(_ context.Context, cur ledger.Ledger) (ledger.Ledger, error) {
		return cur, nil
	}, "u1", "noop")
	require.NoError(t, err)
	assert.EqualValues(t, 2, s.Mutations())
}
