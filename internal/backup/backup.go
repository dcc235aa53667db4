package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Miya253/ledgerkit/internal/codec"
)

// Error reports a failed backup operation. A mutation that sees one must
// abort before touching the primary blob.
type Error struct {
	// Op is the failed operation ("snapshot", "list", "prune").
	Op string

	// Path is the backup file involved, if any.
	Path string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("backup %s failed for %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("backup %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsBackupFailure returns true if the error is a backup failure.
// Uses errors.As to handle wrapped errors.
func IsBackupFailure(err error) bool {
	var be *Error
	return errors.As(err, &be)
}

// Handle identifies one stored backup generation.
type Handle struct {
	// ID is the generation identifier: "<timestamp>.<uuidv7>".
	// Lexical order equals creation order.
	ID string

	// Path is the backup file location.
	Path string

	// CreatedAt is the snapshot wall-clock time.
	CreatedAt time.Time
}

// Empty reports whether the handle refers to no stored backup (the
// primary file did not exist yet, so there was nothing to copy).
func (h Handle) Empty() bool {
	return h.Path == ""
}

const (
	suffix = ".bak"
	// stamp layout keeps lexical order equal to chronological order.
	stampLayout = "20060102T150405.000000000Z"
)

// Manager writes and manages backup generations for one primary blob.
//
// Stateless apart from configuration; safe for concurrent use. Snapshot
// is called with the write gate held, so in practice snapshots of one
// ledger never race each other.
type Manager struct {
	dir    string
	prefix string
	now    func() time.Time
	newID  func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the timestamp source. Tests use this for
// deterministic generation names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator overrides the uniqueness suffix source.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) {
		m.newID = gen
	}
}

// NewManager creates a manager storing generations of primaryPath in dir.
// Backup files are named "<base(primaryPath)>.<timestamp>.<uuid>.bak".
func NewManager(dir, primaryPath string, opts ...Option) *Manager {
	m := &Manager{
		dir:    dir,
		prefix: filepath.Base(primaryPath),
		now:    time.Now,
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot durably stores a copy of blob as a new generation and returns
// its handle. A nil blob (primary file absent) is a no-op returning an
// empty handle. Any storage failure is a *backup.Error.
func (m *Manager) Snapshot(blob []byte) (Handle, error) {
	if blob == nil {
		return Handle{}, nil
	}

	at := m.now().UTC()
	id := at.Format(stampLayout) + "." + m.newID()
	path := filepath.Join(m.dir, m.prefix+"."+id+suffix)

	if err := codec.WriteAtomic(path, blob); err != nil {
		return Handle{}, &Error{Op: "snapshot", Path: path, Err: err}
	}
	return Handle{ID: id, Path: path, CreatedAt: at}, nil
}

// List returns all stored generations for this primary, oldest first.
func (m *Manager) List() ([]Handle, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "list", Err: err}
	}

	var handles []Handle
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, m.prefix+".") || !strings.HasSuffix(name, suffix) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, m.prefix+"."), suffix)
		h := Handle{ID: id, Path: filepath.Join(m.dir, name)}
		if at, perr := time.Parse(stampLayout, firstSegment(id)); perr == nil {
			h.CreatedAt = at
		} else if info, ierr := entry.Info(); ierr == nil {
			h.CreatedAt = info.ModTime().UTC()
		}
		handles = append(handles, h)
	}
	// Generation IDs start with the timestamp, so name order is age order.
	sort.Slice(handles, func(i, j int) bool { return handles[i].ID < handles[j].ID })
	return handles, nil
}

// Latest returns the newest generation, or an empty handle if none exist.
func (m *Manager) Latest() (Handle, error) {
	handles, err := m.List()
	if err != nil || len(handles) == 0 {
		return Handle{}, err
	}
	return handles[len(handles)-1], nil
}

// Prune removes all but the newest keep generations. keep < 0 keeps
// everything; keep == 0 removes everything.
func (m *Manager) Prune(keep int) (removed int, err error) {
	if keep < 0 {
		return 0, nil
	}
	handles, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(handles) <= keep {
		return 0, nil
	}
	for _, h := range handles[:len(handles)-keep] {
		if rerr := os.Remove(h.Path); rerr != nil {
			return removed, &Error{Op: "prune", Path: h.Path, Err: rerr}
		}
		removed++
	}
	return removed, nil
}

func firstSegment(id string) string {
	if i := strings.Index(id, "."); i >= 0 {
		// The stamp itself contains one dot (fractional seconds); the
		// generation suffix starts after the second dot.
		if j := strings.Index(id[i+1:], "."); j >= 0 {
			return id[:i+1+j]
		}
	}
	return id
}
