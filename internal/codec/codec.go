package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Miya253/ledgerkit/internal/ledger"
)

// CorruptDataError reports a blob that does not decode into a ledger
// document. It wraps the underlying decode error.
type CorruptDataError struct {
	// Path is the file the blob came from, empty for in-memory decodes.
	Path string

	// Err is the underlying decode failure.
	Err error
}

// Error implements the error interface.
func (e *CorruptDataError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("corrupt ledger data in %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("corrupt ledger data: %v", e.Err)
}

func (e *CorruptDataError) Unwrap() error {
	return e.Err
}

// IsCorruptData returns true if the error is a corrupt-data error.
// Uses errors.As to handle wrapped errors.
func IsCorruptData(err error) bool {
	var ce *CorruptDataError
	return errors.As(err, &ce)
}

// Encode serializes the ledger as indented UTF-8 JSON.
// Never fails for a well-formed ledger (the value domain is JSON-native).
func Encode(l ledger.Ledger) ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return data, nil
}

// Decode parses a blob into a ledger. Empty input decodes to the empty
// ledger; invalid input yields a *CorruptDataError.
func Decode(data []byte) (ledger.Ledger, error) {
	if len(data) == 0 {
		return ledger.Ledger{}, nil
	}
	var l ledger.Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, &CorruptDataError{Err: err}
	}
	if l == nil {
		// The blob was the JSON literal "null".
		return ledger.Ledger{}, nil
	}
	return l, nil
}

// Codec reads and writes the primary ledger blob at a fixed path.
// Stateless apart from the path; safe for concurrent use, though the
// store serializes all Save calls through its write gate anyway.
type Codec struct {
	path string
}

// New creates a codec bound to the given primary file path.
func New(path string) *Codec {
	return &Codec{path: path}
}

// Path returns the primary file path.
func (c *Codec) Path() string {
	return c.path
}

// Load reads and decodes the primary blob. A missing file is the empty
// ledger; a file that exists but does not decode is a *CorruptDataError.
func (c *Codec) Load() (ledger.Ledger, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return ledger.Ledger{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}
	l, err := Decode(data)
	if err != nil {
		var ce *CorruptDataError
		if errors.As(err, &ce) {
			ce.Path = c.path
		}
		return nil, err
	}
	return l, nil
}

// ReadBlob returns the raw bytes of the primary blob, or nil if the file
// does not exist yet. Used to capture the pre-write state for backups
// without decoding it.
func (c *Codec) ReadBlob() ([]byte, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}
	return data, nil
}

// Save encodes the ledger and atomically replaces the primary blob:
// write to path+".tmp", fsync, rename over path. The rename is the
// commit point.
func (c *Codec) Save(l ledger.Ledger) error {
	data, err := Encode(l)
	if err != nil {
		return err
	}
	return WriteAtomic(c.path, data)
}

// WriteAtomic writes data to path via a temp file in the same directory
// (rename is only atomic within one filesystem). Shared with the backup
// manager so backup blobs get the same crash guarantee as the primary.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	// Flush to stable storage before the rename commits it; otherwise a
	// crash could surface a renamed-but-empty file.
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
