package textfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/mesh-intelligence/backlog/pkg/types"
)

// Compile-time interface check.
var _ types.Store = (*Store)(nil)

// Store keeps the catalog in one text file. Load and Save hold an exclusive
// advisory lock on "<path>.lock" so that two processes never interleave a
// read with a write.
type Store struct {
	path string
	lock *flock.Flock
}

// NewStore returns a Store for the file at path. The file need not exist.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the backlog file path.
func (s *Store) Path() string { return s.path }

// Load parses the backlog file. A missing file returns an error wrapping
// fs.ErrNotExist. Products saved before their first task are kept.
func (s *Store) Load() ([]*types.Product, error) {
	if err := s.lockFile(); err != nil {
		return nil, err
	}
	defer s.lock.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close()

	return Parse(f, KeepEmptyProducts())
}

// Save encodes products and atomically replaces the backlog file.
func (s *Store) Save(products []*types.Product) error {
	var buf bytes.Buffer
	if err := Write(&buf, products); err != nil {
		return err
	}

	if err := s.lockFile(); err != nil {
		return err
	}
	defer s.lock.Unlock()

	return writeFileAtomic(s.path, buf.Bytes())
}

// Close releases the lock file handle. Idempotent.
func (s *Store) Close() error {
	return s.lock.Close()
}

func (s *Store) lockFile() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(s.path), err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking %s: %w", s.path, err)
	}
	return nil
}

// writeFileAtomic writes data using the temp-file, fsync, rename pattern.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".backlog-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
