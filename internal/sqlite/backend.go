// Package sqlite implements a types.Store that keeps the backlog in a
// SQLite database. Every Save replaces the stored catalog inside one
// transaction and appends a row to the save history.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/backlog/pkg/types"
)

// ErrClosed is returned by operations on a closed Backend.
var ErrClosed = errors.New("sqlite backend is closed")

// Compile-time interface check.
var _ types.Store = (*Backend)(nil)

// Backend stores the catalog in SQLite.
type Backend struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// SaveRecord describes one completed Save.
type SaveRecord struct {
	ID       string
	SavedAt  time.Time
	Products int
	Tasks    int
}

// Open opens the database at path, creating it and its directory if needed,
// and applies the schema.
func Open(path string) (*Backend, error) {
	if path == "" {
		return nil, types.ErrDataDirEmpty
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// One connection keeps the foreign_keys pragma in effect for every query.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
	}

	return &Backend{db: db, path: path}, nil
}

// Path returns the database file path.
func (b *Backend) Path() string { return b.path }

// Close releases the database. Idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// Save replaces the stored catalog with products and records the save.
func (b *Backend) Save(products []*types.Product) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return ErrClosed
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM notes", "DELETE FROM tasks", "DELETE FROM products"} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("clearing catalog: %w", err)
		}
	}

	taskCount := 0
	for ordinal, p := range products {
		if _, err := tx.Exec(`INSERT INTO products (ordinal, name) VALUES (?, ?)`, ordinal, p.Name()); err != nil {
			return fmt.Errorf("inserting product %q: %w", p.Name(), err)
		}
		for _, t := range p.Tasks() {
			if err := insertTask(tx, ordinal, t); err != nil {
				return fmt.Errorf("inserting task %d of %q: %w", t.ID(), p.Name(), err)
			}
			taskCount++
		}
	}

	_, err = tx.Exec(
		`INSERT INTO saves (save_id, saved_at, products, tasks) VALUES (?, ?, ?, ?)`,
		generateUUID(), time.Now().UTC().Format(time.RFC3339Nano), len(products), taskCount,
	)
	if err != nil {
		return fmt.Errorf("recording save: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func insertTask(tx *sql.Tx, product int, t *types.Task) error {
	_, err := tx.Exec(
		`INSERT INTO tasks (product, task_id, state, title, type, creator, owner, verified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		product, t.ID(), string(t.State()), t.Title(), t.Type().ShortName(), t.Creator(), t.Owner(), t.Verified(),
	)
	if err != nil {
		return err
	}
	for seq, note := range t.Notes() {
		if _, err := tx.Exec(
			`INSERT INTO notes (product, task_id, seq, text) VALUES (?, ?, ?, ?)`,
			product, t.ID(), seq, note,
		); err != nil {
			return err
		}
	}
	return nil
}

// Load rebuilds the stored catalog. Every task goes back through
// types.RestoreTask; a product holding a row that fails validation is
// dropped. A database that has never been saved returns an error wrapping
// fs.ErrNotExist.
func (b *Backend) Load() ([]*types.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil, ErrClosed
	}

	var saves int
	if err := b.db.QueryRow(`SELECT COUNT(*) FROM saves`).Scan(&saves); err != nil {
		return nil, fmt.Errorf("counting saves: %w", err)
	}
	if saves == 0 {
		return nil, fmt.Errorf("%s has no saved backlog: %w", b.path, fs.ErrNotExist)
	}

	l := &loader{}
	if err := l.readProducts(b.db); err != nil {
		return nil, err
	}
	if err := l.readTasks(b.db); err != nil {
		return nil, err
	}
	if err := l.readNotes(b.db); err != nil {
		return nil, err
	}
	return l.build(), nil
}

// LastSave returns the most recent save. ok is false when nothing has been
// saved yet.
func (b *Backend) LastSave() (rec SaveRecord, ok bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return SaveRecord{}, false, ErrClosed
	}

	var savedAt string
	err = b.db.QueryRow(
		`SELECT save_id, saved_at, products, tasks FROM saves ORDER BY rowid DESC LIMIT 1`,
	).Scan(&rec.ID, &savedAt, &rec.Products, &rec.Tasks)
	if errors.Is(err, sql.ErrNoRows) {
		return SaveRecord{}, false, nil
	}
	if err != nil {
		return SaveRecord{}, false, fmt.Errorf("reading last save: %w", err)
	}
	rec.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return SaveRecord{}, false, fmt.Errorf("parsing saved_at %q: %w", savedAt, err)
	}
	return rec, true, nil
}

// generateUUID generates a new UUID v7 for save ids.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
