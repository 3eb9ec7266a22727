// Package app wires a catalog to its store and logger. A Session is what the
// CLI talks to: it loads the stored backlog, runs mutations one at a time
// and writes the result back.
package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/mesh-intelligence/backlog/internal/logging"
	"github.com/mesh-intelligence/backlog/internal/paths"
	"github.com/mesh-intelligence/backlog/internal/sqlite"
	"github.com/mesh-intelligence/backlog/internal/textfile"
	"github.com/mesh-intelligence/backlog/pkg/types"
)

// Options configures Open.
type Options struct {
	Config types.Config
	Logger *slog.Logger
}

// Session owns one catalog and the store it is persisted to. All methods
// are safe for concurrent use; mutations are serialized.
type Session struct {
	mu      sync.Mutex
	catalog *types.Catalog
	store   types.Store
	logger  *slog.Logger
}

// Open validates the config and opens the configured backend. The catalog
// starts empty; call Load to read the store.
func Open(opts Options) (*Session, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	store, err := openStore(opts.Config)
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", "backend", opts.Config.Backend, "data_dir", opts.Config.DataDir)

	return NewSession(types.NewCatalog(), store, logger), nil
}

// NewSession assembles a session from parts. A nil logger discards output.
func NewSession(catalog *types.Catalog, store types.Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Session{catalog: catalog, store: store, logger: logger}
}

func openStore(cfg types.Config) (types.Store, error) {
	path, err := paths.StoreFile(cfg.DataDir, cfg.Backend)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	if cfg.Backend == types.BackendSQLite {
		return sqlite.Open(path)
	}
	return textfile.NewStore(path), nil
}

// Store returns the backing store.
func (s *Session) Store() types.Store { return s.store }

// Load replaces the catalog with the stored backlog. A store that has never
// been written leaves the catalog empty.
func (s *Session) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.store.Load()
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("no stored backlog")
		s.catalog.Clear()
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading backlog: %w", err)
	}
	if err := s.catalog.Replace(products); err != nil {
		return fmt.Errorf("loading backlog: %w", err)
	}
	s.logger.Debug("backlog loaded", "products", len(products))
	return nil
}

// Save writes the catalog to the store. An empty catalog is not written and
// returns ErrNothingToSave.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(false)
}

// Persist writes the catalog to the store even when it is empty, so that
// removing the last product sticks.
func (s *Session) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(true)
}

func (s *Session) save(allowEmpty bool) error {
	products := s.catalog.Products()
	if len(products) == 0 && !allowEmpty {
		return types.ErrNothingToSave
	}
	if err := s.store.Save(products); err != nil {
		return fmt.Errorf("saving backlog: %w", err)
	}
	s.logger.Debug("backlog saved", "products", len(products))
	return nil
}

// Do runs fn against the catalog while holding the session lock. fn must
// not retain the catalog.
func (s *Session) Do(fn func(*types.Catalog) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.catalog); err != nil {
		s.logger.Warn("operation failed", "product", s.catalog.SelectedName(), "error", err)
		return err
	}
	return nil
}

// Execute applies a command to a task of the selected product and logs the
// outcome. A missing task is not an error.
func (s *Session) Execute(id int, cmd types.Command) error {
	return s.Do(func(c *types.Catalog) error {
		if err := c.Execute(id, cmd); err != nil {
			return err
		}
		attrs := []any{"product", c.SelectedName(), "task", id, "command", cmd.Kind()}
		if t, ok := c.TaskByID(id); ok {
			attrs = append(attrs, "state", t.State())
		}
		s.logger.Debug("command applied", attrs...)
		return nil
	})
}

// Import replaces the catalog with the products in a backlog text file and
// selects the first one.
func (s *Session) Import(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	products, err := textfile.Parse(f)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.catalog.Replace(products); err != nil {
		return err
	}
	s.logger.Info("backlog imported", "path", path, "products", len(products))
	return nil
}

// Export writes the catalog to path in the backlog text format. An empty
// catalog returns ErrNothingToSave.
func (s *Session) Export(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := s.catalog.Products()
	if len(products) == 0 {
		return types.ErrNothingToSave
	}

	out := textfile.NewStore(path)
	defer out.Close()
	if err := out.Save(products); err != nil {
		return err
	}
	s.logger.Info("backlog exported", "path", path, "products", len(products))
	return nil
}

// Close releases the store. It waits for any running Do to finish.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Close()
}
