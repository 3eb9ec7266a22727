package cli

import (
	"fmt"
	"strconv"

	"github.com/mesh-intelligence/backlog/internal/app"
	"github.com/mesh-intelligence/backlog/pkg/types"
)

// openSession opens the configured store, loads it and applies --product.
// The caller must Close the session.
func openSession() (*app.Session, error) {
	cfg, err := storeConfig()
	if err != nil {
		return nil, err
	}
	s, err := app.Open(app.Options{Config: cfg, Logger: settings.logger})
	if err != nil {
		return nil, systemError(err)
	}
	if err := s.Load(); err != nil {
		s.Close()
		return nil, systemError(err)
	}
	if err := s.Do(selectProduct); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// selectProduct applies --product. The core leaves the selection unchanged
// for an unknown name; the CLI reports it instead.
func selectProduct(c *types.Catalog) error {
	if flags.product == "" {
		return nil
	}
	if !c.Has(flags.product) {
		return fmt.Errorf("product %q not found", flags.product)
	}
	return c.Select(flags.product)
}

// view runs fn against the loaded catalog without saving.
func view(fn func(*types.Catalog) error) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Do(fn)
}

// mutate runs fn against the loaded catalog and writes the result back.
// Nothing is written when fn fails.
func mutate(fn func(*types.Catalog) error) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Do(fn); err != nil {
		return err
	}
	return storeError(s.Persist())
}

// requireSelection fails when no product is selected, so that task
// commands report something instead of silently doing nothing.
func requireSelection(c *types.Catalog) (*types.Product, error) {
	p := c.Selected()
	if p == nil {
		return nil, types.ErrNoSelection
	}
	return p, nil
}

// parseTaskID parses a positive task id argument.
func parseTaskID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

func taskNotFound(product string, id int) error {
	return fmt.Errorf("task %d not found in product %q", id, product)
}
