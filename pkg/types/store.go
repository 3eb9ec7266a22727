package types

// Store persists the full ordered product set. Load and Save always work on
// every product at once; there is no per-task storage API.
type Store interface {
	// Load returns the stored products in catalog order. A store that has
	// never been saved returns an error wrapping fs.ErrNotExist.
	Load() ([]*Product, error)

	// Save replaces the stored products with the given set.
	Save(products []*Product) error

	// Close releases backend resources. Idempotent.
	Close() error
}
