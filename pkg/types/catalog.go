package types

import (
	"fmt"
	"slices"
	"strconv"
)

// Catalog owns every Product of a session and tracks which one is
// selected. Task operations always target the selected product; with no
// selection they do nothing. A Catalog is not safe for concurrent use.
type Catalog struct {
	products []*Product
	selected *Product
}

// NewCatalog returns an empty catalog with nothing selected.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// TaskRow is one line of a product's task listing.
type TaskRow struct {
	ID    int
	State State
	Type  TaskType
	Title string
}

// Fields returns the row as display strings: id, state, type long name, title.
func (r TaskRow) Fields() []string {
	return []string{strconv.Itoa(r.ID), string(r.State), r.Type.LongName(), r.Title}
}

func (c *Catalog) indexOf(name string) int {
	return slices.IndexFunc(c.products, func(p *Product) bool { return p.name == name })
}

// AddProduct creates an empty product and selects it. Names are compared
// exactly.
func (c *Catalog) AddProduct(name string) error {
	if c.indexOf(name) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateProduct, name)
	}
	p, err := NewProduct(name)
	if err != nil {
		return err
	}
	c.products = append(c.products, p)
	c.selected = p
	return nil
}

// Select makes the named product current. It fails only when the catalog
// is empty; a name that matches nothing leaves the selection unchanged.
func (c *Catalog) Select(name string) error {
	if len(c.products) == 0 {
		return ErrNoProducts
	}
	if i := c.indexOf(name); i >= 0 {
		c.selected = c.products[i]
	}
	return nil
}

// Rename changes the selected product's name. The new name is checked
// against every product, the selected one included, so renaming a product
// to its current name fails as a duplicate.
func (c *Catalog) Rename(newName string) error {
	if c.indexOf(newName) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateProduct, newName)
	}
	if c.selected == nil {
		return ErrNoSelection
	}
	return c.selected.SetName(newName)
}

// RemoveSelected deletes the selected product and selects the first
// remaining one, or nothing when the catalog becomes empty.
func (c *Catalog) RemoveSelected() error {
	if c.selected == nil {
		return ErrNoSelection
	}
	c.products = slices.DeleteFunc(c.products, func(p *Product) bool { return p == c.selected })
	c.selected = nil
	if len(c.products) > 0 {
		c.selected = c.products[0]
	}
	return nil
}

// Clear discards every product and the selection.
func (c *Catalog) Clear() {
	c.products = nil
	c.selected = nil
}

// Replace swaps in a whole product set, as loaded from storage, and selects
// the first product. Names must be non-empty and unique; on error the
// catalog is unchanged.
func (c *Catalog) Replace(products []*Product) error {
	seen := make(map[string]bool, len(products))
	for _, p := range products {
		if p == nil || p.name == "" {
			return ErrInvalidProductName
		}
		if seen[p.name] {
			return fmt.Errorf("%w: %q", ErrDuplicateProduct, p.name)
		}
		seen[p.name] = true
	}
	c.products = slices.Clone(products)
	c.selected = nil
	if len(c.products) > 0 {
		c.selected = c.products[0]
	}
	return nil
}

// Products returns every product in catalog order.
func (c *Catalog) Products() []*Product { return slices.Clone(c.products) }

// ProductNames returns product names in catalog order.
func (c *Catalog) ProductNames() []string {
	names := make([]string, len(c.products))
	for i, p := range c.products {
		names[i] = p.name
	}
	return names
}

// Has reports whether a product with exactly this name exists.
func (c *Catalog) Has(name string) bool { return c.indexOf(name) >= 0 }

// Selected returns the selected product, or nil.
func (c *Catalog) Selected() *Product { return c.selected }

// SelectedName returns the selected product's name, or "".
func (c *Catalog) SelectedName() string {
	if c.selected == nil {
		return ""
	}
	return c.selected.name
}

// AddTask adds a task to the selected product. With nothing selected it
// returns (nil, nil).
func (c *Catalog) AddTask(title string, taskType TaskType, creator, note string) (*Task, error) {
	if c.selected == nil {
		return nil, nil
	}
	return c.selected.AddTask(title, taskType, creator, note)
}

// Execute applies cmd to a task of the selected product.
func (c *Catalog) Execute(id int, cmd Command) error {
	if c.selected == nil {
		return nil
	}
	return c.selected.Execute(id, cmd)
}

// RemoveTask deletes a task from the selected product.
func (c *Catalog) RemoveTask(id int) {
	if c.selected != nil {
		c.selected.RemoveTask(id)
	}
}

// TaskByID looks up a task in the selected product.
func (c *Catalog) TaskByID(id int) (*Task, bool) {
	if c.selected == nil {
		return nil, false
	}
	return c.selected.TaskByID(id)
}

// TaskRows lists the selected product's tasks in ascending id order.
func (c *Catalog) TaskRows() []TaskRow {
	if c.selected == nil {
		return nil
	}
	rows := make([]TaskRow, 0, len(c.selected.tasks))
	for _, t := range c.selected.tasks {
		rows = append(rows, TaskRow{ID: t.id, State: t.state, Type: t.taskType, Title: t.title})
	}
	return rows
}
