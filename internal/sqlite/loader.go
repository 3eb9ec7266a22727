package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/backlog/pkg/types"
)

// storedProduct gathers the rows of one product before validation.
type storedProduct struct {
	name  string
	tasks []*types.TaskRecord
	byID  map[int]*types.TaskRecord
	bad   bool
}

// loader reads the three catalog tables and assembles products from them.
type loader struct {
	products  []*storedProduct
	byOrdinal map[int]*storedProduct
}

func (l *loader) readProducts(db *sql.DB) error {
	rows, err := db.Query(`SELECT ordinal, name FROM products ORDER BY ordinal`)
	if err != nil {
		return fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	l.byOrdinal = make(map[int]*storedProduct)
	for rows.Next() {
		var ordinal int
		sp := &storedProduct{byID: make(map[int]*types.TaskRecord)}
		if err := rows.Scan(&ordinal, &sp.name); err != nil {
			return fmt.Errorf("scanning product: %w", err)
		}
		l.products = append(l.products, sp)
		l.byOrdinal[ordinal] = sp
	}
	return rows.Err()
}

func (l *loader) readTasks(db *sql.DB) error {
	rows, err := db.Query(`SELECT product, task_id, state, title, type, creator, owner, verified
		FROM tasks ORDER BY product, task_id`)
	if err != nil {
		return fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ordinal         int
			state, taskType string
			rec             types.TaskRecord
		)
		if err := rows.Scan(&ordinal, &rec.ID, &state, &rec.Title, &taskType, &rec.Creator, &rec.Owner, &rec.Verified); err != nil {
			return fmt.Errorf("scanning task: %w", err)
		}
		sp, ok := l.byOrdinal[ordinal]
		if !ok {
			continue
		}
		rec.State = types.State(state)
		rec.Type = types.TaskType(taskType)
		sp.tasks = append(sp.tasks, &rec)
		sp.byID[rec.ID] = &rec
	}
	return rows.Err()
}

func (l *loader) readNotes(db *sql.DB) error {
	rows, err := db.Query(`SELECT product, task_id, text FROM notes ORDER BY product, task_id, seq`)
	if err != nil {
		return fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ordinal, taskID int
			text            string
		)
		if err := rows.Scan(&ordinal, &taskID, &text); err != nil {
			return fmt.Errorf("scanning note: %w", err)
		}
		sp, ok := l.byOrdinal[ordinal]
		if !ok {
			continue
		}
		rec, ok := sp.byID[taskID]
		if !ok {
			sp.bad = true
			continue
		}
		rec.Notes = append(rec.Notes, text)
	}
	return rows.Err()
}

// build validates every row through the types constructors. A product with
// any invalid task is dropped; products without tasks are kept.
func (l *loader) build() []*types.Product {
	var out []*types.Product
	for _, sp := range l.products {
		if sp.bad {
			continue
		}
		p, err := types.NewProduct(sp.name)
		if err != nil {
			continue
		}
		if err := restoreTasks(p, sp.tasks); err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

func restoreTasks(p *types.Product, recs []*types.TaskRecord) error {
	for _, rec := range recs {
		t, err := types.RestoreTask(*rec)
		if err != nil {
			return err
		}
		if err := p.InsertTask(t); err != nil {
			return err
		}
	}
	return nil
}
