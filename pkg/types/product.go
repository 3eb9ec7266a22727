package types

import (
	"cmp"
	"fmt"
	"slices"
)

// Product is a named collection of tasks kept in ascending id order.
type Product struct {
	name    string
	tasks   []*Task
	counter int // next id handed out by AddTask
}

// NewProduct returns an empty product. The name must not be empty.
func NewProduct(name string) (*Product, error) {
	p := &Product{counter: 1}
	if err := p.SetName(name); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the product name.
func (p *Product) Name() string { return p.name }

// SetName renames the product. Uniqueness across a catalog is the
// catalog's concern.
func (p *Product) SetName(name string) error {
	if name == "" {
		return ErrInvalidProductName
	}
	p.name = name
	return nil
}

// NextID returns the id the next AddTask call will assign.
func (p *Product) NextID() int { return p.counter }

// Len returns the number of tasks.
func (p *Product) Len() int { return len(p.tasks) }

// Tasks returns the tasks in ascending id order. The slice is a copy; the
// tasks are shared.
func (p *Product) Tasks() []*Task { return slices.Clone(p.tasks) }

// AddTask creates a Backlog task with the next id and appends it.
func (p *Product) AddTask(title string, taskType TaskType, creator, note string) (*Task, error) {
	t, err := NewTask(p.counter, title, taskType, creator, note)
	if err != nil {
		return nil, err
	}
	// counter is always above every existing id, so appending keeps order.
	p.tasks = append(p.tasks, t)
	p.counter++
	return t, nil
}

// InsertTask adds an already-built task, keeping ascending id order. It
// fails if a task with the same id exists. The id counter becomes
// max(counter, id+1).
func (p *Product) InsertTask(t *Task) error {
	if t == nil {
		return ErrInvalidTask
	}
	i, found := p.search(t.id)
	if found {
		return fmt.Errorf("%w: %d", ErrDuplicateTask, t.id)
	}
	p.tasks = slices.Insert(p.tasks, i, t)
	p.counter = max(p.counter, t.id+1)
	return nil
}

// TaskByID returns the task with the given id.
func (p *Product) TaskByID(id int) (*Task, bool) {
	i, found := p.search(id)
	if !found {
		return nil, false
	}
	return p.tasks[i], true
}

// RemoveTask deletes the task with the given id. Unknown ids are ignored.
func (p *Product) RemoveTask(id int) {
	if i, found := p.search(id); found {
		p.tasks = slices.Delete(p.tasks, i, i+1)
	}
}

// Execute applies c to the task with the given id. A missing task is a
// no-op, not an error.
func (p *Product) Execute(id int, c Command) error {
	t, ok := p.TaskByID(id)
	if !ok {
		return nil
	}
	return t.Apply(c)
}

func (p *Product) search(id int) (int, bool) {
	return slices.BinarySearchFunc(p.tasks, id, func(t *Task, id int) int {
		return cmp.Compare(t.id, id)
	})
}
