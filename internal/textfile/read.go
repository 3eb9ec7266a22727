// Package textfile reads and writes the backlog text format and provides a
// file-backed types.Store.
//
// The format is line oriented:
//
//	# <product name>
//	* id,state,title,type,creator,owner,verified
//	- [State] note
//	continuation of the previous note
//
// A product section that contains any malformed line is dropped, as is a
// task that has no notes. A product that ends up with no tasks is dropped
// too unless the caller asks for KeepEmptyProducts.
package textfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/backlog/pkg/types"
)

// Line markers.
const (
	productMarker = '#'
	taskMarker    = '*'
	noteMarker    = '-'
)

// taskFieldCount is the number of comma-separated fields on a task line.
const taskFieldCount = 7

// section is a product being parsed.
type section struct {
	product *types.Product
	bad     bool
}

type parser struct {
	products  []*types.Product
	seen      map[string]bool
	keepEmpty bool

	cur      *section
	task     *types.TaskRecord
	lastNote bool // previous non-blank line was a note or continuation
}

// Option adjusts Parse.
type Option func(*parser)

// KeepEmptyProducts keeps well-formed product sections that hold no tasks.
// Store.Load uses it so that a product survives a reload before its first
// task is added.
func KeepEmptyProducts() Option {
	return func(p *parser) { p.keepEmpty = true }
}

// Parse reads products from r. Malformed content never fails the call; it
// only causes products or tasks to be dropped. The returned error reports
// read failures from r.
func Parse(r io.Reader, opts ...Option) ([]*types.Product, error) {
	p := &parser{seen: make(map[string]bool)}
	for _, opt := range opts {
		opt(p)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.line(strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning backlog: %w", err)
	}

	p.finishSection()
	return p.products, nil
}

func (p *parser) line(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}

	switch line[0] {
	case productMarker:
		p.finishSection()
		p.startSection(strings.TrimSpace(line[1:]))
		p.lastNote = false
	case taskMarker:
		p.finishTask()
		p.startTask(strings.TrimSpace(line[1:]))
		p.lastNote = false
	case noteMarker:
		if p.task == nil {
			p.markBad()
			return
		}
		p.task.Notes = append(p.task.Notes, strings.TrimPrefix(line[1:], " "))
		p.lastNote = true
	default:
		if !p.lastNote || p.task == nil {
			p.markBad()
			return
		}
		last := len(p.task.Notes) - 1
		p.task.Notes[last] += "\n" + line
	}
}

// markBad flags the current product section. Lines outside any section are
// ignored.
func (p *parser) markBad() {
	if p.cur != nil {
		p.cur.bad = true
	}
}

func (p *parser) startSection(name string) {
	sec := &section{}
	product, err := types.NewProduct(name)
	if err != nil || p.seen[name] {
		sec.bad = true
	} else {
		sec.product = product
		p.seen[name] = true
	}
	p.cur = sec
}

func (p *parser) finishSection() {
	p.finishTask()
	if p.cur != nil && !p.cur.bad && (p.keepEmpty || p.cur.product.Len() > 0) {
		p.products = append(p.products, p.cur.product)
	}
	p.cur = nil
}

func (p *parser) startTask(fields string) {
	if p.cur == nil {
		return
	}
	rec, err := parseTaskFields(fields)
	if err != nil {
		p.cur.bad = true
		return
	}
	p.task = &rec
}

// finishTask builds the pending task and inserts it into the current
// product. A task without notes is dropped. A task whose id repeats an
// earlier one is skipped and the product kept.
func (p *parser) finishTask() {
	rec := p.task
	p.task = nil
	if rec == nil || p.cur == nil || p.cur.bad || len(rec.Notes) == 0 {
		return
	}
	task, err := types.RestoreTask(*rec)
	if err != nil {
		p.cur.bad = true
		return
	}
	if err := p.cur.product.InsertTask(task); err != nil && !errors.Is(err, types.ErrDuplicateTask) {
		p.cur.bad = true
	}
}

// parseTaskFields splits "id,state,title,type,creator,owner,verified".
func parseTaskFields(s string) (types.TaskRecord, error) {
	parts := strings.Split(s, ",")
	if len(parts) != taskFieldCount {
		return types.TaskRecord{}, fmt.Errorf("%w: expected %d fields, got %d", types.ErrInvalidTask, taskFieldCount, len(parts))
	}

	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return types.TaskRecord{}, fmt.Errorf("%w: id %q", types.ErrInvalidTask, parts[0])
	}
	state, err := types.ParseState(parts[1])
	if err != nil {
		return types.TaskRecord{}, err
	}
	taskType, err := types.ParseTaskType(parts[3])
	if err != nil {
		return types.TaskRecord{}, err
	}
	verified, err := parseVerified(parts[6])
	if err != nil {
		return types.TaskRecord{}, err
	}

	return types.TaskRecord{
		ID:       id,
		State:    state,
		Title:    parts[2],
		Type:     taskType,
		Creator:  parts[4],
		Owner:    parts[5],
		Verified: verified,
	}, nil
}

// parseVerified accepts "true" or "false" in any case.
func parseVerified(s string) (bool, error) {
	switch {
	case strings.EqualFold(s, "true"):
		return true, nil
	case strings.EqualFold(s, "false"):
		return false, nil
	default:
		return false, fmt.Errorf("%w: verified %q", types.ErrInvalidTask, s)
	}
}
