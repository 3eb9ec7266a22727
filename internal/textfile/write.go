package textfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mesh-intelligence/backlog/pkg/types"
)

// ErrUnencodable is returned by Write when a value would not read back
// unchanged: a task field holding a comma or line break, a product name
// with a line break or surrounding spaces, or a note line that the reader
// would take for something else.
var ErrUnencodable = errors.New("value cannot be represented in the backlog format")

// Write encodes products in catalog order, tasks in ascending id order.
// Nothing is written if any value is unencodable.
func Write(w io.Writer, products []*types.Product) error {
	if err := checkEncodable(products); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	for _, p := range products {
		if _, err := fmt.Fprintf(bw, "%c %s\n", productMarker, p.Name()); err != nil {
			return err
		}
		for _, t := range p.Tasks() {
			if _, err := fmt.Fprintf(bw, "%c %s\n", taskMarker, t.String()); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func checkEncodable(products []*types.Product) error {
	for _, p := range products {
		name := p.Name()
		if strings.ContainsAny(name, "\r\n") || strings.TrimSpace(name) != name {
			return fmt.Errorf("%w: product name %q", ErrUnencodable, name)
		}
		for _, t := range p.Tasks() {
			for _, field := range []string{t.Title(), t.Creator(), t.Owner()} {
				if strings.ContainsAny(field, ",\r\n") {
					return fmt.Errorf("%w: task %d field %q", ErrUnencodable, t.ID(), field)
				}
			}
			for _, note := range t.Notes() {
				if !noteEncodable(note) {
					return fmt.Errorf("%w: task %d note %q", ErrUnencodable, t.ID(), note)
				}
			}
		}
	}
	return nil
}

// noteEncodable reports whether the reader would rebuild note exactly:
// every line after the first is a non-blank continuation that does not
// start with a marker. The first line follows "- " verbatim.
func noteEncodable(note string) bool {
	if strings.Contains(note, "\r") {
		return false
	}
	lines := strings.Split(note, "\n")
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) == "" {
			return false
		}
		switch l[0] {
		case productMarker, taskMarker, noteMarker:
			return false
		}
	}
	return true
}
