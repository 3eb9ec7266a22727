package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mesh-intelligence/backlog/internal/logging"
	"github.com/mesh-intelligence/backlog/pkg/types"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable draws rows under headers. On a terminal the table is boxed;
// otherwise it is plain fixed-width columns.
func renderTable(w io.Writer, headers []string, rows [][]string, aligns []columnAlignment) {
	columns := len(headers)
	if columns == 0 {
		return
	}

	tw := table.NewWriter()
	if logging.IsTerminal(w) {
		tw.SetStyle(table.StyleRounded)
	} else {
		style := table.StyleDefault
		style.Options.DrawBorder = false
		style.Options.SeparateColumns = false
		style.Options.SeparateHeader = false
		style.Options.SeparateRows = false
		tw.SetStyle(style)
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	fmt.Fprintln(w, tw.Render())
}

func newJSONEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	return newJSONEncoder(w).Encode(v)
}

// taskRowJSON is the JSON form of a task list row.
type taskRowJSON struct {
	ID    int    `json:"id"`
	State string `json:"state"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

func rowsJSON(rows []types.TaskRow) []taskRowJSON {
	out := make([]taskRowJSON, 0, len(rows))
	for _, r := range rows {
		out = append(out, taskRowJSON{
			ID:    r.ID,
			State: string(r.State),
			Type:  r.Type.LongName(),
			Title: r.Title,
		})
	}
	return out
}

// taskJSON is the JSON form of a single task.
type taskJSON struct {
	ID       int      `json:"id"`
	State    string   `json:"state"`
	Title    string   `json:"title"`
	Type     string   `json:"type"`
	Creator  string   `json:"creator"`
	Owner    string   `json:"owner"`
	Verified bool     `json:"verified"`
	Notes    []string `json:"notes"`
}

func toTaskJSON(t *types.Task) taskJSON {
	return taskJSON{
		ID:       t.ID(),
		State:    string(t.State()),
		Title:    t.Title(),
		Type:     t.Type().LongName(),
		Creator:  t.Creator(),
		Owner:    t.Owner(),
		Verified: t.Verified(),
		Notes:    t.Notes(),
	}
}

// printTask writes the task header fields and notes.
func printTask(w io.Writer, t *types.Task) {
	fmt.Fprintf(w, "Task %d: %s\n", t.ID(), t.Title())
	fmt.Fprintf(w, "  State:    %s\n", t.State())
	fmt.Fprintf(w, "  Type:     %s\n", t.Type().LongName())
	fmt.Fprintf(w, "  Creator:  %s\n", t.Creator())
	fmt.Fprintf(w, "  Owner:    %s\n", t.Owner())
	fmt.Fprintf(w, "  Verified: %t\n", t.Verified())
	fmt.Fprintln(w, "  Notes:")
	for _, n := range t.Notes() {
		fmt.Fprintf(w, "    - %s\n", n)
	}
}
