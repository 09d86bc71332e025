// Package format renders capabilities, history, records and runs as terminal
// or Markdown tables.
package format

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // box-drawing terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ParseMode maps "ascii" / "markdown" (or "md") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ascii", "text":
		return ASCII, nil
	case "markdown", "md":
		return Markdown, nil
	}
	return ASCII, fmt.Errorf("unknown table format %q", s)
}

// Table is a thin builder over go-pretty's table writer.
type Table struct {
	writer table.Writer
	mode   Mode
}

// NewTable returns an empty table that renders in mode m.
func NewTable(m Mode) *Table {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return &Table{writer: w, mode: m}
}

func (t *Table) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	t.writer.AppendHeader(row)
}

func (t *Table) Row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendRow(row)
}

// Wrap caps the width of the 1-based column number; longer cells wrap.
func (t *Table) Wrap(number, width int) {
	t.writer.SetColumnConfigs([]table.ColumnConfig{{
		Number:           number,
		WidthMax:         width,
		WidthMaxEnforcer: text.WrapSoft,
	}})
}

func (t *Table) String() string {
	if t.mode == Markdown {
		return t.writer.RenderMarkdown()
	}
	return t.writer.Render()
}

// Truncate shortens s to max runes, appending "..." when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// BoolMark returns "✓" for true and "" for false.
func BoolMark(v bool) string {
	if v {
		return "✓"
	}
	return ""
}
