// Package models defines the data structures shared by the grading pipeline.
package models

import (
	"strings"

	"gradeflow/pkg/utils"
)

// Table is an in-memory tabular dataset: a header row followed by data rows.
// Every row is kept at least as wide as the header.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// NewTable creates a table and pads rows that are narrower than the header.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows}
	t.pad()

	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column or -1. Names are
// compared after trimming and collapsing inner whitespace, case-insensitively.
func (t *Table) ColumnIndex(name string) int {
	want := canonicalName(name)
	for i, h := range t.Header {
		if canonicalName(h) == want {
			return i
		}
	}

	return -1
}

// Cell returns the value at row r, column c, or "" when out of range.
func (t *Table) Cell(r, c int) string {
	if r < 0 || r >= len(t.Rows) || c < 0 || c >= len(t.Rows[r]) {
		return ""
	}

	return t.Rows[r][c]
}

// SetCell writes a value; the row must already be wide enough.
func (t *Table) SetCell(r, c int, v string) {
	t.Rows[r][c] = v
}

// EnsureColumn returns the index of the named column, appending it (with
// empty cells in every row) when absent.
func (t *Table) EnsureColumn(name string) int {
	if idx := t.ColumnIndex(name); idx >= 0 {
		return idx
	}

	t.Header = append(t.Header, name)
	t.pad()

	return len(t.Header) - 1
}

// Clone returns a deep copy with every row padded to the header width.
func (t *Table) Clone() *Table {
	header := make([]string, len(t.Header))
	copy(header, t.Header)

	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]string, len(row))
		copy(rows[i], row)
	}

	c := &Table{Header: header, Rows: rows}
	c.pad()

	return c
}

// Head returns a copy limited to the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}

	head := &Table{Header: t.Header, Rows: t.Rows[:n]}

	return head.Clone()
}

func (t *Table) pad() {
	width := len(t.Header)
	for i, row := range t.Rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			t.Rows[i] = padded
		}
	}
}

var names = utils.NewStringHelper()

func canonicalName(s string) string {
	return strings.ToLower(names.NormalizeWhitespace(s))
}
