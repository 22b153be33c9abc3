// Package table holds the immutable column-store every pipeline stage reads
// and produces. Stages never modify a Table; they build a new one, sharing
// untouched columns with the input.
package table

import (
	"errors"
	"fmt"
)

var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrLengthMismatch  = errors.New("column length mismatch")
)

// Table is an ordered set of equal-length columns. Row order is temporal
// order and is preserved by every operation.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New builds a table from columns; names must be unique and lengths equal
func New(cols ...*Column) (*Table, error) {
	t := &Table{
		cols:  make([]*Column, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrLengthMismatch, c.Name(), c.Len(), t.rows)
		}
		if _, dup := t.index[c.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name())
		}
		t.index[c.Name()] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// Rows returns the number of rows
func (t *Table) Rows() int { return t.rows }

// Width returns the number of columns
func (t *Table) Width() int { return len(t.cols) }

// Names returns column names in table order
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name()
	}
	return names
}

// Columns returns the columns in table order
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.cols...)
}

// Column looks up a column by name
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Has reports whether the table has a column called name
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// NamesOfKind returns the names of columns with the given kind, in table order
func (t *Table) NamesOfKind(kind Kind) []string {
	var names []string
	for _, c := range t.cols {
		if c.Kind() == kind {
			names = append(names, c.Name())
		}
	}
	return names
}

// WithColumns returns a table where each given column replaces the existing
// column of the same name (keeping its position) or is appended.
func (t *Table) WithColumns(cols ...*Column) (*Table, error) {
	out := make([]*Column, len(t.cols), len(t.cols)+len(cols))
	copy(out, t.cols)
	index := make(map[string]int, len(t.index)+len(cols))
	for k, v := range t.index {
		index[k] = v
	}
	for _, c := range cols {
		if len(out) > 0 && c.Len() != t.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrLengthMismatch, c.Name(), c.Len(), t.rows)
		}
		if i, ok := index[c.Name()]; ok {
			out[i] = c
			continue
		}
		index[c.Name()] = len(out)
		out = append(out, c)
	}
	return New(out...)
}

// Without returns a table lacking the named columns; unknown names are ignored
func (t *Table) Without(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := make([]*Column, 0, len(t.cols))
	for _, c := range t.cols {
		if !drop[c.Name()] {
			kept = append(kept, c)
		}
	}
	out, _ := New(kept...)
	if len(kept) == 0 {
		out.rows = t.rows
	}
	return out
}

// Project returns a table holding exactly the named columns in the given order
func (t *Table) Project(names []string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, n)
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// Take returns a table holding the given rows, in the given order
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.take(rows)
	}
	out, _ := New(cols...)
	out.rows = len(rows)
	return out
}

// Filter keeps the rows for which keep returns true
func (t *Table) Filter(keep func(row int) bool) *Table {
	rows := make([]int, 0, t.rows)
	for r := 0; r < t.rows; r++ {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	if len(rows) == t.rows {
		return t
	}
	return t.Take(rows)
}

// RowComplete reports whether row r has a value in every column
func (t *Table) RowComplete(r int) bool {
	for _, c := range t.cols {
		if c.IsMissing(r) {
			return false
		}
	}
	return true
}

// DropIncomplete removes every row with a missing cell
func (t *Table) DropIncomplete() *Table {
	return t.Filter(t.RowComplete)
}

// MissingCells counts missing cells across the table
func (t *Table) MissingCells() int {
	n := 0
	for _, c := range t.cols {
		n += c.MissingCount()
	}
	return n
}
