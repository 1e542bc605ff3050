// Package table holds the in-memory tabular model shared by the loader, the
// schedule transform and the exporters.
package table

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

// Row is one record, aligned with Table.Columns.
type Row []Value

// Table is an ordered set of named columns and rows.
type Table struct {
	Columns []string
	Rows    []Row
	index   map[string]int
}

// New creates an empty table. Duplicate column names are renamed
// name.1, name.2, ... in order of appearance.
func New(columns []string) *Table {
	t := &Table{Columns: dedupe(columns)}
	t.reindex()
	return t
}

func dedupe(columns []string) []string {
	out := make([]string, len(columns))
	taken := make(map[string]bool, len(columns))
	next := make(map[string]int)
	for i, c := range columns {
		name := c
		for taken[name] {
			next[c]++
			name = c + "." + strconv.Itoa(next[c])
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// Index returns the position of the named column.
func (t *Table) Index(name string) (int, bool) {
	if t.index == nil {
		t.reindex()
	}
	i, ok := t.index[name]
	return i, ok
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Append adds a row. The row must have one value per column.
func (t *Table) Append(r Row) error {
	if len(r) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(r), len(t.Columns))
	}
	t.Rows = append(t.Rows, r)
	return nil
}

// Get returns the value of column name in row r.
func (t *Table) Get(r Row, name string) Value {
	i, ok := t.Index(name)
	if !ok {
		return Null()
	}
	return r[i]
}

// Filter returns a table sharing t's columns with the rows for which keep
// reports true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{Columns: t.Columns, index: t.index}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// SortStable orders rows in place with cmp, keeping the input order of
// equal rows.
func (t *Table) SortStable(cmp func(a, b Row) int) {
	slices.SortStableFunc(t.Rows, cmp)
}

// Reorder returns a table whose columns are first followed by every other
// column in its current order.
func (t *Table) Reorder(first ...string) (*Table, error) {
	perm := make([]int, 0, len(t.Columns))
	used := make(map[int]bool, len(first))
	for _, name := range first {
		i, ok := t.Index(name)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		if used[i] {
			continue
		}
		perm = append(perm, i)
		used[i] = true
	}
	for i := range t.Columns {
		if !used[i] {
			perm = append(perm, i)
		}
	}
	cols := make([]string, len(perm))
	for j, i := range perm {
		cols[j] = t.Columns[i]
	}
	out := &Table{Columns: cols, Rows: make([]Row, len(t.Rows))}
	out.reindex()
	for k, r := range t.Rows {
		nr := make(Row, len(perm))
		for j, i := range perm {
			nr[j] = r[i]
		}
		out.Rows[k] = nr
	}
	return out, nil
}

// DateOnlyColumns reports, per column, whether every date in it falls on
// midnight. Columns without dates report true.
func (t *Table) DateOnlyColumns() []bool {
	out := make([]bool, len(t.Columns))
	for i := range out {
		out[i] = true
	}
	for _, r := range t.Rows {
		for i, v := range r {
			if ts, ok := v.Time(); ok && !ts.Equal(ts.Truncate(24*time.Hour)) {
				out[i] = false
			}
		}
	}
	return out
}
