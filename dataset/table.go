// Package dataset provides the named-column table the transformer framework
// operates on, and loaders that build tables from CSV files.
package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/salijona/C-AdvDGM/pkg/errors"
)

// Kind is the storage type of a column.
type Kind int

// Column storage kinds.
const (
	Float Kind = iota
	String
)

// Column is a single named column. Exactly one of Floats/Strings is set,
// according to Kind.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
}

// FloatColumn builds a float column.
func FloatColumn(name string, values []float64) Column {
	return Column{Name: name, Kind: Float, Floats: values}
}

// StringColumn builds a string column.
func StringColumn(name string, values []string) Column {
	return Column{Name: name, Kind: String, Strings: values}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == Float {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Float {
		out.Floats = append([]float64(nil), c.Floats...)
	} else {
		out.Strings = append([]string(nil), c.Strings...)
	}
	return out
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	rows  int
	cols  []Column
	index map[string]int
}

// NewTable builds a table from columns, validating equal lengths and unique
// names. A table with zero columns has zero rows; use NewEmptyTable to carry
// a row count without columns.
func NewTable(cols ...Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	if len(cols) > 0 {
		t.rows = cols[0].Len()
	}
	if err := t.Append(cols...); err != nil {
		return nil, err
	}
	return t, nil
}

// NewEmptyTable builds a table with a row count but no columns yet.
func NewEmptyTable(rows int) *Table {
	return &Table{rows: rows, index: make(map[string]int)}
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.cols) }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether a column with the given name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, errors.NewMissingColumnsError("Table.Column", []string{name})
	}
	return &t.cols[i], nil
}

// Append adds columns, rejecting length mismatches and name collisions.
func (t *Table) Append(cols ...Column) error {
	for _, c := range cols {
		if t.Has(c.Name) {
			return errors.NewValueError("Table.Append", "column '"+c.Name+"' already exists")
		}
		if len(t.cols) == 0 && t.rows == 0 {
			t.rows = c.Len()
		}
		if c.Len() != t.rows {
			return errors.NewDimensionError("Table.Append", t.rows, c.Len(), 0)
		}
		t.index[c.Name] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return nil
}

// Select returns a new table holding deep copies of the named columns, in
// the order given.
func (t *Table) Select(names ...string) (*Table, error) {
	var missing []string
	for _, n := range names {
		if !t.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewMissingColumnsError("Table.Select", missing)
	}

	out := NewEmptyTable(t.rows)
	for _, n := range names {
		c, _ := t.Column(n)
		if err := out.Append(c.Clone()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Drop returns a new table without the named columns. Unknown names are
// ignored, matching the forgiving semantics of reverse transforms.
func (t *Table) Drop(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	out := NewEmptyTable(t.rows)
	for _, c := range t.cols {
		if drop[c.Name] {
			continue
		}
		// Append cannot fail here: lengths match and names were unique.
		_ = out.Append(c.Clone())
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	return t.Drop()
}

// Reorder returns a new table with columns in the given order. Every column
// in names must exist; columns not named are omitted.
func (t *Table) Reorder(names ...string) (*Table, error) {
	return t.Select(names...)
}

// Matrix converts the table into a dense float matrix. All columns must be
// numeric.
func (t *Table) Matrix() (*mat.Dense, error) {
	if t.rows == 0 || len(t.cols) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Table.Matrix")
	}
	for _, c := range t.cols {
		if c.Kind != Float {
			return nil, errors.NewValueError("Table.Matrix", "column '"+c.Name+"' is not numeric")
		}
	}

	m := mat.NewDense(t.rows, len(t.cols), nil)
	for j, c := range t.cols {
		for i, v := range c.Floats {
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// FromMatrix builds a table of float columns from a matrix and column names.
func FromMatrix(names []string, m mat.Matrix) (*Table, error) {
	r, c := m.Dims()
	if len(names) != c {
		return nil, errors.NewDimensionError("dataset.FromMatrix", c, len(names), 1)
	}

	cols := make([]Column, c)
	for j := 0; j < c; j++ {
		vals := make([]float64, r)
		for i := 0; i < r; i++ {
			vals[i] = m.At(i, j)
		}
		cols[j] = FloatColumn(names[j], vals)
	}
	return NewTable(cols...)
}
