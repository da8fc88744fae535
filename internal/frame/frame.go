// Package frame provides the table abstraction that queries are resolved
// against: an ordered collection of rows identified by unique integer IDs,
// with typed named columns.
//
// Table is the provider contract used by the engine. Frame is the
// in-memory implementation used by the SQLite store, the loaders and the
// tests.
package frame

import (
	"fmt"
	"slices"
)

// Kind is the entity kind of a population.
type Kind string

const (
	// KindNode is a node population; rows are addressed with node_id.
	KindNode Kind = "node"
	// KindEdge is an edge population; rows are addressed with edge_id.
	KindEdge Kind = "edge"
)

// ParseKind converts a kind name into a Kind.
// An empty string defaults to KindNode.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindNode, "":
		return KindNode, nil
	case KindEdge:
		return KindEdge, nil
	default:
		return "", fmt.Errorf("invalid population kind %q: must be node or edge", s)
	}
}

// Table is a read-only view of one population's rows.
//
// Implementations must be safe for concurrent readers; queries never
// modify a table.
type Table interface {
	// Len returns the number of rows.
	Len() int

	// Column returns the column named name.
	Column(name string) (Column, bool)

	// ColumnNames returns the column names in declaration order.
	ColumnNames() []string

	// Position returns the row position of id, or false when the table has
	// no row with that ID.
	Position(id int64) (int, bool)

	// IDs returns the row IDs in row order.
	IDs() []int64
}

// Frame is an immutable in-memory Table.
type Frame struct {
	ids     []int64
	index   map[int64]int
	names   []string
	columns map[string]Column
}

// NamedColumn pairs a column with its property name.
type NamedColumn struct {
	Name   string
	Column Column
}

// New builds a Frame from row IDs and columns.
//
// Returns error if IDs repeat, a column name repeats or is empty, or a
// column length differs from the number of IDs.
func New(ids []int64, columns ...NamedColumn) (*Frame, error) {
	f := &Frame{
		ids:     slices.Clone(ids),
		index:   make(map[int64]int, len(ids)),
		names:   make([]string, 0, len(columns)),
		columns: make(map[string]Column, len(columns)),
	}

	for pos, id := range ids {
		if prev, dup := f.index[id]; dup {
			return nil, fmt.Errorf("duplicate id %d at rows %d and %d", id, prev, pos)
		}
		f.index[id] = pos
	}

	for _, nc := range columns {
		if nc.Name == "" {
			return nil, fmt.Errorf("column name must not be empty")
		}
		if _, dup := f.columns[nc.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", nc.Name)
		}
		if nc.Column == nil {
			return nil, fmt.Errorf("column %q is nil", nc.Name)
		}
		if nc.Column.Len() != len(ids) {
			return nil, fmt.Errorf("column %q has %d values, want %d", nc.Name, nc.Column.Len(), len(ids))
		}
		if cat, ok := nc.Column.(CategoricalColumn); ok {
			if err := cat.validate(); err != nil {
				return nil, fmt.Errorf("column %q: %w", nc.Name, err)
			}
		}
		f.names = append(f.names, nc.Name)
		f.columns[nc.Name] = nc.Column
	}

	return f, nil
}

// Range builds the ID list [0, n), the default numbering of SONATA
// populations.
func Range(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i)
	}
	return ids
}

// Len implements Table.
func (f *Frame) Len() int { return len(f.ids) }

// Column implements Table.
func (f *Frame) Column(name string) (Column, bool) {
	c, ok := f.columns[name]
	return c, ok
}

// ColumnNames implements Table.
func (f *Frame) ColumnNames() []string { return slices.Clone(f.names) }

// Position implements Table.
func (f *Frame) Position(id int64) (int, bool) {
	pos, ok := f.index[id]
	return pos, ok
}

// IDs implements Table.
func (f *Frame) IDs() []int64 { return slices.Clone(f.ids) }

// Select returns the IDs of the rows set in sel, in row order.
// sel must have one entry per row.
func Select(t Table, sel []bool) ([]int64, error) {
	if len(sel) != t.Len() {
		return nil, fmt.Errorf("selection has %d entries, table has %d rows", len(sel), t.Len())
	}
	ids := t.IDs()
	out := make([]int64, 0)
	for i, ok := range sel {
		if ok {
			out = append(out, ids[i])
		}
	}
	return out, nil
}
