// Package mask implements the row-selection algebra used by query
// resolution.
//
// A Mask is one of three shapes:
//
//	All        every row is selected (universal true)
//	None       no row is selected (universal false)
//	Rows(v)    dense per-row selection aligned with table order
//
// The two universal shapes exist so that branches known to match
// everything or nothing never materialize a row-count sized vector. And
// and Or short-circuit on them.
package mask

import "fmt"

// Kind identifies the shape of a Mask.
type Kind uint8

const (
	// KindNone selects no rows. It is the zero Kind so that the zero Mask
	// selects nothing.
	KindNone Kind = iota
	// KindAll selects every row.
	KindAll
	// KindRows selects the rows set in a dense boolean vector.
	KindRows
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAll:
		return "all"
	case KindRows:
		return "rows"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Mask is the selection result of a query node.
//
// Masks are values. Operations never mutate the vector of an input mask,
// and Rows copies its argument, so a Mask can be shared freely.
type Mask struct {
	kind Kind
	rows []bool
}

// All returns the universal-true mask.
func All() Mask { return Mask{kind: KindAll} }

// None returns the universal-false mask.
func None() Mask { return Mask{kind: KindNone} }

// Rows returns a vector mask over a copy of v.
func Rows(v []bool) Mask {
	return Mask{kind: KindRows, rows: append([]bool(nil), v...)}
}

// Of returns a vector mask that takes ownership of v. The caller must not
// modify v afterwards.
func Of(v []bool) Mask {
	return Mask{kind: KindRows, rows: v}
}

// Bool returns All for true and None for false.
func Bool(b bool) Mask {
	if b {
		return All()
	}
	return None()
}

// Kind reports the shape of m.
func (m Mask) Kind() Kind { return m.kind }

// IsAll reports whether m is the universal-true scalar.
func (m Mask) IsAll() bool { return m.kind == KindAll }

// IsNone reports whether m is the universal-false scalar.
func (m Mask) IsNone() bool { return m.kind == KindNone }

// Values returns the vector of a Rows mask and nil for the universal
// scalars. The slice must be treated as read-only.
func (m Mask) Values() []bool {
	if m.kind != KindRows {
		return nil
	}
	return m.rows
}

// Len returns the vector length, or -1 for the universal scalars.
func (m Mask) Len() int {
	if m.kind != KindRows {
		return -1
	}
	return len(m.rows)
}

// Any reports whether m selects at least one row. All is considered to
// select rows even when applied to an empty table.
func (m Mask) Any() bool {
	switch m.kind {
	case KindAll:
		return true
	case KindRows:
		for _, b := range m.rows {
			if b {
				return true
			}
		}
	}
	return false
}

// Empty reports whether m selects nothing, either as None or as a vector
// with every row false.
func (m Mask) Empty() bool {
	return !m.Any()
}

// Count returns the number of selected rows for a table of n rows.
func (m Mask) Count(n int) int {
	switch m.kind {
	case KindAll:
		return n
	case KindRows:
		c := 0
		for _, b := range m.rows {
			if b {
				c++
			}
		}
		return c
	default:
		return 0
	}
}

// Broadcast materializes m as a boolean vector of length n.
// Universal scalars expand to n copies; a vector mask is copied and must
// already have length n.
func (m Mask) Broadcast(n int) ([]bool, error) {
	out := make([]bool, n)
	switch m.kind {
	case KindAll:
		for i := range out {
			out[i] = true
		}
	case KindRows:
		if len(m.rows) != n {
			return nil, fmt.Errorf("mask length %d does not match %d rows", len(m.rows), n)
		}
		copy(out, m.rows)
	}
	return out, nil
}

// String renders m for diagnostics.
func (m Mask) String() string {
	if m.kind != KindRows {
		return m.kind.String()
	}
	return fmt.Sprintf("rows(%d/%d)", m.Count(len(m.rows)), len(m.rows))
}

// And returns the logical conjunction of masks.
//
// And of no masks is All (the identity), like all([]). The first None
// short-circuits: later vectors are neither inspected nor reduced. All is
// dropped. The remaining vectors are combined elementwise and must share
// the same length.
func And(masks ...Mask) (Mask, error) {
	var vectors [][]bool
	for _, m := range masks {
		switch m.kind {
		case KindNone:
			return None(), nil
		case KindAll:
			continue
		default:
			vectors = append(vectors, m.rows)
		}
	}
	return reduce(vectors, All(), func(a, b bool) bool { return a && b })
}

// Or returns the logical disjunction of masks.
//
// Or of no masks is None (the identity), like any([]). The first All
// short-circuits; None is dropped; remaining vectors are combined
// elementwise.
func Or(masks ...Mask) (Mask, error) {
	var vectors [][]bool
	for _, m := range masks {
		switch m.kind {
		case KindAll:
			return All(), nil
		case KindNone:
			continue
		default:
			vectors = append(vectors, m.rows)
		}
	}
	return reduce(vectors, None(), func(a, b bool) bool { return a || b })
}

func reduce(vectors [][]bool, identity Mask, op func(a, b bool) bool) (Mask, error) {
	if len(vectors) == 0 {
		return identity, nil
	}
	out := append([]bool(nil), vectors[0]...)
	for _, v := range vectors[1:] {
		if len(v) != len(out) {
			return Mask{}, fmt.Errorf("mask length mismatch: %d != %d", len(v), len(out))
		}
		for i, b := range v {
			out[i] = op(out[i], b)
		}
	}
	return Of(out), nil
}
