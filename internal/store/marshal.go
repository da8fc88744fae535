package store

import (
	"fmt"
	"strings"

	"github.com/roach88/snapquery/internal/frame"
	"github.com/roach88/snapquery/internal/ir"
	"github.com/roach88/snapquery/internal/nodeset"
)

// sqlType returns the declared SQLite type of a property column.
func sqlType(t frame.ColumnType) (string, error) {
	switch t {
	case frame.TypeFloat:
		return "REAL", nil
	case frame.TypeInt:
		return "INTEGER", nil
	case frame.TypeString:
		return "TEXT", nil
	case frame.TypeCategorical:
		// TEXT in the name gives the column TEXT affinity, so values like
		// "2" are not coerced to numbers.
		return "CATEGORY_TEXT", nil
	case frame.TypeBool:
		return "BOOLEAN", nil
	default:
		return "", fmt.Errorf("unsupported column type %q", t)
	}
}

// columnTypeOf maps a declared SQLite type back to a column type.
// Matching follows SQLite affinity names, case-insensitively.
func columnTypeOf(declared string) (frame.ColumnType, error) {
	switch strings.ToUpper(declared) {
	case "REAL", "DOUBLE", "FLOAT":
		return frame.TypeFloat, nil
	case "INTEGER", "INT", "BIGINT":
		return frame.TypeInt, nil
	case "TEXT", "VARCHAR":
		return frame.TypeString, nil
	case "CATEGORY_TEXT", "CATEGORY":
		return frame.TypeCategorical, nil
	case "BOOLEAN", "BOOL":
		return frame.TypeBool, nil
	default:
		return "", fmt.Errorf("unsupported declared type %q", declared)
	}
}

// dataTable is the name of the table holding population id's rows.
func dataTable(id int64) string {
	return fmt.Sprintf("population_%d", id)
}

// dataColumn is the generated column name of the property at position.
func dataColumn(position int) string {
	return fmt.Sprintf("c%d", position)
}

// marshalDefinition converts a node-set definition to JSON TEXT for
// storage. Key order is preserved: it decides which error a rule reports
// first.
func marshalDefinition(def nodeset.Definition) (string, error) {
	data, err := ir.MarshalIRValue(def.Document())
	if err != nil {
		return "", fmt.Errorf("marshal definition: %w", err)
	}
	return string(data), nil
}

// unmarshalDefinition parses stored JSON TEXT back into a definition.
func unmarshalDefinition(name, data string) (nodeset.Definition, error) {
	doc, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal definition %q: %w", name, err)
	}
	return nodeset.ParseDefinition(name, doc)
}

// columnBuffer accumulates scanned values of one property.
type columnBuffer struct {
	typ frame.ColumnType

	floats  []float64
	ints    []int64
	strings []string
	bools   []bool

	f float64
	i int64
	s string
	b bool
}

// dest returns the scan destination for the next row.
func (c *columnBuffer) dest() any {
	switch c.typ {
	case frame.TypeFloat:
		return &c.f
	case frame.TypeInt:
		return &c.i
	case frame.TypeBool:
		return &c.b
	default:
		return &c.s
	}
}

// push appends the last scanned value.
func (c *columnBuffer) push() {
	switch c.typ {
	case frame.TypeFloat:
		c.floats = append(c.floats, c.f)
	case frame.TypeInt:
		c.ints = append(c.ints, c.i)
	case frame.TypeBool:
		c.bools = append(c.bools, c.b)
	default:
		c.strings = append(c.strings, c.s)
	}
}

// column returns the accumulated frame column. Empty columns are non-nil
// so their length is zero rather than absent.
func (c *columnBuffer) column() frame.Column {
	switch c.typ {
	case frame.TypeFloat:
		return frame.FloatColumn(append([]float64{}, c.floats...))
	case frame.TypeInt:
		return frame.IntColumn(append([]int64{}, c.ints...))
	case frame.TypeBool:
		return frame.BoolColumn(append([]bool{}, c.bools...))
	case frame.TypeCategorical:
		return frame.NewCategorical(c.strings)
	default:
		return frame.StringColumn(append([]string{}, c.strings...))
	}
}
