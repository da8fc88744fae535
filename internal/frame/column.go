package frame

import "fmt"

// ColumnType identifies the storage type of a column.
type ColumnType string

const (
	TypeFloat       ColumnType = "float"
	TypeInt         ColumnType = "int"
	TypeString      ColumnType = "string"
	TypeBool        ColumnType = "bool"
	TypeCategorical ColumnType = "category"
)

// ParseColumnType converts a type name into a ColumnType.
func ParseColumnType(s string) (ColumnType, error) {
	switch ColumnType(s) {
	case TypeFloat, TypeInt, TypeString, TypeBool, TypeCategorical:
		return ColumnType(s), nil
	case "categorical":
		return TypeCategorical, nil
	default:
		return "", fmt.Errorf("unknown column type %q", s)
	}
}

// Column is a typed vector of property values, one per table row.
//
// This is a sealed interface - only the column types in this package
// implement it, so matchers can switch over them exhaustively.
type Column interface {
	Len() int
	Type() ColumnType
	column() // Marker method - seals interface to this package
}

// FloatColumn holds floating-point values.
type FloatColumn []float64

func (c FloatColumn) Len() int { return len(c) }
func (FloatColumn) Type() ColumnType { return TypeFloat }
func (FloatColumn) column() {}

// IntColumn holds integer values.
type IntColumn []int64

func (c IntColumn) Len() int { return len(c) }
func (IntColumn) Type() ColumnType { return TypeInt }
func (IntColumn) column() {}

// StringColumn holds string values.
type StringColumn []string

func (c StringColumn) Len() int { return len(c) }
func (StringColumn) Type() ColumnType { return TypeString }
func (StringColumn) column() {}

// BoolColumn holds boolean values.
type BoolColumn []bool

func (c BoolColumn) Len() int { return len(c) }
func (BoolColumn) Type() ColumnType { return TypeBool }
func (BoolColumn) column() {}

// CategoricalColumn stores strings as codes into a category table.
// Population files commonly use it for morphological types such as mtype
// and etype, where few distinct values repeat across many rows.
type CategoricalColumn struct {
	Codes      []int32
	Categories []string
}

func (c CategoricalColumn) Len() int { return len(c.Codes) }
func (CategoricalColumn) Type() ColumnType { return TypeCategorical }
func (CategoricalColumn) column() {}

// Value returns the category string of row i.
func (c CategoricalColumn) Value(i int) string {
	return c.Categories[c.Codes[i]]
}

// NewCategorical encodes values into a CategoricalColumn. Categories are
// listed in first-seen order.
func NewCategorical(values []string) CategoricalColumn {
	index := make(map[string]int32)
	c := CategoricalColumn{Codes: make([]int32, len(values))}
	for i, v := range values {
		code, ok := index[v]
		if !ok {
			code = int32(len(c.Categories))
			index[v] = code
			c.Categories = append(c.Categories, v)
		}
		c.Codes[i] = code
	}
	return c
}

// validate checks that every code refers to a category.
func (c CategoricalColumn) validate() error {
	for i, code := range c.Codes {
		if code < 0 || int(code) >= len(c.Categories) {
			return fmt.Errorf("row %d: category code %d out of range [0, %d)", i, code, len(c.Categories))
		}
	}
	return nil
}

// ValueAt returns row i of col as a Go value (float64, int64, string or
// bool).
func ValueAt(col Column, i int) any {
	switch c := col.(type) {
	case FloatColumn:
		return c[i]
	case IntColumn:
		return c[i]
	case StringColumn:
		return c[i]
	case BoolColumn:
		return c[i]
	case CategoricalColumn:
		return c.Value(i)
	default:
		return nil
	}
}
