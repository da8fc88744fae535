package loader

import (
	"fmt"

	"github.com/roach88/snapquery/internal/frame"
	"github.com/roach88/snapquery/internal/ir"
)

// PopulationFile is a population read from a description file:
//
//	name: default
//	kind: node           # node (default) or edge
//	ids: [0, 1, 2]       # optional, defaults to 0..n-1
//	properties:
//	  layer: {type: int, values: [2, 2, 3]}
//	  mtype: {type: category, values: [L2_TPC, L2_IPC, L3_TPC]}
//
// Property types are float, int, string, bool and category.
type PopulationFile struct {
	Name  string
	Kind  frame.Kind
	Table *frame.Frame
}

// LoadPopulation reads a population description file.
func LoadPopulation(path string) (*PopulationFile, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	pf, err := ParsePopulation(doc)
	if err != nil {
		return nil, &Error{Path: path, Message: "invalid population", Err: err}
	}
	return pf, nil
}

// ParsePopulation builds a population from a decoded description.
func ParsePopulation(doc ir.IRValue) (*PopulationFile, error) {
	obj, ok := doc.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("population must be a mapping, got %s", ir.TypeName(doc))
	}
	for _, key := range obj.Keys() {
		switch key {
		case "name", "kind", "ids", "properties":
		default:
			return nil, fmt.Errorf("unknown field %q", key)
		}
	}

	pf := &PopulationFile{}

	nameVal, ok := obj.Get("name")
	name, isString := nameVal.(ir.IRString)
	if !ok || !isString || name == "" {
		return nil, fmt.Errorf("name must be a non-empty string")
	}
	pf.Name = string(name)

	kind := ""
	if v, ok := obj.Get("kind"); ok {
		s, isString := v.(ir.IRString)
		if !isString {
			return nil, fmt.Errorf("kind must be a string, got %s", ir.TypeName(v))
		}
		kind = string(s)
	}
	k, err := frame.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	pf.Kind = k

	var props ir.IRObject
	if v, ok := obj.Get("properties"); ok {
		props, ok = v.(ir.IRObject)
		if !ok {
			return nil, fmt.Errorf("properties must be a mapping, got %s", ir.TypeName(v))
		}
	}

	columns := make([]frame.NamedColumn, 0, len(props))
	for _, f := range props {
		col, err := parseProperty(f.Value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", f.Key, err)
		}
		columns = append(columns, frame.NamedColumn{Name: f.Key, Column: col})
	}

	var ids []int64
	if v, ok := obj.Get("ids"); ok {
		ids, err = intList(v)
		if err != nil {
			return nil, fmt.Errorf("ids: %w", err)
		}
	} else {
		n := 0
		if len(columns) > 0 {
			n = columns[0].Column.Len()
		}
		ids = frame.Range(n)
	}

	t, err := frame.New(ids, columns...)
	if err != nil {
		return nil, err
	}
	pf.Table = t
	return pf, nil
}

func parseProperty(v ir.IRValue) (frame.Column, error) {
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("must be a mapping with type and values, got %s", ir.TypeName(v))
	}
	typeVal, _ := obj.Get("type")
	typeName, ok := typeVal.(ir.IRString)
	if !ok {
		return nil, fmt.Errorf("type must be a string")
	}
	typ, err := frame.ParseColumnType(string(typeName))
	if err != nil {
		return nil, err
	}
	raw, _ := obj.Get("values")
	values, ok := raw.(ir.IRArray)
	if !ok {
		return nil, fmt.Errorf("values must be a list")
	}

	switch typ {
	case frame.TypeFloat:
		out := make(frame.FloatColumn, len(values))
		for i, e := range values {
			f, ok := ir.AsFloat(e)
			if !ok {
				return nil, fmt.Errorf("values[%d]: want number, got %s", i, ir.TypeName(e))
			}
			out[i] = f
		}
		return out, nil
	case frame.TypeInt:
		ints, err := intList(values)
		if err != nil {
			return nil, err
		}
		return frame.IntColumn(ints), nil
	case frame.TypeBool:
		out := make(frame.BoolColumn, len(values))
		for i, e := range values {
			b, ok := e.(ir.IRBool)
			if !ok {
				return nil, fmt.Errorf("values[%d]: want bool, got %s", i, ir.TypeName(e))
			}
			out[i] = bool(b)
		}
		return out, nil
	default:
		strs := make([]string, len(values))
		for i, e := range values {
			s, ok := e.(ir.IRString)
			if !ok {
				return nil, fmt.Errorf("values[%d]: want string, got %s", i, ir.TypeName(e))
			}
			strs[i] = string(s)
		}
		if typ == frame.TypeCategorical {
			return frame.NewCategorical(strs), nil
		}
		return frame.StringColumn(strs), nil
	}
}

func intList(v ir.IRValue) ([]int64, error) {
	arr, ok := v.(ir.IRArray)
	if !ok {
		return nil, fmt.Errorf("must be a list, got %s", ir.TypeName(v))
	}
	out := make([]int64, len(arr))
	for i, e := range arr {
		n, ok := ir.AsInt(e)
		if !ok {
			return nil, fmt.Errorf("[%d]: want integer, got %s", i, ir.TypeName(e))
		}
		out[i] = n
	}
	return out, nil
}
