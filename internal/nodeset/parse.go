package nodeset

import (
	"fmt"

	"github.com/roach88/snapquery/internal/ir"
	"github.com/roach88/snapquery/internal/queryir"
)

// Parse builds a registry from a node-set document: an object mapping
// each name to a list of node-set names (compound) or a query mapping
// (rule).
//
//	{
//	  "Layer2": {"layer": 2},
//	  "Excitatory": {"excitatory": true, "population": "default"},
//	  "Layer2Exc": ["Layer2", "Excitatory"]
//	}
func Parse(doc ir.IRValue) (*Registry, error) {
	obj, ok := doc.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("node set document must be an object, got %s", ir.TypeName(doc))
	}

	entries := make([]Entry, 0, len(obj))
	for _, f := range obj {
		def, err := ParseDefinition(f.Key, f.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Name: f.Key, Definition: def})
	}
	return NewRegistry(entries...)
}

// ParseJSON decodes and parses a JSON node-set document.
func ParseJSON(data []byte) (*Registry, error) {
	doc, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return nil, fmt.Errorf("decode node sets: %w", err)
	}
	return Parse(doc)
}

// ParseDefinition parses the body of the node set called name.
func ParseDefinition(name string, value ir.IRValue) (Definition, error) {
	switch v := value.(type) {
	case ir.IRArray:
		names := make([]string, 0, len(v))
		for i, elem := range v {
			s, ok := elem.(ir.IRString)
			if !ok {
				return nil, newError(ErrCodeInvalid, name, "compound entry %d must be a node set name, got %s", i, ir.TypeName(elem))
			}
			names = append(names, string(s))
		}
		return Compound{Names: names}, nil
	case ir.IRObject:
		q, err := queryir.Parse(v)
		if err != nil {
			return nil, &Error{Code: ErrCodeInvalid, NodeSet: name, Message: "invalid rule", Err: err}
		}
		return Rule{Query: q}, nil
	default:
		return nil, newError(ErrCodeInvalid, name, "definition must be a list of names or a mapping, got %s", ir.TypeName(value))
	}
}
