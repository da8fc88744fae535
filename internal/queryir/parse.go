package queryir

import (
	"fmt"

	"github.com/roach88/snapquery/internal/ir"
)

// Parse converts a query document into a typed Query.
//
// The document must be an object. Clause order follows key order. Parse
// rejects structural problems up front (mixed value operators, malformed
// combinator values, invalid patterns) with a *QueryError; it does not
// check property names, since whether a property exists depends on the
// table the query is resolved against.
func Parse(doc ir.IRValue) (Query, error) {
	obj, ok := doc.(ir.IRObject)
	if !ok {
		return nil, Errorf(ErrCodeMalformed, "query must be an object, got %s", ir.TypeName(doc))
	}
	return parseQuery(obj)
}

// ParseJSON decodes and parses a JSON query document.
func ParseJSON(data []byte) (Query, error) {
	doc, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return nil, fmt.Errorf("decode query: %w", err)
	}
	return Parse(doc)
}

// MustParseJSON is like ParseJSON but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseJSON(data string) Query {
	q, err := ParseJSON([]byte(data))
	if err != nil {
		panic(err)
	}
	return q
}

func parseQuery(obj ir.IRObject) (Query, error) {
	q := make(Query, 0, len(obj))
	for _, f := range obj {
		c, err := parseClause(f.Key, f.Value)
		if err != nil {
			return nil, at(err, f.Key)
		}
		q = append(q, c)
	}
	return q, nil
}

func parseClause(key string, value ir.IRValue) (Clause, error) {
	switch key {
	case KeyAnd:
		children, err := parseChildren(key, value)
		if err != nil {
			return nil, err
		}
		return And{Children: children}, nil

	case KeyOr:
		children, err := parseChildren(key, value)
		if err != nil {
			return nil, err
		}
		return Or{Children: children}, nil

	case KeyPopulation:
		names, err := parseNames(value)
		if err != nil {
			return nil, err
		}
		return Population{Names: names}, nil

	case KeyNodeID, KeyEdgeID:
		return parseIDs(key, value)

	case KeyNodeSet:
		name, ok := value.(ir.IRString)
		if !ok {
			return nil, Errorf(ErrCodeMalformed, "%s must be a node set name, got %s", key, ir.TypeName(value))
		}
		return NodeSetRef{Name: string(name)}, nil

	case KeyRegex:
		return nil, Errorf(ErrCodeMalformed, "value operator %s must be applied to a property", key)

	default:
		pred, err := parsePredicate(value)
		if err != nil {
			return nil, err
		}
		return Leaf{Property: key, Predicate: pred}, nil
	}
}

func parseChildren(key string, value ir.IRValue) ([]Query, error) {
	arr, ok := value.(ir.IRArray)
	if !ok {
		return nil, Errorf(ErrCodeMalformed, "%s must be a list of queries, got %s", key, ir.TypeName(value))
	}

	children := make([]Query, 0, len(arr))
	for i, elem := range arr {
		obj, ok := elem.(ir.IRObject)
		if !ok {
			return nil, at(Errorf(ErrCodeMalformed, "%s entries must be queries, got %s", key, ir.TypeName(elem)),
				fmt.Sprintf("[%d]", i))
		}
		child, err := parseQuery(obj)
		if err != nil {
			return nil, at(err, fmt.Sprintf("[%d]", i))
		}
		children = append(children, child)
	}
	return children, nil
}

// parseNames accepts a population name or a list of names.
func parseNames(value ir.IRValue) ([]string, error) {
	switch v := value.(type) {
	case ir.IRString:
		return []string{string(v)}, nil
	case ir.IRArray:
		names := make([]string, 0, len(v))
		for i, elem := range v {
			s, ok := elem.(ir.IRString)
			if !ok {
				return nil, at(Errorf(ErrCodeMalformed, "population names must be strings, got %s", ir.TypeName(elem)),
					fmt.Sprintf("[%d]", i))
			}
			names = append(names, string(s))
		}
		return names, nil
	default:
		return nil, Errorf(ErrCodeMalformed, "population must be a name or list of names, got %s", ir.TypeName(value))
	}
}

// parseIDs accepts null, a single ID, or a list of IDs.
func parseIDs(key string, value ir.IRValue) (Clause, error) {
	switch v := value.(type) {
	case ir.IRNull:
		return IDs{Field: key, Unrestricted: true}, nil
	case ir.IRArray:
		ids := make([]int64, 0, len(v))
		for i, elem := range v {
			id, ok := ir.AsInt(elem)
			if !ok {
				return nil, at(Errorf(ErrCodeMalformed, "%s values must be integers, got %s", key, ir.TypeName(elem)),
					fmt.Sprintf("[%d]", i))
			}
			ids = append(ids, id)
		}
		return IDs{Field: key, Values: ids}, nil
	default:
		id, ok := ir.AsInt(value)
		if !ok {
			return nil, Errorf(ErrCodeMalformed, "%s must be an integer or list of integers, got %s", key, ir.TypeName(value))
		}
		return IDs{Field: key, Values: []int64{id}}, nil
	}
}

func parsePredicate(value ir.IRValue) (Predicate, error) {
	switch v := value.(type) {
	case ir.IRObject:
		return parseMapping(v)
	case ir.IRArray:
		if len(v) == 2 && ir.IsNumber(v[0]) && ir.IsNumber(v[1]) {
			return Range{Lo: v[0], Hi: v[1]}, nil
		}
		return OneOf{Values: []ir.IRValue(v)}, nil
	default:
		return Equals{Value: value}, nil
	}
}

// parseMapping handles mapping-valued predicates. A mapping either holds
// only value operators or none at all.
func parseMapping(obj ir.IRObject) (Predicate, error) {
	operators := 0
	for _, f := range obj {
		if IsValueOperator(f.Key) {
			operators++
		}
	}

	if operators == 0 {
		nested, err := parseQuery(obj)
		if err != nil {
			return nil, err
		}
		return Nested{Query: nested}, nil
	}
	if operators != len(obj) {
		return nil, Errorf(ErrCodeMixedOperators, "Value operators can't be used with plain values")
	}

	// KeyRegex is the only value operator.
	pattern, ok := obj[0].Value.(ir.IRString)
	if !ok {
		return nil, at(Errorf(ErrCodeMalformed, "%s pattern must be a string, got %s", KeyRegex, ir.TypeName(obj[0].Value)), KeyRegex)
	}
	re, err := NewRegex(string(pattern))
	if err != nil {
		return nil, at(err, KeyRegex)
	}
	return re, nil
}
