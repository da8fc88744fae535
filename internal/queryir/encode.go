package queryir

import (
	"fmt"

	"github.com/roach88/snapquery/internal/ir"
)

// Encode converts q back into a query document.
//
// Parse(Encode(q)) is equivalent to q. A single population name encodes as
// a string; ID lists always encode as lists.
func Encode(q Query) ir.IRObject {
	obj := make(ir.IRObject, 0, len(q))
	for _, c := range q {
		obj = append(obj, ir.F(c.Key(), encodeClause(c)))
	}
	return obj
}

func encodeClause(c Clause) ir.IRValue {
	switch c := c.(type) {
	case And:
		return encodeChildren(c.Children)
	case Or:
		return encodeChildren(c.Children)
	case Population:
		if len(c.Names) == 1 {
			return ir.IRString(c.Names[0])
		}
		arr := make(ir.IRArray, len(c.Names))
		for i, n := range c.Names {
			arr[i] = ir.IRString(n)
		}
		return arr
	case IDs:
		if c.Unrestricted {
			return ir.IRNull{}
		}
		arr := make(ir.IRArray, len(c.Values))
		for i, id := range c.Values {
			arr[i] = ir.IRInt(id)
		}
		return arr
	case NodeSetRef:
		return ir.IRString(c.Name)
	case Leaf:
		return encodePredicate(c.Predicate)
	default:
		panic(fmt.Sprintf("queryir: unknown clause type %T", c))
	}
}

func encodeChildren(children []Query) ir.IRArray {
	arr := make(ir.IRArray, len(children))
	for i, child := range children {
		arr[i] = Encode(child)
	}
	return arr
}

func encodePredicate(p Predicate) ir.IRValue {
	switch p := p.(type) {
	case Equals:
		return p.Value
	case OneOf:
		return ir.IRArray(p.Values)
	case Range:
		return ir.IRArray{p.Lo, p.Hi}
	case Regex:
		return ir.NewIRObject(ir.F(KeyRegex, ir.IRString(p.Pattern)))
	case Nested:
		return Encode(p.Query)
	default:
		panic(fmt.Sprintf("queryir: unknown predicate type %T", p))
	}
}
