package engine

import (
	"github.com/roach88/snapquery/internal/frame"
	"github.com/roach88/snapquery/internal/ir"
	"github.com/roach88/snapquery/internal/mask"
	"github.com/roach88/snapquery/internal/queryir"
)

// matchProperty evaluates predicate p against column col of property name.
//
// Float columns only accept an inclusive [min, max] range. Every other
// column type accepts equality and membership; string and categorical
// columns also accept $regex.
func matchProperty(name string, col frame.Column, p queryir.Predicate) (mask.Mask, error) {
	if fc, ok := col.(frame.FloatColumn); ok {
		r, ok := p.(queryir.Range)
		if !ok {
			return mask.None(), typeMismatch(name, "float property requires a [min, max] range, got %s", describe(p))
		}
		lo, hi := r.Bounds()
		out := make([]bool, len(fc))
		for i, v := range fc {
			out[i] = v >= lo && v <= hi
		}
		return mask.Of(out), nil
	}

	switch p := p.(type) {
	case queryir.Regex:
		return matchRegex(name, col, p)
	case queryir.Nested:
		// An empty mapping holds no modifier and places no restriction.
		if key := p.FirstKey(); key != "" {
			return mask.None(), &queryir.QueryError{
				Code:    queryir.ErrCodeUnknownModifier,
				Message: "Unknown query modifier: '" + key + "'",
				Path:    name,
			}
		}
		return mask.All(), nil
	case queryir.Range:
		return matchValues(col, []ir.IRValue{p.Lo, p.Hi}), nil
	case queryir.OneOf:
		return matchValues(col, p.Values), nil
	case queryir.Equals:
		return matchValues(col, []ir.IRValue{p.Value}), nil
	default:
		return mask.None(), typeMismatch(name, "unsupported predicate %T", p)
	}
}

func matchRegex(name string, col frame.Column, re queryir.Regex) (mask.Mask, error) {
	switch c := col.(type) {
	case frame.StringColumn:
		out := make([]bool, len(c))
		for i, s := range c {
			out[i] = re.MatchString(s)
		}
		return mask.Of(out), nil
	case frame.CategoricalColumn:
		hits := make([]bool, len(c.Categories))
		for i, s := range c.Categories {
			hits[i] = re.MatchString(s)
		}
		return byCode(c, hits), nil
	default:
		return mask.None(), typeMismatch(name, "%s requires a string property, got %s", queryir.KeyRegex, col.Type())
	}
}

// matchValues returns the rows of col equal to any of values.
//
// Numbers compare by numeric value across int and float, booleans compare
// as 0 and 1, and a number never equals a string. Null matches nothing.
func matchValues(col frame.Column, values []ir.IRValue) mask.Mask {
	switch c := col.(type) {
	case frame.IntColumn:
		want := make(map[int64]struct{}, len(values))
		for _, v := range values {
			if n, ok := integerOf(v); ok {
				want[n] = struct{}{}
			}
		}
		out := make([]bool, len(c))
		for i, n := range c {
			_, out[i] = want[n]
		}
		return mask.Of(out)

	case frame.BoolColumn:
		var wantTrue, wantFalse bool
		for _, v := range values {
			if n, ok := integerOf(v); ok {
				wantTrue = wantTrue || n == 1
				wantFalse = wantFalse || n == 0
			}
		}
		out := make([]bool, len(c))
		for i, b := range c {
			out[i] = (b && wantTrue) || (!b && wantFalse)
		}
		return mask.Of(out)

	case frame.StringColumn:
		want := stringSet(values)
		out := make([]bool, len(c))
		for i, s := range c {
			_, out[i] = want[s]
		}
		return mask.Of(out)

	case frame.CategoricalColumn:
		want := stringSet(values)
		hits := make([]bool, len(c.Categories))
		for i, s := range c.Categories {
			_, hits[i] = want[s]
		}
		return byCode(c, hits)

	default:
		return mask.Of(make([]bool, col.Len()))
	}
}

// byCode expands per-category results to rows.
func byCode(c frame.CategoricalColumn, hits []bool) mask.Mask {
	out := make([]bool, len(c.Codes))
	for i, code := range c.Codes {
		out[i] = hits[code]
	}
	return mask.Of(out)
}

// integerOf returns the integer a query value compares equal to, if any.
// 2.0 compares equal to 2; 2.5 compares equal to no integer.
func integerOf(v ir.IRValue) (int64, bool) {
	if b, ok := v.(ir.IRBool); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	return ir.AsInt(v)
}

func stringSet(values []ir.IRValue) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if s, ok := v.(ir.IRString); ok {
			set[string(s)] = struct{}{}
		}
	}
	return set
}

func describe(p queryir.Predicate) string {
	switch p := p.(type) {
	case queryir.Equals:
		return "scalar " + ir.TypeName(p.Value)
	case queryir.OneOf:
		return "list"
	case queryir.Regex:
		return queryir.KeyRegex
	case queryir.Nested:
		return "mapping"
	default:
		return "predicate"
	}
}

func typeMismatch(name, format string, args ...any) *queryir.QueryError {
	err := queryir.Errorf(queryir.ErrCodeTypeMismatch, "property %q: "+format, append([]any{name}, args...)...)
	err.Path = name
	return err
}
