package queryir

import (
	"fmt"

	"github.com/roach88/snapquery/internal/frame"
)

// Schema maps column names to their types.
type Schema map[string]frame.ColumnType

// SchemaOf returns the schema of t.
func SchemaOf(t frame.Table) Schema {
	s := make(Schema)
	for _, name := range t.ColumnNames() {
		col, _ := t.Column(name)
		s[name] = col.Type()
	}
	return s
}

// ValidationResult contains the schema analysis of a query.
type ValidationResult struct {
	// Clean is true when no warnings were produced.
	Clean bool

	// Warnings lists clauses that will silently select nothing or fail at
	// resolution time against the schema.
	Warnings []string
}

// Validate checks q against a schema without resolving it.
//
// A property that is not a column makes its branch select nothing at
// resolution time, so a typo yields an empty result rather than an error.
// Validate reports those properties, plus predicates that will fail
// against their column type.
func Validate(q Query, schema Schema) ValidationResult {
	v := &validator{schema: schema, warnings: []string{}}
	v.walk(q)

	return ValidationResult{
		Clean:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	schema   Schema
	warnings []string
}

// addWarning appends a warning message.
func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// walk visits combinator children but not the keys of a Nested mapping;
// those are reported once, on the enclosing leaf.
func (v *validator) walk(q Query) {
	for _, c := range q {
		switch c := c.(type) {
		case And:
			for _, child := range c.Children {
				v.walk(child)
			}
		case Or:
			for _, child := range c.Children {
				v.walk(child)
			}
		case Leaf:
			v.validateLeaf(c)
		case NodeSetRef:
			v.addWarning("Node set %q is not expanded - resolve node sets before resolution", c.Name)
		}
	}
}

func (v *validator) validateLeaf(leaf Leaf) {
	if IsReserved(leaf.Property) {
		return
	}
	typ, ok := v.schema[leaf.Property]
	if !ok {
		v.addWarning("Unknown property %q - the enclosing branch selects no rows", leaf.Property)
		return
	}

	switch p := leaf.Predicate.(type) {
	case Range:
		// Range is valid everywhere: membership on non-float columns.
	case Regex:
		if typ != frame.TypeString && typ != frame.TypeCategorical {
			v.addWarning("Property %q is %s - %s requires a string column", leaf.Property, typ, KeyRegex)
		}
	case Nested:
		if typ == frame.TypeFloat {
			v.addWarning("Property %q is float - only [min, max] ranges are supported", leaf.Property)
		} else if key := p.FirstKey(); key != "" {
			v.addWarning("Property %q uses unknown query modifier %q", leaf.Property, key)
		}
	default:
		if typ == frame.TypeFloat {
			v.addWarning("Property %q is float - only [min, max] ranges are supported", leaf.Property)
		}
	}
}
