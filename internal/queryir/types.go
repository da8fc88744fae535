package queryir

import (
	"regexp"

	"github.com/roach88/snapquery/internal/ir"
)

// Reserved query keys.
const (
	KeyNodeID     = "node_id"
	KeyEdgeID     = "edge_id"
	KeyPopulation = "population"
	KeyOr         = "$or"
	KeyAnd        = "$and"
	KeyRegex      = "$regex"
	KeyNodeSet    = "$node_set"
)

// IsValueOperator reports whether key modifies how a single property is
// matched rather than naming a property.
func IsValueOperator(key string) bool {
	return key == KeyRegex
}

// IsReserved reports whether key is a control key or value operator rather
// than a property name.
func IsReserved(key string) bool {
	switch key {
	case KeyNodeID, KeyEdgeID, KeyPopulation, KeyOr, KeyAnd, KeyNodeSet:
		return true
	default:
		return IsValueOperator(key)
	}
}

// Query is one mapping of a query document: its clauses in document order.
// All clauses of a Query are implicitly combined with AND.
//
// A nil or empty Query selects every row.
type Query []Clause

// Clause is one key of a query mapping.
//
// This is a sealed interface - only types in this package implement it.
type Clause interface {
	// Key returns the mapping key this clause was parsed from.
	Key() string
	clauseNode() // Marker method - seals interface to this package
}

// Leaf matches a single property against a predicate.
type Leaf struct {
	Property  string
	Predicate Predicate
}

func (l Leaf) Key() string { return l.Property }
func (Leaf) clauseNode() {}

// And requires every child query to match: {"$and": [q1, q2, ...]}.
// An empty Children list matches every row.
type And struct {
	Children []Query
}

func (And) Key() string { return KeyAnd }
func (And) clauseNode() {}

// Or requires at least one child query to match: {"$or": [q1, q2, ...]}.
// An empty Children list matches no row.
type Or struct {
	Children []Query
}

func (Or) Key() string { return KeyOr }
func (Or) clauseNode() {}

// Population scopes a branch to one or more named populations.
type Population struct {
	Names []string
}

func (Population) Key() string { return KeyPopulation }
func (Population) clauseNode() {}

// Contains reports whether name is one of the requested populations.
func (p Population) Contains(name string) bool {
	for _, n := range p.Names {
		if n == name {
			return true
		}
	}
	return false
}

// IDs restricts a branch to rows with the given IDs.
//
// Field is KeyNodeID or KeyEdgeID. Unrestricted is set when the document
// value was null, which places no restriction on the branch. Values may
// contain duplicates and IDs that are absent from the table.
type IDs struct {
	Field        string
	Values       []int64
	Unrestricted bool
}

func (i IDs) Key() string { return i.Field }
func (IDs) clauseNode() {}

// NodeSetRef references a named node set: {"$node_set": "Layer2"}.
// It must be expanded (see package nodeset) before resolution.
type NodeSetRef struct {
	Name string
}

func (NodeSetRef) Key() string { return KeyNodeSet }
func (NodeSetRef) clauseNode() {}

// Predicate is the match condition of a Leaf.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Equals matches rows whose value equals Value.
type Equals struct {
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// OneOf matches rows whose value is one of Values.
type OneOf struct {
	Values []ir.IRValue
}

func (OneOf) predicateNode() {}

// Range matches float values v with Lo <= v <= Hi.
//
// A two-element numeric list is only a range when the column holds
// floats. On any other column it behaves as OneOf{Lo, Hi}.
type Range struct {
	Lo ir.IRValue
	Hi ir.IRValue
}

func (Range) predicateNode() {}

// Bounds returns the numeric bounds of r.
func (r Range) Bounds() (lo, hi float64) {
	lo, _ = ir.AsFloat(r.Lo)
	hi, _ = ir.AsFloat(r.Hi)
	return lo, hi
}

// Regex matches string values that the pattern consumes entirely.
// Build it with NewRegex; a Regex without a compiled pattern matches
// nothing.
type Regex struct {
	Pattern string
	re      *regexp.Regexp
}

func (Regex) predicateNode() {}

// MatchString reports whether s is a full match of the pattern.
func (r Regex) MatchString(s string) bool {
	return r.re != nil && r.re.MatchString(s)
}

// Nested is a mapping value that holds no value operator, such as
// {"layer": {"x": 1}}. Its keys are traversed like a query, but matching it
// against an existing property fails with an unknown modifier error.
type Nested struct {
	Query Query
}

func (Nested) predicateNode() {}

// FirstKey returns the first key of the nested mapping, or "" when empty.
func (n Nested) FirstKey() string {
	if len(n.Query) == 0 {
		return ""
	}
	return n.Query[0].Key()
}

// anchor wraps a pattern so it must consume the whole string.
func anchor(pattern string) string {
	return `^(?:` + pattern + `)\z`
}

// NewRegex compiles pattern into a full-match Regex predicate.
func NewRegex(pattern string) (Regex, error) {
	re, err := regexp.Compile(anchor(pattern))
	if err != nil {
		return Regex{}, Errorf(ErrCodeInvalidRegex, "invalid regular expression %q: %v", pattern, err)
	}
	return Regex{Pattern: pattern, re: re}, nil
}
