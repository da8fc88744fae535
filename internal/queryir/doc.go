// Package queryir provides the typed query tree for snapquery's nested
// boolean queries over population tables.
//
// ARCHITECTURE:
//
// Query documents arrive as JSON-compatible ordered mappings (ir.IRObject).
// Parse converts them once into an immutable tree:
//
//	[JSON/YAML/CUE document] → [ir.IRObject] → [queryir.Query] → [engine] → []bool
//
// A Query is the ordered list of clauses of one mapping. Each key of the
// mapping becomes exactly one Clause:
//
//	key            Clause
//	---            ------
//	$and / $or     And / Or (children are Queries)
//	population     Population
//	node_id        IDs
//	edge_id        IDs
//	$node_set      NodeSetRef
//	anything else  Leaf (property name + Predicate)
//
// Leaf predicates are fixed at parse time:
//
//	value shape                 Predicate
//	-----------                 ---------
//	scalar                      Equals
//	list of two numbers         Range (membership on non-float columns)
//	other list                  OneOf
//	{"$regex": pattern}         Regex (anchored to the whole string)
//	other mapping               Nested (fails at match time)
//
// SEALED INTERFACES:
//
// Clause and Predicate are sealed interfaces using the marker method
// pattern, so resolvers can switch over them exhaustively:
//
//	switch c := clause.(type) {
//	case Leaf:
//	case And, Or:
//	case Population, IDs:
//	case NodeSetRef:
//	}
//
// TRAVERSAL:
//
// Walk visits a tree bottom-up and left to right: the sub-trees of a
// clause are visited before the clause itself, and clauses are visited in
// document order. Fold is the value-producing counterpart used by the
// resolution pipeline; it derives one result per clause without touching
// the input tree.
//
// Trees are never mutated after Parse. Passes that rewrite a query (node
// set expansion) build a new tree.
package queryir
