// Package engine resolves parsed queries against a table.
//
// The engine folds a queryir.Query bottom-up into a mask.Mask and
// broadcasts the result to one boolean per table row.
//
// ARCHITECTURE:
//
// Every clause of a query node is resolved on its own:
//   - $and / $or: each child query is AND-folded over its clauses, then the
//     children are combined with mask.And or mask.Or.
//   - any other clause goes through leaf-set resolution as a single-key
//     node: population and ID filter first, then the property matcher.
//
// The root node's clause masks are AND-folded. A scalar result (All or
// None) is broadcast to a full-length vector before it is returned.
//
// FAIL-OPEN POLICY:
//
// A property that is not a column of the table resolves its branch to
// None rather than failing, so that one query can be evaluated against
// populations with different schemas. A population mismatch also resolves
// to None. IDs missing from the table are ignored. Hard failures are
// *queryir.QueryError values: unknown value operators, predicates that do
// not fit the column type, and unexpanded $node_set references.
//
// Resolution is synchronous and never mutates the query or the table.
// A Resolver may be shared between goroutines.
package engine
