package queryir

import (
	"slices"
)

// Visitor is called once per clause during Walk.
// node is the Query that holds the clause, i its index within node.
type Visitor func(node Query, i int) error

// Walk traverses q from leaves to root, left to right.
//
// For each clause of q, in document order, Walk first walks the clause's
// sub-trees (the children of $and/$or, or the mapping of a Nested
// predicate) and then calls visit for the clause itself. Every clause is
// visited, including combinators. The first error returned by visit stops
// the walk.
func Walk(q Query, visit Visitor) error {
	for i, c := range q {
		for _, sub := range subtrees(c) {
			if err := Walk(sub, visit); err != nil {
				return err
			}
		}
		if err := visit(q, i); err != nil {
			return err
		}
	}
	return nil
}

// subtrees returns the queries nested under c.
func subtrees(c Clause) []Query {
	switch c := c.(type) {
	case And:
		return c.Children
	case Or:
		return c.Children
	case Leaf:
		if n, ok := c.Predicate.(Nested); ok {
			return []Query{n.Query}
		}
	}
	return nil
}

// FoldFunc derives the value of one clause.
//
// children holds, for each sub-tree of c in order, the values already
// derived for that sub-tree's clauses. It is empty for clauses without
// sub-trees.
type FoldFunc[T any] func(c Clause, children [][]T) (T, error)

// Fold derives one value per clause of q, bottom-up and left to right, in
// the same order Walk visits clauses. The returned slice is aligned with q.
//
// Fold never modifies q; it is how passes "rewrite" a tree into a parallel
// tree of results.
func Fold[T any](q Query, f FoldFunc[T]) ([]T, error) {
	out := make([]T, len(q))
	for i, c := range q {
		subs := subtrees(c)
		children := make([][]T, len(subs))
		for j, sub := range subs {
			vals, err := Fold(sub, f)
			if err != nil {
				return nil, err
			}
			children[j] = vals
		}
		v, err := f(c, children)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Properties returns the property names referenced anywhere in q, sorted.
// Reserved keys are excluded. No table is consulted.
func Properties(q Query) []string {
	seen := make(map[string]struct{})
	_ = Walk(q, func(node Query, i int) error {
		if leaf, ok := node[i].(Leaf); ok && !IsReserved(leaf.Property) {
			seen[leaf.Property] = struct{}{}
		}
		return nil
	})

	props := make([]string, 0, len(seen))
	for p := range seen {
		props = append(props, p)
	}
	slices.Sort(props)
	return props
}

// NodeSets returns the node set names referenced anywhere in q, sorted and
// without duplicates.
func NodeSets(q Query) []string {
	names := []string{}
	_ = Walk(q, func(node Query, i int) error {
		if ref, ok := node[i].(NodeSetRef); ok {
			names = append(names, ref.Name)
		}
		return nil
	})
	slices.Sort(names)
	return slices.Compact(names)
}

// HasNodeSets reports whether q still contains $node_set references.
func HasNodeSets(q Query) bool {
	return len(NodeSets(q)) > 0
}
