package nodeset

import (
	"log/slog"
	"slices"

	"github.com/roach88/snapquery/internal/queryir"
)

// Resolve returns q with every $node_set clause expanded in target.
//
// In each query node that holds a $node_set clause, the clause is removed
// and {node_id: <ids>} is appended to the node's $and clause. When the
// node has no $and clause one is added at the end of the node. Nodes are
// rewritten below $and / $or and inside nested mappings too.
//
// q is not modified. A query without $node_set clauses is returned as is,
// so resolving an already expanded query is a no-op.
func Resolve(q queryir.Query, reg *Registry, target Target, raiseMissing bool) (queryir.Query, error) {
	if !queryir.HasNodeSets(q) {
		return q, nil
	}
	slog.Debug("expanding node sets",
		"node_sets", queryir.NodeSets(q),
		"population", target.Population(),
	)
	e := &expander{reg: reg, target: target, raiseMissing: raiseMissing}
	return e.rewrite(q)
}

type expander struct {
	reg          *Registry
	target       Target
	raiseMissing bool
}

func (e *expander) rewrite(q queryir.Query) (queryir.Query, error) {
	out := make(queryir.Query, 0, len(q)+1)
	var expanded []queryir.Query

	for _, c := range q {
		switch c := c.(type) {
		case queryir.And:
			children, err := e.rewriteAll(c.Children)
			if err != nil {
				return nil, err
			}
			out = append(out, queryir.And{Children: children})
		case queryir.Or:
			children, err := e.rewriteAll(c.Children)
			if err != nil {
				return nil, err
			}
			out = append(out, queryir.Or{Children: children})
		case queryir.Leaf:
			if n, ok := c.Predicate.(queryir.Nested); ok {
				sub, err := e.rewrite(n.Query)
				if err != nil {
					return nil, err
				}
				c = queryir.Leaf{Property: c.Property, Predicate: queryir.Nested{Query: sub}}
			}
			out = append(out, c)
		case queryir.NodeSetRef:
			ns, err := e.reg.Lookup(c.Name)
			if err != nil {
				return nil, err
			}
			ids, err := ns.IDs(e.target, e.raiseMissing)
			if err != nil {
				return nil, err
			}
			expanded = append(expanded, queryir.Query{queryir.IDs{Field: queryir.KeyNodeID, Values: ids}})
		default:
			out = append(out, c)
		}
	}

	if len(expanded) == 0 {
		return out, nil
	}
	for i, c := range out {
		if and, ok := c.(queryir.And); ok {
			out[i] = queryir.And{Children: append(slices.Clone(and.Children), expanded...)}
			return out, nil
		}
	}
	return append(out, queryir.And{Children: expanded}), nil
}

func (e *expander) rewriteAll(children []queryir.Query) ([]queryir.Query, error) {
	out := make([]queryir.Query, len(children))
	for i, child := range children {
		sub, err := e.rewrite(child)
		if err != nil {
			return nil, err
		}
		out[i] = sub
	}
	return out, nil
}
