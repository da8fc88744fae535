package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/snapquery/internal/frame"
	"github.com/roach88/snapquery/internal/mask"
	"github.com/roach88/snapquery/internal/queryir"
)

// Resolver evaluates queries against one table of a named population.
//
// The table is only read. A Resolver holds no per-query state and may be
// used from several goroutines.
type Resolver struct {
	table      frame.Table
	population string
}

// New creates a Resolver for table t, whose rows belong to population.
func New(t frame.Table, population string) *Resolver {
	return &Resolver{table: t, population: population}
}

// Resolve evaluates q against t and returns one boolean per row of t.
func Resolve(t frame.Table, population string, q queryir.Query) ([]bool, error) {
	return New(t, population).Resolve(q)
}

// Population returns the population name the resolver was created with.
func (r *Resolver) Population() string { return r.population }

// Table returns the table the resolver reads.
func (r *Resolver) Table() frame.Table { return r.table }

// Resolve evaluates q and returns one boolean per table row, in row order.
// The result always has length Table().Len(), also when the query folds
// to All or None.
func (r *Resolver) Resolve(q queryir.Query) ([]bool, error) {
	m, err := r.Evaluate(q)
	if err != nil {
		return nil, err
	}
	return m.Broadcast(r.table.Len())
}

// Evaluate folds q into a mask without broadcasting it.
func (r *Resolver) Evaluate(q queryir.Query) (mask.Mask, error) {
	masks, err := queryir.Fold(q, r.resolveClause)
	if err != nil {
		return mask.None(), err
	}
	m, err := mask.And(masks...)
	if err != nil {
		return mask.None(), fmt.Errorf("combine root: %w", err)
	}

	slog.Debug("query resolved",
		"population", r.population,
		"rows", r.table.Len(),
		"result", m.String(),
	)
	return m, nil
}

// IDs evaluates q and returns the IDs of the selected rows in row order.
func (r *Resolver) IDs(q queryir.Query) ([]int64, error) {
	sel, err := r.Resolve(q)
	if err != nil {
		return nil, err
	}
	return frame.Select(r.table, sel)
}

// resolveClause is the fold step. Sub-trees are already resolved when it
// runs, so combinators only merge their children.
func (r *Resolver) resolveClause(c queryir.Clause, children [][]mask.Mask) (mask.Mask, error) {
	switch c.(type) {
	case queryir.And:
		merged, err := mergeChildren(children)
		if err != nil {
			return mask.None(), err
		}
		return mask.And(merged...)
	case queryir.Or:
		merged, err := mergeChildren(children)
		if err != nil {
			return mask.None(), err
		}
		return mask.Or(merged...)
	default:
		// Nested predicate sub-trees were resolved only to surface their
		// errors; the leaf is matched on its own.
		return r.resolveLeafSet([]queryir.Clause{c})
	}
}

// mergeChildren AND-folds the clauses of each child query.
func mergeChildren(children [][]mask.Mask) ([]mask.Mask, error) {
	merged := make([]mask.Mask, len(children))
	for i, child := range children {
		m, err := mask.And(child...)
		if err != nil {
			return nil, err
		}
		merged[i] = m
	}
	return merged, nil
}

// resolveLeafSet resolves the non-combinator clauses of one node.
//
//  1. A property that is not a column makes the whole node None.
//  2. The population and ID filter runs first; when it selects nothing
//     the properties are not evaluated.
//  3. The filter mask is AND-folded with each property mask.
func (r *Resolver) resolveLeafSet(clauses []queryir.Clause) (mask.Mask, error) {
	var (
		pop    *queryir.Population
		ids    []queryir.IDs
		leaves []queryir.Clause
	)
	for _, c := range clauses {
		switch c := c.(type) {
		case queryir.Leaf:
			if _, ok := r.table.Column(c.Property); !ok {
				slog.Debug("unknown property selects nothing",
					"property", c.Property,
					"population", r.population,
				)
				return mask.None(), nil
			}
			leaves = append(leaves, c)
		case queryir.Population:
			pop = &c
		case queryir.IDs:
			ids = append(ids, c)
		case queryir.NodeSetRef:
			leaves = append(leaves, c)
		default:
			return mask.None(), queryir.Errorf(queryir.ErrCodeMalformed, "%s cannot be resolved as a leaf", c.Key())
		}
	}

	m := circuitMask(r.table, r.population, pop, ids)
	if m.Empty() {
		return mask.None(), nil
	}

	for _, c := range leaves {
		pm, err := r.matchLeaf(c)
		if err != nil {
			return mask.None(), err
		}
		if m, err = mask.And(m, pm); err != nil {
			return mask.None(), err
		}
	}
	return m, nil
}

func (r *Resolver) matchLeaf(c queryir.Clause) (mask.Mask, error) {
	switch c := c.(type) {
	case queryir.NodeSetRef:
		return mask.None(), &queryir.QueryError{
			Code:    queryir.ErrCodeUnresolvedNodeSet,
			Message: fmt.Sprintf("node set %q must be expanded before resolution", c.Name),
			Path:    queryir.KeyNodeSet,
		}
	case queryir.Leaf:
		col, _ := r.table.Column(c.Property)
		return matchProperty(c.Property, col, c.Predicate)
	default:
		return mask.None(), queryir.Errorf(queryir.ErrCodeMalformed, "%s is not a property", c.Key())
	}
}
