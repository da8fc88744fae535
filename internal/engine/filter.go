package engine

import (
	"log/slog"

	"github.com/roach88/snapquery/internal/frame"
	"github.com/roach88/snapquery/internal/mask"
	"github.com/roach88/snapquery/internal/queryir"
)

// populationMask scopes a branch to the table's population.
func populationMask(population string, p queryir.Population) mask.Mask {
	if p.Contains(population) {
		return mask.All()
	}
	slog.Debug("population mismatch",
		"population", population,
		"requested", p.Names,
	)
	return mask.None()
}

// idMask returns the positional mask of ids within t.
//
// Unrestricted selects every row. IDs that are not in the table are
// ignored and duplicates select their row once.
func idMask(t frame.Table, ids queryir.IDs) mask.Mask {
	if ids.Unrestricted {
		return mask.All()
	}
	out := make([]bool, t.Len())
	for _, id := range ids.Values {
		if pos, ok := t.Position(id); ok {
			out[pos] = true
		}
	}
	return mask.Of(out)
}

// circuitMask applies the population and ID clauses of a node.
//
// A population mismatch discards the ID clauses unread. Otherwise node_id
// takes precedence over edge_id when a leaf set carries both. Resolve never
// builds such a leaf set: query keys resolve one clause per leaf set and
// their masks intersect.
func circuitMask(t frame.Table, population string, pop *queryir.Population, ids []queryir.IDs) mask.Mask {
	if pop != nil && !pop.Contains(population) {
		return populationMask(population, *pop)
	}
	if len(ids) == 0 {
		return mask.All()
	}
	chosen := ids[0]
	for _, c := range ids {
		if c.Field == queryir.KeyNodeID {
			chosen = c
			break
		}
	}
	return idMask(t, chosen)
}
