// Package circuit binds a population table to its name, entity kind and
// node sets, and answers queries against it.
package circuit

import (
	"log/slog"
	"slices"

	"github.com/roach88/snapquery/internal/engine"
	"github.com/roach88/snapquery/internal/frame"
	"github.com/roach88/snapquery/internal/nodeset"
	"github.com/roach88/snapquery/internal/queryir"
)

// Population is a named table of nodes or edges.
//
// Queries are expanded against the population's node sets, then resolved
// by the engine. Population is immutable and safe for concurrent use.
type Population struct {
	name         string
	kind         frame.Kind
	table        frame.Table
	nodeSets     *nodeset.Registry
	raiseMissing bool
	resolver     *engine.Resolver
}

// Option configures a Population.
type Option func(*Population)

// WithNodeSets sets the registry $node_set references are expanded from.
// Without one, a query holding $node_set fails to resolve.
func WithNodeSets(reg *nodeset.Registry) Option {
	return func(p *Population) {
		p.nodeSets = reg
	}
}

// WithRaiseMissing controls whether a node set that references a property
// the population lacks is an error (the default) or selects nothing.
func WithRaiseMissing(raise bool) Option {
	return func(p *Population) {
		p.raiseMissing = raise
	}
}

// NewPopulation creates a population over t.
func NewPopulation(name string, kind frame.Kind, t frame.Table, opts ...Option) *Population {
	p := &Population{
		name:         name,
		kind:         kind,
		table:        t,
		raiseMissing: true,
		resolver:     engine.New(t, name),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the population name.
func (p *Population) Name() string { return p.name }

// Population implements nodeset.Target.
func (p *Population) Population() string { return p.name }

// Kind returns whether the population holds nodes or edges.
func (p *Population) Kind() frame.Kind { return p.kind }

// Table implements nodeset.Target.
func (p *Population) Table() frame.Table { return p.table }

// Size returns the number of entities.
func (p *Population) Size() int { return p.table.Len() }

// NodeSets returns the population's registry, or nil.
func (p *Population) NodeSets() *nodeset.Registry { return p.nodeSets }

// PropertyNames returns the population's column names, sorted.
func (p *Population) PropertyNames() []string {
	names := p.table.ColumnNames()
	slices.Sort(names)
	return names
}

// Expand resolves the $node_set references of q.
func (p *Population) Expand(q queryir.Query) (queryir.Query, error) {
	if p.nodeSets == nil || !queryir.HasNodeSets(q) {
		return q, nil
	}
	return nodeset.Resolve(q, p.nodeSets, p, p.raiseMissing)
}

// Mask expands and resolves q, returning one boolean per entity.
func (p *Population) Mask(q queryir.Query) ([]bool, error) {
	expanded, err := p.Expand(q)
	if err != nil {
		return nil, err
	}
	return p.resolver.Resolve(expanded)
}

// IDs expands and resolves q, returning the selected IDs in table order.
func (p *Population) IDs(q queryir.Query) ([]int64, error) {
	sel, err := p.Mask(q)
	if err != nil {
		return nil, err
	}
	ids, err := frame.Select(p.table, sel)
	if err != nil {
		return nil, err
	}
	slog.Debug("population query",
		"population", p.name,
		"kind", p.kind,
		"selected", len(ids),
		"size", p.table.Len(),
	)
	return ids, nil
}

// NodeSetIDs materializes the node set called name.
func (p *Population) NodeSetIDs(name string) ([]int64, error) {
	if p.nodeSets == nil {
		return nil, &nodeset.Error{Code: nodeset.ErrCodeUnknown, NodeSet: name, Message: "population has no node sets"}
	}
	ns, err := p.nodeSets.Lookup(name)
	if err != nil {
		return nil, err
	}
	return ns.IDs(p, p.raiseMissing)
}

// Properties returns the properties q references, sorted.
func (p *Population) Properties(q queryir.Query) []string {
	return queryir.Properties(q)
}

// Validate reports the clauses of q that will select nothing or fail
// against this population's schema.
func (p *Population) Validate(q queryir.Query) queryir.ValidationResult {
	return queryir.Validate(q, queryir.SchemaOf(p.table))
}
