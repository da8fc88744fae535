// Package nodeset holds named node-set definitions and expands $node_set
// references in queries into concrete node_id predicates.
package nodeset

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/snapquery/internal/engine"
	"github.com/roach88/snapquery/internal/frame"
	"github.com/roach88/snapquery/internal/ir"
	"github.com/roach88/snapquery/internal/queryir"
)

// Target is the population a node set is materialized in.
// *engine.Resolver implements it.
type Target interface {
	Table() frame.Table
	Population() string
}

// Definition is the body of a node set.
//
// This is a sealed interface - only types in this package implement it.
type Definition interface {
	// References returns the node-set names the definition depends on.
	References() []string

	// Document returns the definition in node-set file form.
	Document() ir.IRValue

	definition() // Marker method - seals interface to this package
}

// Rule selects the rows matching a query, e.g.
// {"mtype": ["L2_TPC"], "population": "default"}.
type Rule struct {
	Query queryir.Query
}

func (r Rule) References() []string { return queryir.NodeSets(r.Query) }
func (r Rule) Document() ir.IRValue { return queryir.Encode(r.Query) }
func (Rule) definition() {}

// Compound is the union of other node sets, e.g. ["Layer2", "Layer3"].
type Compound struct {
	Names []string
}

func (c Compound) References() []string { return slices.Clone(c.Names) }

func (c Compound) Document() ir.IRValue {
	arr := make(ir.IRArray, len(c.Names))
	for i, n := range c.Names {
		arr[i] = ir.IRString(n)
	}
	return arr
}

func (Compound) definition() {}

// Entry names a definition.
type Entry struct {
	Name       string
	Definition Definition
}

// Registry maps names to node sets. It is immutable after construction
// and safe for concurrent use.
type Registry struct {
	names []string
	sets  map[string]*NodeSet
}

// NewRegistry builds a registry from entries, in order.
//
// Returns error if a name repeats or if node sets reference each other in
// a cycle. References to unknown names are reported when the referencing
// node set is materialized.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		names: make([]string, 0, len(entries)),
		sets:  make(map[string]*NodeSet, len(entries)),
	}
	for _, e := range entries {
		if _, dup := r.sets[e.Name]; dup {
			return nil, newError(ErrCodeDuplicate, e.Name, "defined more than once")
		}
		if e.Definition == nil {
			return nil, newError(ErrCodeInvalid, e.Name, "definition is nil")
		}
		r.names = append(r.names, e.Name)
		r.sets[e.Name] = &NodeSet{name: e.Name, def: e.Definition, reg: r}
	}

	if cycles := r.Cycles(); len(cycles) > 0 {
		c := cycles[0]
		return nil, newError(ErrCodeCycle, c.Path[0], "%s", c.Message)
	}
	return r, nil
}

// Names returns the node-set names in definition order.
func (r *Registry) Names() []string { return slices.Clone(r.names) }

// Len returns the number of node sets.
func (r *Registry) Len() int { return len(r.names) }

// Get returns the node set called name.
func (r *Registry) Get(name string) (*NodeSet, bool) {
	ns, ok := r.sets[name]
	return ns, ok
}

// Lookup is like Get but returns an unknown node-set error.
func (r *Registry) Lookup(name string) (*NodeSet, error) {
	ns, ok := r.sets[name]
	if !ok {
		return nil, newError(ErrCodeUnknown, name, "not defined")
	}
	return ns, nil
}

// Dangling returns the referenced names that no node set defines, sorted.
func (r *Registry) Dangling() []string {
	var out []string
	for _, name := range r.names {
		for _, ref := range r.sets[name].def.References() {
			if _, ok := r.sets[ref]; !ok {
				out = append(out, ref)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// NodeSet is a named definition bound to its registry.
type NodeSet struct {
	name string
	def  Definition
	reg  *Registry
}

// Name returns the node-set name.
func (ns *NodeSet) Name() string { return ns.name }

// Definition returns the node-set body.
func (ns *NodeSet) Definition() Definition { return ns.def }

// IsCompound reports whether the node set is a union of other node sets.
func (ns *NodeSet) IsCompound() bool {
	_, ok := ns.def.(Compound)
	return ok
}

// Hash returns a fingerprint of the name and definition.
func (ns *NodeSet) Hash() (string, error) {
	return ir.NodeSetHash(ns.name, ns.def.Document())
}

// IDs materializes the node set in target, as sorted unique IDs.
//
// A rule that references a property target does not have fails with a
// MISSING_PROPERTY error when raiseMissing is set, and selects nothing
// otherwise.
func (ns *NodeSet) IDs(target Target, raiseMissing bool) ([]int64, error) {
	var (
		ids []int64
		err error
	)
	switch d := ns.def.(type) {
	case Compound:
		ids, err = ns.compoundIDs(d, target, raiseMissing)
	case Rule:
		ids, err = ns.ruleIDs(d, target, raiseMissing)
	default:
		return nil, newError(ErrCodeInvalid, ns.name, "unsupported definition %T", d)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("node set materialized",
		"node_set", ns.name,
		"population", target.Population(),
		"ids", len(ids),
	)
	return ids, nil
}

func (ns *NodeSet) compoundIDs(c Compound, target Target, raiseMissing bool) ([]int64, error) {
	ids := []int64{}
	for _, name := range c.Names {
		child, err := ns.reg.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("node set %q: %w", ns.name, err)
		}
		childIDs, err := child.IDs(target, raiseMissing)
		if err != nil {
			return nil, err
		}
		ids = append(ids, childIDs...)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func (ns *NodeSet) ruleIDs(rule Rule, target Target, raiseMissing bool) ([]int64, error) {
	q, err := Resolve(rule.Query, ns.reg, target, raiseMissing)
	if err != nil {
		return nil, fmt.Errorf("node set %q: %w", ns.name, err)
	}

	tbl := target.Table()
	for _, prop := range queryir.Properties(q) {
		if _, ok := tbl.Column(prop); ok {
			continue
		}
		if raiseMissing {
			return nil, newError(ErrCodeMissingProperty, ns.name,
				"property %q not in population %q", prop, target.Population())
		}
		return []int64{}, nil
	}

	ids, err := engine.New(tbl, target.Population()).IDs(q)
	if err != nil {
		return nil, &Error{Code: ErrCodeInvalid, NodeSet: ns.name, Message: "rule does not resolve", Err: err}
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}
