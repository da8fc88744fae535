package nodeset

import (
	"fmt"
	"strings"
)

// Cycle describes node sets that reference each other.
type Cycle struct {
	Path    []string `json:"path"`    // e.g. ["A", "B", "A"]
	Message string   `json:"message"` // Human-readable description
}

// Cycles reports every group of node sets that reference each other,
// directly or through other node sets.
//
// The registry's reference graph is searched for strongly connected
// components with Tarjan's algorithm; each component with more than one
// member, or a node set that references itself, is one Cycle. Node sets
// are visited in definition order so the result is deterministic.
func (r *Registry) Cycles() []Cycle {
	graph := make(referenceGraph, len(r.names))
	for _, name := range r.names {
		graph[name] = r.sets[name].def.References()
	}

	var cycles []Cycle
	for _, scc := range tarjanSCC(r.names, graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}
	return cycles
}

// referenceGraph maps a node-set name to the names it references.
type referenceGraph map[string][]string

func hasSelfLoop(node string, graph referenceGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components, starting from nodes in
// order. Edges to names outside the graph are ignored.
func tarjanSCC(nodes []string, graph referenceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, known := graph[w]; !known {
				continue
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func sccToCycle(scc []string, graph referenceGraph) Cycle {
	if len(scc) == 1 {
		return Cycle{
			Path:    []string{scc[0], scc[0]},
			Message: fmt.Sprintf("node set references itself: %s -> %s", scc[0], scc[0]),
		}
	}
	path := cyclePath(scc, graph)
	return Cycle{
		Path:    path,
		Message: fmt.Sprintf("node sets reference each other: %s", strings.Join(path, " -> ")),
	}
}

// cyclePath follows edges inside the component from its last-popped
// member until it returns to the start.
func cyclePath(scc []string, graph referenceGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[len(scc)-1]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true
		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
