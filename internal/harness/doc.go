// Package harness runs query conformance scenarios.
//
// A scenario loads a population description and an optional node-set file,
// stores both in a fresh in-memory SQLite database, reads the population
// back and resolves a list of queries against it. Each step may state the
// IDs, count or error code it expects; assertions then relate the
// selections of different steps to each other.
//
// # Scenario Format
//
// Scenarios are YAML files. Paths are relative to the scenario file:
//
//	name: layer_node_sets
//	description: "Compound node sets select the union of their members"
//	population: ../populations/nodes.yaml
//	node_sets: ../populations/node_sets.yaml
//	raise_missing: true
//	steps:
//	  - name: layer2
//	    query: {layer: 2}
//	    expect:
//	      ids: [0, 1]
//	  - name: mixed
//	    query: {$node_set: Mixed}
//	  - name: unknown
//	    query: {$node_set: Nope}
//	    expect:
//	      error: UNKNOWN_NODE_SET
//	assertions:
//	  - type: subset
//	    steps: [layer2, mixed]
//
// # Assertion Types
//
//   - subset: the selection of steps[0] is contained in that of steps[1]
//   - disjoint: the selections of steps share no ID
//   - union: the selection of step equals the union of steps
//   - contains: the selection of step includes every ID of ids
//   - excludes: the selection of step includes no ID of ids
//
// # Golden Files
//
// RunWithGolden compares the canonical JSON of every step's query,
// expanded query and selection against testdata/golden/<name>.golden.
// Regenerate them with:
//
//	go test ./internal/harness -update
package harness
