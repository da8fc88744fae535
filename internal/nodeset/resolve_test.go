package nodeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/snapquery/internal/engine"
	"github.com/roach88/snapquery/internal/ir"
	"github.com/roach88/snapquery/internal/queryir"
	"github.com/roach88/snapquery/internal/testutil"
)

func encode(t *testing.T, q queryir.Query) string {
	t.Helper()
	data, err := ir.MarshalIRValue(queryir.Encode(q))
	require.NoError(t, err)
	return string(data)
}

func TestResolve_Rewrites(t *testing.T) {
	reg := mustRegistry(t, circuitNodeSets)
	target := nodesTarget(t)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "adds and clause",
			query: `{"$node_set": "Layer2"}`,
			want:  `{"$and":[{"node_id":[0,1]}]}`,
		},
		{
			name:  "appends to existing and clause",
			query: `{"$and": [{"etype": "cNAC"}], "$node_set": "Layer2"}`,
			want:  `{"$and":[{"etype":"cNAC"},{"node_id":[0,1]}]}`,
		},
		{
			name:  "existing and clause keeps its position",
			query: `{"$node_set": "Layer2", "$and": [{"etype": "cNAC"}], "layer": 2}`,
			want:  `{"$and":[{"etype":"cNAC"},{"node_id":[0,1]}],"layer":2}`,
		},
		{
			name:  "other keys keep their order",
			query: `{"layer": 2, "$node_set": "Excitatory", "etype": "cADpyr"}`,
			want:  `{"layer":2,"etype":"cADpyr","$and":[{"node_id":[0,2,3,5]}]}`,
		},
		{
			name:  "inside or",
			query: `{"$or": [{"$node_set": "Layer2"}, {"layer": 6}]}`,
			want:  `{"$or":[{"$and":[{"node_id":[0,1]}]},{"layer":6}]}`,
		},
		{
			name:  "compound",
			query: `{"$node_set": "Layers24"}`,
			want:  `{"$and":[{"node_id":[0,1,3,4]}]}`,
		},
		{
			name:  "empty materialization",
			query: `{"$node_set": "Elsewhere"}`,
			want:  `{"$and":[{"node_id":[]}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := Resolve(queryir.MustParseJSON(tt.query), reg, target, true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, encode(t, resolved))
			assert.False(t, queryir.HasNodeSets(resolved))
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	reg := mustRegistry(t, circuitNodeSets)
	target := nodesTarget(t)

	once, err := Resolve(queryir.MustParseJSON(`{"$or": [{"$node_set": "Layer2"}, {"$node_set": "Layer4", "excitatory": true}]}`), reg, target, true)
	require.NoError(t, err)

	twice, err := Resolve(once, reg, target, true)
	require.NoError(t, err)
	assert.Equal(t, encode(t, once), encode(t, twice))

	plain := queryir.MustParseJSON(`{"layer": 2}`)
	same, err := Resolve(plain, reg, target, true)
	require.NoError(t, err)
	assert.Equal(t, plain, same)
}

func TestResolve_DoesNotModifyInput(t *testing.T) {
	reg := mustRegistry(t, circuitNodeSets)
	q := queryir.MustParseJSON(`{"$and": [{"etype": "cNAC"}], "$node_set": "Layer2"}`)
	before := encode(t, q)

	_, err := Resolve(q, reg, nodesTarget(t), true)
	require.NoError(t, err)

	assert.Equal(t, before, encode(t, q))
	assert.True(t, queryir.HasNodeSets(q))
}

func TestResolve_ThenEvaluate(t *testing.T) {
	reg := mustRegistry(t, circuitNodeSets)
	nodes := testutil.Nodes(t)
	target := engine.New(nodes, testutil.NodePopulation)

	tests := []struct {
		query string
		want  []int
	}{
		{`{"$node_set": "Layer2", "excitatory": true}`, []int{0}},
		{`{"$or": [{"$node_set": "Layer2"}, {"$node_set": "Picked"}]}`, []int{0, 1, 2, 5}},
		{`{"$node_set": "Layers24", "$and": [{"etype": "cADpyr"}]}`, []int{0, 3}},
		{`{"$node_set": "Elsewhere"}`, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resolved, err := Resolve(queryir.MustParseJSON(tt.query), reg, target, true)
			require.NoError(t, err)

			sel, err := target.Resolve(resolved)
			require.NoError(t, err)
			assert.Equal(t, tt.want, testutil.Selected(sel))
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	reg := mustRegistry(t, circuitNodeSets)
	target := nodesTarget(t)

	_, err := Resolve(queryir.MustParseJSON(`{"$or": [{"$node_set": "Nope"}]}`), reg, target, true)
	assert.True(t, IsUnknown(err), "got %v", err)

	_, err = Resolve(queryir.MustParseJSON(`{"$node_set": "Typo"}`), reg, target, true)
	assert.True(t, IsMissingProperty(err), "got %v", err)

	resolved, err := Resolve(queryir.MustParseJSON(`{"$node_set": "Typo"}`), reg, target, false)
	require.NoError(t, err)
	assert.Equal(t, `{"$and":[{"node_id":[]}]}`, encode(t, resolved))
}
