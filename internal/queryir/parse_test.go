package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/snapquery/internal/ir"
)

func TestParse_LeafShapes(t *testing.T) {
	q, err := ParseJSON([]byte(`{
		"layer": 4,
		"mtype": ["L4_PC", "L4_SS"],
		"x": [2.0, 5.0],
		"etype": {"$regex": "c.*"}
	}`))
	require.NoError(t, err)
	require.Len(t, q, 4)

	assert.Equal(t, Leaf{Property: "layer", Predicate: Equals{Value: ir.IRInt(4)}}, q[0])
	assert.Equal(t, Leaf{Property: "mtype", Predicate: OneOf{Values: []ir.IRValue{
		ir.IRString("L4_PC"), ir.IRString("L4_SS"),
	}}}, q[1])
	assert.Equal(t, Leaf{Property: "x", Predicate: Range{Lo: ir.IRFloat(2), Hi: ir.IRFloat(5)}}, q[2])

	leaf, ok := q[3].(Leaf)
	require.True(t, ok)
	re, ok := leaf.Predicate.(Regex)
	require.True(t, ok)
	assert.Equal(t, "c.*", re.Pattern)
}

func TestParse_KeyOrderPreserved(t *testing.T) {
	q := MustParseJSON(`{"z": 1, "$or": [], "a": 2, "population": "default"}`)

	keys := make([]string, len(q))
	for i, c := range q {
		keys[i] = c.Key()
	}
	assert.Equal(t, []string{"z", "$or", "a", "population"}, keys)
}

func TestParse_TwoElementListIsRangeOnlyWhenNumeric(t *testing.T) {
	q := MustParseJSON(`{"a": [1, 2], "b": ["x", "y"], "c": [1, 2, 3], "d": [1, "y"]}`)

	assert.IsType(t, Range{}, q[0].(Leaf).Predicate)
	assert.IsType(t, OneOf{}, q[1].(Leaf).Predicate)
	assert.IsType(t, OneOf{}, q[2].(Leaf).Predicate)
	assert.IsType(t, OneOf{}, q[3].(Leaf).Predicate)
}

func TestParse_Combinators(t *testing.T) {
	q := MustParseJSON(`{"$and": [{"$or": [{"a": 1}, {"a": 2}]}, {"b": 3}]}`)

	require.Len(t, q, 1)
	and, ok := q[0].(And)
	require.True(t, ok)
	require.Len(t, and.Children, 2)

	or, ok := and.Children[0][0].(Or)
	require.True(t, ok)
	require.Len(t, or.Children, 2)
	assert.Equal(t, Leaf{Property: "a", Predicate: Equals{Value: ir.IRInt(2)}}, or.Children[1][0])
}

func TestParse_ControlKeys(t *testing.T) {
	q := MustParseJSON(`{
		"population": ["A", "B"],
		"node_id": [2, 2, 5],
		"edge_id": 7,
		"$node_set": "Layer2"
	}`)

	assert.Equal(t, Population{Names: []string{"A", "B"}}, q[0])
	assert.Equal(t, IDs{Field: KeyNodeID, Values: []int64{2, 2, 5}}, q[1])
	assert.Equal(t, IDs{Field: KeyEdgeID, Values: []int64{7}}, q[2])
	assert.Equal(t, NodeSetRef{Name: "Layer2"}, q[3])
}

func TestParse_SinglePopulationAndNullIDs(t *testing.T) {
	q := MustParseJSON(`{"population": "default", "node_id": null}`)

	assert.Equal(t, Population{Names: []string{"default"}}, q[0])
	assert.Equal(t, IDs{Field: KeyNodeID, Unrestricted: true}, q[1])
}

func TestParse_EmptyIDList(t *testing.T) {
	q := MustParseJSON(`{"node_id": []}`)

	ids := q[0].(IDs)
	assert.False(t, ids.Unrestricted)
	assert.Empty(t, ids.Values)
}

func TestParse_NestedMapping(t *testing.T) {
	q := MustParseJSON(`{"layer": {"x": 1}}`)

	nested, ok := q[0].(Leaf).Predicate.(Nested)
	require.True(t, ok)
	assert.Equal(t, "x", nested.FirstKey())
	assert.Equal(t, "", Nested{}.FirstKey())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		json string
		code ErrorCode
		path string
	}{
		{
			name: "mixed operators",
			json: `{"mtype": {"$regex": "L.*", "x": 1}}`,
			code: ErrCodeMixedOperators,
			path: "mtype",
		},
		{
			name: "mixed operators nested deep",
			json: `{"$or": [{"a": 1}, {"mtype": {"x": 1, "$regex": "L.*"}}]}`,
			code: ErrCodeMixedOperators,
			path: "$or[1].mtype",
		},
		{
			name: "or not a list",
			json: `{"$or": {"a": 1}}`,
			code: ErrCodeMalformed,
			path: "$or",
		},
		{
			name: "and entry not a query",
			json: `{"$and": [{"a": 1}, 3]}`,
			code: ErrCodeMalformed,
			path: "$and[1]",
		},
		{
			name: "invalid regex",
			json: `{"mtype": {"$regex": "("}}`,
			code: ErrCodeInvalidRegex,
			path: "mtype.$regex",
		},
		{
			name: "regex pattern not string",
			json: `{"mtype": {"$regex": 4}}`,
			code: ErrCodeMalformed,
			path: "mtype.$regex",
		},
		{
			name: "regex at node level",
			json: `{"$regex": "L.*"}`,
			code: ErrCodeMalformed,
			path: "$regex",
		},
		{
			name: "population not a name",
			json: `{"population": 3}`,
			code: ErrCodeMalformed,
			path: "population",
		},
		{
			name: "population list with number",
			json: `{"population": ["a", 3]}`,
			code: ErrCodeMalformed,
			path: "population[1]",
		},
		{
			name: "node id not integer",
			json: `{"node_id": "one"}`,
			code: ErrCodeMalformed,
			path: "node_id",
		},
		{
			name: "node id list with fraction",
			json: `{"node_id": [1, 2.5]}`,
			code: ErrCodeMalformed,
			path: "node_id[1]",
		},
		{
			name: "node id beyond int64",
			json: `{"node_id": 1e19}`,
			code: ErrCodeMalformed,
			path: "node_id",
		},
		{
			name: "edge id list beyond int64",
			json: `{"edge_id": [1, -1e19]}`,
			code: ErrCodeMalformed,
			path: "edge_id[1]",
		},
		{
			name: "node set name not string",
			json: `{"$node_set": ["a"]}`,
			code: ErrCodeMalformed,
			path: "$node_set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.json))
			require.Error(t, err)
			assert.True(t, HasCode(err, tt.code), "got %v", err)

			var qe *QueryError
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, tt.path, qe.Path)
		})
	}
}

func TestParse_MixedOperatorsMessage(t *testing.T) {
	_, err := ParseJSON([]byte(`{"mtype": {"$regex": "L.*", "x": 1}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Value operators can't be used with plain values")
}

func TestParse_RootMustBeObject(t *testing.T) {
	_, err := Parse(ir.IRArray{})
	assert.True(t, HasCode(err, ErrCodeMalformed))

	_, err = ParseJSON([]byte(`{"a": `))
	require.Error(t, err)
	assert.False(t, IsQueryError(err), "decode errors are not query errors")
}

func TestParse_IntegralFloatIDs(t *testing.T) {
	q := MustParseJSON(`{"node_id": [1.0, 3]}`)
	assert.Equal(t, []int64{1, 3}, q[0].(IDs).Values)
}

func TestRegex_FullMatch(t *testing.T) {
	re, err := NewRegex("ab.*")
	require.NoError(t, err)

	assert.True(t, re.MatchString("abc"))
	assert.True(t, re.MatchString("ab"))
	assert.False(t, re.MatchString("xabc"))
	assert.False(t, re.MatchString("a"))

	alt, err := NewRegex("L2|L3")
	require.NoError(t, err)
	assert.True(t, alt.MatchString("L3"))
	assert.False(t, alt.MatchString("L2x"), "alternation is anchored as a whole")
}

func TestRegex_UncompiledMatchesNothing(t *testing.T) {
	assert.False(t, Regex{Pattern: "a+"}.MatchString("aaa"))
	assert.False(t, Regex{Pattern: "("}.MatchString("("))
	assert.False(t, Regex{}.MatchString(""))
}

func TestQueryError_Format(t *testing.T) {
	err := &QueryError{Code: ErrCodeUnknownModifier, Message: "Unknown query modifier: '$x'", Path: "mtype"}
	assert.Equal(t, "UNKNOWN_MODIFIER: Unknown query modifier: '$x' (at mtype)", err.Error())

	err = Errorf(ErrCodeMalformed, "bad %d", 1)
	assert.Equal(t, "MALFORMED_QUERY: bad 1", err.Error())
}

func TestEncode_RoundTrip(t *testing.T) {
	input := `{"$or":[{"population":"A","node_id":[1,2]},{"mtype":{"$regex":"L.*"}}],` +
		`"x":[1.5,2.5],"layer":[1,2,3],"node_id":null,"population":["A","B"],"$node_set":"S"}`

	q := MustParseJSON(input)
	encoded := Encode(q)

	data, err := ir.MarshalIRValue(encoded)
	require.NoError(t, err)
	assert.Equal(t, input, string(data))

	again, err := Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, Properties(q), Properties(again))
}
