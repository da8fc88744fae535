package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const populationYAML = `name: small
kind: node
ids: [100, 101, 102, 103]
properties:
  layer: {type: int, values: [1, 2, 2, 3]}
  mtype: {type: category, values: [L1_DAC, L2_TPC, L2_IPC, L3_TPC]}
  x: {type: float, values: [0.5, 1.5, 2.5, 3.5]}
`

const smallNodeSets = `L2: {layer: 2}
Outer: {x: [3.0, 4.0]}
Both: [L2, Outer]
`

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolve_DB(t *testing.T) {
	db := createTestDB(t)

	tests := []struct {
		name       string
		population string
		query      string
		want       []int64
	}{
		{"property", "default", `{"layer": 2}`, []int64{0, 1}},
		{"or", "default", `{"$or": [{"layer": 6}, {"mtype": {"$regex": "L4.*"}}]}`, []int64{3, 4, 5}},
		{"float range", "default", `{"x": [2.0, 5.0]}`, []int64{1, 2, 3}},
		{"node set", "default", `{"$node_set": "Mixed"}`, []int64{0, 1, 4}},
		{"node set and property", "default", `{"$node_set": "Layer4", "excitatory": true}`, []int64{3}},
		{"node ids", "default", `{"node_id": [5, 0], "layer": 2}`, []int64{0}},
		{"unknown property", "default", `{"soma": 1}`, []int64{}},
		{"other population", "default", `{"population": "other"}`, []int64{}},
		{"edges", "default__default__chemical", `{"@source_node": 0}`, []int64{10, 20}},
		{"edge ids", "default__default__chemical", `{"edge_id": [30, 40]}`, []int64{30, 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "--format", "json", "resolve", "--db", db, "-p", tt.population, "--query", tt.query)
			require.NoError(t, err, out)

			var result ResolveResult
			resp := decodeResponse(t, out, &result)
			assert.Equal(t, "ok", resp.Status)
			assert.Equal(t, testTraceID, resp.TraceID)
			assert.Equal(t, tt.population, result.Population)
			assert.Equal(t, tt.want, result.IDs)
			assert.Equal(t, len(tt.want), result.Selected)
			assert.Len(t, result.QueryHash, 64)
			assert.Nil(t, result.Mask)
		})
	}
}

func TestResolve_Text(t *testing.T) {
	db := createTestDB(t)

	out, err := execute(t, "resolve", "--db", db, "-p", "default", "--query", `{"layer": [2, 3]}`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)

	out, err = execute(t, "resolve", "--db", db, "-p", "default__default__chemical",
		"--query", `{"syn_weight": [1.0, 3.0]}`, "--mask")
	require.NoError(t, err)
	assert.Equal(t, "10\tfalse\n20\ttrue\n30\ttrue\n40\tfalse\n", out)
}

func TestResolve_QueryHashIgnoresKeyOrder(t *testing.T) {
	db := createTestDB(t)

	var a, b ResolveResult
	out, err := execute(t, "--format", "json", "resolve", "--db", db, "-p", "default", "--query", `{"layer": 2, "etype": "cNAC"}`)
	require.NoError(t, err)
	decodeResponse(t, out, &a)

	out, err = execute(t, "--format", "json", "resolve", "--db", db, "-p", "default", "--query", `{"etype": "cNAC", "layer": 2}`)
	require.NoError(t, err)
	decodeResponse(t, out, &b)

	assert.Equal(t, a.QueryHash, b.QueryHash)
	assert.Equal(t, a.IDs, b.IDs)
}

func TestResolve_TableAndNodeSetFiles(t *testing.T) {
	table := writeTestFile(t, "small.yaml", populationYAML)
	sets := writeTestFile(t, "sets.yaml", smallNodeSets)

	tests := []struct {
		query string
		want  []int64
	}{
		{`{"$node_set": "L2"}`, []int64{101, 102}},
		{`{"$node_set": "Both"}`, []int64{101, 102, 103}},
		{`{"mtype": "L1_DAC"}`, []int64{100}},
		{`{"node_id": [103, 100]}`, []int64{100, 103}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			out, err := execute(t, "--format", "json", "resolve", "--table", table, "--node-sets", sets, "--query", tt.query)
			require.NoError(t, err, out)

			var result ResolveResult
			decodeResponse(t, out, &result)
			assert.Equal(t, "small", result.Population)
			assert.Equal(t, 4, result.Size)
			assert.Equal(t, tt.want, result.IDs)
		})
	}
}

func TestResolve_NodeSetFileOverridesStore(t *testing.T) {
	db := createTestDB(t)
	sets := writeTestFile(t, "sets.json", `{"Layer2": {"layer": 6}}`)

	out, err := execute(t, "--format", "json", "resolve", "--db", db, "-p", "default",
		"--node-sets", sets, "--query", `{"$node_set": "Layer2"}`)
	require.NoError(t, err, out)

	var result ResolveResult
	decodeResponse(t, out, &result)
	assert.Equal(t, []int64{5}, result.IDs)
}

func TestResolve_QueryFile(t *testing.T) {
	db := createTestDB(t)
	query := writeTestFile(t, "query.yaml", "$or:\n  - layer: 6\n  - etype: bNAC\n")

	out, err := execute(t, "resolve", "--db", db, "-p", "default", "--query", query)
	require.NoError(t, err)
	assert.Equal(t, "4\n5\n", out)
}

func TestResolve_Errors(t *testing.T) {
	db := createTestDB(t)

	tests := []struct {
		name     string
		args     []string
		wantExit int
		wantCode string
	}{
		{"missing query", []string{"--db", db, "-p", "default"}, ExitCommandError, ErrCodeUsage},
		{"no source", []string{"--query", `{"layer": 2}`}, ExitCommandError, ErrCodeUsage},
		{"db and table", []string{"--db", db, "--table", "x.yaml", "--query", `{"layer": 2}`}, ExitCommandError, ErrCodeUsage},
		{"ambiguous population", []string{"--db", db, "--query", `{"layer": 2}`}, ExitCommandError, ErrCodeUsage},
		{"missing db", []string{"--db", filepath.Join(t.TempDir(), "none.db"), "--query", `{"layer": 2}`}, ExitCommandError, ErrCodeNotFound},
		{"unknown population", []string{"--db", db, "-p", "nope", "--query", `{"layer": 2}`}, ExitCommandError, ErrCodeNotFound},
		{"malformed query", []string{"--db", db, "-p", "default", "--query", `{"$and": 3}`}, ExitFailure, ErrCodeInvalidQuery},
		{"undecodable query", []string{"--db", db, "-p", "default", "--query", `{"layer": `}, ExitCommandError, ErrCodeLoadFailed},
		{"infinite bound", []string{"--db", db, "-p", "default", "--query", writeTestFile(t, "inf.yaml", "x: [-.inf, 3.0]\n")}, ExitCommandError, ErrCodeLoadFailed},
		{"unknown node set", []string{"--db", db, "-p", "default", "--query", `{"$node_set": "Nope"}`}, ExitFailure, ErrCodeNodeSet},
		{"float equality", []string{"--db", db, "-p", "default", "--query", `{"x": 2.0}`}, ExitFailure, ErrCodeInvalidQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--format", "json", "resolve"}, tt.args...)
			out, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			resp := decodeResponse(t, out, nil)
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, testTraceID, resp.TraceID)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code, resp.Error.Message)
		})
	}
}

func TestResolve_EdgesWithoutRaiseMissing(t *testing.T) {
	db := createTestDB(t)

	// Edge populations carry no node sets, so the reference stays unresolved.
	out, err := execute(t, "--format", "json", "resolve", "--db", db, "-p", "default__default__chemical",
		"--raise-missing=false", "--query", `{"$node_set": "Layer2"}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidQuery, resp.Error.Code)
}

func TestProperties(t *testing.T) {
	query := `{"$or": [{"layer": 2}, {"$node_set": "X", "mtype": {"$regex": "L2.*"}}], "population": "default", "node_id": [1]}`

	out, err := execute(t, "--format", "json", "properties", "--query", query)
	require.NoError(t, err)

	var result PropertiesResult
	decodeResponse(t, out, &result)
	assert.Equal(t, []string{"layer", "mtype"}, result.Properties)
	assert.Equal(t, []string{"X"}, result.NodeSets)

	out, err = execute(t, "properties", "--query", query)
	require.NoError(t, err)
	assert.Equal(t, "layer\nmtype\n$node_set X\n", out)
}

func TestProperties_Empty(t *testing.T) {
	out, err := execute(t, "--format", "json", "properties", "--query", `{}`)
	require.NoError(t, err)

	var result PropertiesResult
	decodeResponse(t, out, &result)
	assert.Equal(t, []string{}, result.Properties)
	assert.Equal(t, []string{}, result.NodeSets)
}

func TestExpand(t *testing.T) {
	db := createTestDB(t)

	out, err := execute(t, "expand", "--db", db, "-p", "default", "--query", `{"$node_set": "Layer2", "etype": "cNAC"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"etype":"cNAC","$and":[{"node_id":[0,1]}]}`+"\n", out)

	out, err = execute(t, "--format", "json", "expand", "--db", db, "-p", "default", "--query", `{"$node_set": "Inhibitory"}`)
	require.NoError(t, err)

	var result ExpandResult
	decodeResponse(t, out, &result)
	assert.Equal(t, "default", result.Population)
	assert.Len(t, result.QueryHash, 64)
}

func TestExpand_NoNodeSets(t *testing.T) {
	table := writeTestFile(t, "small.yaml", populationYAML)

	out, err := execute(t, "--format", "json", "expand", "--table", table, "--query", `{"$node_set": "L2"}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNodeSet, resp.Error.Code)

	// Queries without references expand to themselves.
	out, err = execute(t, "expand", "--table", table, "--query", `{"layer": 2}`)
	require.NoError(t, err)
	assert.Equal(t, `{"layer":2}`+"\n", out)
}

func TestImportAndPopulations(t *testing.T) {
	db := filepath.Join(t.TempDir(), "imported.db")
	table := writeTestFile(t, "small.yaml", populationYAML)
	sets := writeTestFile(t, "sets.yaml", smallNodeSets)

	out, err := execute(t, "--format", "json", "import", "--db", db, table, "--node-sets", sets)
	require.NoError(t, err, out)

	var imported ImportResult
	resp := decodeResponse(t, out, &imported)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, imported.NodeSets)
	require.Len(t, imported.Populations, 1)
	assert.Equal(t, "small", imported.Populations[0].Name)
	assert.Equal(t, 4, imported.Populations[0].Size)
	assert.Equal(t, []string{"layer", "mtype", "x"}, imported.Populations[0].Properties)

	out, err = execute(t, "populations", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "small\tnode\t4\tlayer,mtype,x\n", out)

	// The only stored population is picked without -p.
	out, err = execute(t, "resolve", "--db", db, "--query", `{"$node_set": "Both"}`)
	require.NoError(t, err)
	assert.Equal(t, "101\n102\n103\n", out)
}

func TestImport_Text(t *testing.T) {
	db := filepath.Join(t.TempDir(), "imported.db")
	table := writeTestFile(t, "small.yaml", populationYAML)

	out, err := execute(t, "import", "--db", db, table)
	require.NoError(t, err)
	assert.Equal(t, "imported node population \"small\": 4 rows, 3 properties\n", out)
}

func TestImport_Errors(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "imported.db")
	bad := writeTestFile(t, "bad.yaml", "name: bad\nkind: synapse\n")
	cyclic := writeTestFile(t, "cyclic.json", `{"A": ["B"], "B": ["A"]}`)

	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"nothing", []string{"--db", db}, ErrCodeUsage},
		{"bad population", []string{"--db", db, bad}, ErrCodeLoadFailed},
		{"missing file", []string{"--db", db, filepath.Join(dir, "none.yaml")}, ErrCodeLoadFailed},
		{"cyclic node sets", []string{"--db", db, "--node-sets", cyclic}, ErrCodeNodeSet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--format", "json", "import"}, tt.args...)
			out, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decodeResponse(t, out, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code, resp.Error.Message)
		})
	}

	// Nothing was written: parsing fails before the database is opened.
	_, err := os.Stat(db)
	assert.True(t, os.IsNotExist(err))
}

func TestPopulations(t *testing.T) {
	db := createTestDB(t)

	out, err := execute(t, "--format", "json", "populations", "--db", db)
	require.NoError(t, err)

	var infos []struct {
		Name       string   `json:"name"`
		Kind       string   `json:"kind"`
		Size       int      `json:"size"`
		Properties []string `json:"properties"`
	}
	decodeResponse(t, out, &infos)
	require.Len(t, infos, 2)
	assert.Equal(t, "default", infos[0].Name)
	assert.Equal(t, "node", infos[0].Kind)
	assert.Equal(t, 6, infos[0].Size)
	assert.Equal(t, "default__default__chemical", infos[1].Name)
	assert.Equal(t, "edge", infos[1].Kind)
	assert.Equal(t, []string{"@source_node", "@target_node", "syn_weight"}, infos[1].Properties)
}

func TestPopulations_MissingDB(t *testing.T) {
	out, err := execute(t, "--format", "json", "populations", "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}
