package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/snapquery/internal/frame"
	"github.com/roach88/snapquery/internal/nodeset"
	"github.com/roach88/snapquery/internal/store"
	"github.com/roach88/snapquery/internal/testutil"
)

const testTraceID = "trace-test"

const testNodeSets = `{
	"Layer2": {"layer": 2},
	"Layer4": {"layer": 4},
	"Inhibitory": {"excitatory": false},
	"Mixed": ["Layer2", "Inhibitory"]
}`

// createTestDB stores the node and edge fixtures plus testNodeSets.
func createTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "circuit.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.WritePopulation(ctx, testutil.NodePopulation, frame.KindNode, testutil.Nodes(t)))
	require.NoError(t, st.WritePopulation(ctx, testutil.EdgePopulation, frame.KindEdge, testutil.Edges(t)))

	reg, err := nodeset.ParseJSON([]byte(testNodeSets))
	require.NoError(t, err)
	require.NoError(t, st.WriteNodeSets(ctx, reg))
	return path
}

// execute runs the root command with args and a fixed trace ID.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newRootCommand(&RootOptions{TraceIDs: testutil.NewFixedTraceGenerator(testTraceID)})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decodeResponse parses a JSON response, decoding its data into data.
func decodeResponse(t *testing.T, out string, data interface{}) CLIResponse {
	t.Helper()
	var raw struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), "output: %s", out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.CLIResponse
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "snapquery", cmd.Use)
	assert.Contains(t, cmd.Long, "$node_set")
	assert.Equal(t, "0.1.0 (query format 1)", cmd.Version)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"resolve", "properties", "expand", "validate", "import", "populations"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestSourceFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"resolve", "expand", "validate"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)

			for _, flag := range []string{"db", "population", "table", "node-sets", "raise-missing", "query"} {
				assert.NotNil(t, sub.Flags().Lookup(flag), "%s should have --%s", name, flag)
			}
			assert.Equal(t, "true", sub.Flags().Lookup("raise-missing").DefValue)
			assert.Equal(t, "p", sub.Flags().Lookup("population").Shorthand)
		})
	}
}

func TestRequiredDBFlag(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"import", "populations"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		flag := sub.Flags().Lookup("db")
		require.NotNil(t, flag)
		assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag])
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "properties", "--query", `{"a": 1}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
