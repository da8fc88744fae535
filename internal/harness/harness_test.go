package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_BasicSelection(t *testing.T) {
	result, err := Run(loadTestScenario(t, "basic_selection"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "default", result.Population)
	require.Len(t, result.Trace, 7)

	st, ok := result.Step("float_equality")
	require.True(t, ok)
	assert.Equal(t, "TYPE_MISMATCH", st.Error)
	assert.Empty(t, st.IDs)
}

func TestRun_NodeSets(t *testing.T) {
	result, err := Run(loadTestScenario(t, "node_sets"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	st, ok := result.Step("unknown")
	require.True(t, ok)
	assert.Equal(t, "UNKNOWN_NODE_SET", st.Error)
	assert.Nil(t, st.Expanded)
}

func TestRun_RaiseMissing(t *testing.T) {
	s := loadTestScenario(t, "missing_property")

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	// The same scenario with raise_missing on fails the Soma steps.
	raise := true
	s.RaiseMissing = &raise
	result, err = Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	st, _ := result.Step("soma")
	assert.Equal(t, "MISSING_PROPERTY", st.Error)
	st, _ = result.Step("layer2")
	assert.Equal(t, []int64{0, 1}, st.IDs)
}

func TestRun_ExpectMismatch(t *testing.T) {
	s := loadTestScenario(t, "basic_selection")
	s.Steps[0].Expect.IDs = []int64{0}
	count := 3
	s.Steps[5].Expect.Count = &count
	s.Steps[6].Expect.Error = "UNKNOWN_NODE_SET"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], `step "layer2": expected ids [0], got [0 1]`)
	assert.Contains(t, result.Errors[1], "expected 3 selected, got 0")
	assert.Contains(t, result.Errors[2], "expected error UNKNOWN_NODE_SET, got TYPE_MISMATCH")
}

func TestRun_UnexpectedError(t *testing.T) {
	s := loadTestScenario(t, "node_sets")
	s.Steps[5].Expect = &ExpectClause{IDs: []int64{1}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error UNKNOWN_NODE_SET")
}

func TestRun_BadPopulation(t *testing.T) {
	s := loadTestScenario(t, "basic_selection")
	s.Population = filepath.Join(t.TempDir(), "none.yaml")

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set up scenario basic_selection")
}

func TestCheckExpect(t *testing.T) {
	zero := 0
	tests := []struct {
		name   string
		st     StepTrace
		expect *ExpectClause
		want   string
	}{
		{"no expect", StepTrace{IDs: []int64{1}}, nil, ""},
		{"ids match", StepTrace{IDs: []int64{1, 2}}, &ExpectClause{IDs: []int64{1, 2}}, ""},
		{"order matters", StepTrace{IDs: []int64{1, 2}}, &ExpectClause{IDs: []int64{2, 1}}, "expected ids [2 1], got [1 2]"},
		{"count zero", StepTrace{IDs: []int64{}}, &ExpectClause{Count: &zero}, ""},
		{"error match", StepTrace{Error: "TYPE_MISMATCH"}, &ExpectClause{Error: "TYPE_MISMATCH"}, ""},
		{"error instead of ids", StepTrace{IDs: []int64{3}}, &ExpectClause{Error: "TYPE_MISMATCH"}, "expected error TYPE_MISMATCH, got ids [3]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkExpect(tt.st, tt.expect))
		})
	}
}
