package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/snapquery/internal/ir"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"basic_selection", "node_sets"} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshot(t *testing.T) {
	result := NewResult()
	result.Population = "default"
	result.AddStepTrace(StepTrace{
		Step:     "b",
		Query:    ir.NewIRObject(ir.F("layer", ir.IRInt(2))),
		Expanded: ir.NewIRObject(ir.F("layer", ir.IRInt(2))),
		IDs:      []int64{0, 1},
	})
	result.AddStepTrace(StepTrace{
		Step:  "a",
		Query: ir.NewIRObject(ir.F("$node_set", ir.IRString("Nope"))),
		IDs:   []int64{},
		Error: "UNKNOWN_NODE_SET",
	})

	got, err := ir.MarshalCanonical(Snapshot("snap", result))
	require.NoError(t, err)

	// Keys are sorted; step order is kept.
	want := `{"population":"default","scenario":"snap","steps":[` +
		`{"expanded":{"layer":2},"ids":[0,1],"query":{"layer":2},"step":"b"},` +
		`{"error":"UNKNOWN_NODE_SET","query":{"$node_set":"Nope"},"step":"a"}]}`
	assert.Equal(t, want, string(got))
}
