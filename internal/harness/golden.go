package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/snapquery/internal/ir"
)

// Snapshot converts a result to the IR document stored in golden files.
// Canonical JSON sorts its keys, so the document's field order is free.
func Snapshot(scenarioName string, result *Result) ir.IRObject {
	steps := make(ir.IRArray, len(result.Trace))
	for i, st := range result.Trace {
		step := ir.IRObject{
			ir.F("step", ir.IRString(st.Step)),
			ir.F("query", st.Query),
		}
		if st.Error != "" {
			step = append(step, ir.F("error", ir.IRString(st.Error)))
		} else {
			ids := make(ir.IRArray, len(st.IDs))
			for j, id := range st.IDs {
				ids[j] = ir.IRInt(id)
			}
			step = append(step, ir.F("ids", ids))
		}
		if st.Expanded != nil {
			step = append(step, ir.F("expanded", st.Expanded))
		}
		steps[i] = step
	}

	return ir.IRObject{
		ir.F("scenario", ir.IRString(scenarioName)),
		ir.F("population", ir.IRString(result.Population)),
		ir.F("steps", steps),
	}
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := ir.MarshalCanonical(Snapshot(scenarioName, result))
	if err != nil {
		return err
	}
	traceJSON = append(traceJSON, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
