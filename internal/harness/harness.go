package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/snapquery/internal/circuit"
	"github.com/roach88/snapquery/internal/ir"
	"github.com/roach88/snapquery/internal/loader"
	"github.com/roach88/snapquery/internal/nodeset"
	"github.com/roach88/snapquery/internal/queryir"
	"github.com/roach88/snapquery/internal/store"
)

// ErrCodeUnexpected is recorded for step failures that carry no query or
// node-set error code.
const ErrCodeUnexpected = "UNEXPECTED_ERROR"

// Harness is the test execution engine.
type Harness struct {
	store      *store.Store
	population *circuit.Population
	logger     *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, so the
// population and node sets go through the same storage round trip as an
// imported database.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load the population and node-set files and store them
// 3. Load the population back from the store
// 4. Resolve every step and check its expect clause
// 5. Evaluate assertions over the step selections
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	if err := h.setup(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to set up scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	result.Population = h.population.Name()
	if err := h.executeSteps(scenario, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// setup stores the scenario's population and node sets, then loads the
// population back.
func (h *Harness) setup(ctx context.Context, scenario *Scenario) error {
	pf, err := loader.LoadPopulation(scenario.Population)
	if err != nil {
		return err
	}
	if err := h.store.WritePopulation(ctx, pf.Name, pf.Kind, pf.Table); err != nil {
		return err
	}

	if scenario.NodeSets != "" {
		reg, err := loader.LoadNodeSets(scenario.NodeSets)
		if err != nil {
			return err
		}
		if err := h.store.WriteNodeSets(ctx, reg); err != nil {
			return err
		}
	}

	p, err := h.store.LoadPopulation(ctx, pf.Name, circuit.WithRaiseMissing(scenario.RaisesMissing()))
	if err != nil {
		return err
	}
	h.population = p
	h.logger.Info("population loaded",
		"population", p.Name(),
		"kind", p.Kind(),
		"size", p.Size(),
	)
	return nil
}

// executeSteps resolves every step and validates expect clauses.
//
// A step that fails to parse, expand or resolve is recorded with its error
// code rather than aborting the scenario. Only an undecodable query
// document aborts, since it means the scenario file itself is broken.
func (h *Harness) executeSteps(scenario *Scenario, result *Result) error {
	for i := range scenario.Steps {
		step := &scenario.Steps[i]

		doc, err := loader.FromYAMLNode(scenario.Path(), &step.Query)
		if err != nil {
			return fmt.Errorf("step %q: %w", step.Name, err)
		}

		st := h.resolve(step.Name, doc)
		result.AddStepTrace(st)

		if msg := checkExpect(st, step.Expect); msg != "" {
			result.AddError(fmt.Sprintf("step %q: %s", step.Name, msg))
		}

		h.logger.Info("step completed",
			"step", step.Name,
			"selected", len(st.IDs),
			"error", st.Error,
		)
	}
	return nil
}

func (h *Harness) resolve(name string, doc ir.IRValue) StepTrace {
	st := StepTrace{Step: name, Query: doc, IDs: []int64{}}

	q, err := queryir.Parse(doc)
	if err != nil {
		st.Error = errorCode(err)
		return st
	}
	expanded, err := h.population.Expand(q)
	if err != nil {
		st.Error = errorCode(err)
		return st
	}
	st.Expanded = queryir.Encode(expanded)

	ids, err := h.population.IDs(expanded)
	if err != nil {
		st.Error = errorCode(err)
		return st
	}
	st.IDs = ids
	return st
}

// checkExpect returns a description of how st deviates from e, or "".
func checkExpect(st StepTrace, e *ExpectClause) string {
	if e == nil {
		return ""
	}
	if e.Error != "" {
		if st.Error != e.Error {
			return fmt.Sprintf("expected error %s, got %s", e.Error, describeOutcome(st))
		}
		return ""
	}
	if st.Error != "" {
		return fmt.Sprintf("unexpected error %s", st.Error)
	}
	if e.IDs != nil && !slices.Equal(e.IDs, st.IDs) {
		return fmt.Sprintf("expected ids %v, got %v", e.IDs, st.IDs)
	}
	if e.Count != nil && *e.Count != len(st.IDs) {
		return fmt.Sprintf("expected %d selected, got %d", *e.Count, len(st.IDs))
	}
	return ""
}

func describeOutcome(st StepTrace) string {
	if st.Error != "" {
		return st.Error
	}
	return fmt.Sprintf("ids %v", st.IDs)
}

// errorCode extracts the code of a node-set or query error. Node-set errors
// are checked first since invalid rules wrap a query error.
func errorCode(err error) string {
	var nsErr *nodeset.Error
	if errors.As(err, &nsErr) {
		return string(nsErr.Code)
	}
	var qe *queryir.QueryError
	if errors.As(err, &qe) {
		return string(qe.Code)
	}
	return ErrCodeUnexpected
}
