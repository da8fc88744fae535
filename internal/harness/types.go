package harness

import (
	"slices"

	"github.com/roach88/snapquery/internal/ir"
)

// StepTrace records the outcome of one step.
type StepTrace struct {
	Step string `json:"step"`

	// Query is the step's query document as written.
	Query ir.IRValue `json:"query"`

	// Expanded is the query after node-set expansion. Nil when the step
	// failed before resolution.
	Expanded ir.IRObject `json:"expanded,omitempty"`

	// IDs are the selected IDs in table order.
	IDs []int64 `json:"ids"`

	// Error is the error code of a failed step.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion holds.
	Pass bool `json:"pass"`

	// Population is the name of the queried population.
	Population string `json:"population"`

	// Trace holds one entry per step, in order.
	Trace []StepTrace `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StepTrace{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStepTrace appends the outcome of a step.
func (r *Result) AddStepTrace(st StepTrace) {
	r.Trace = append(r.Trace, st)
}

// Step returns the trace entry of the named step.
func (r *Result) Step(name string) (StepTrace, bool) {
	i := slices.IndexFunc(r.Trace, func(st StepTrace) bool { return st.Step == name })
	if i < 0 {
		return StepTrace{}, false
	}
	return r.Trace[i], true
}
