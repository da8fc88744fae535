package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Trace    []StepTrace // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, st := range e.Trace {
		if st.Error != "" {
			fmt.Fprintf(&buf, "  [%d] %s error %s\n", i+1, st.Step, st.Error)
			continue
		}
		fmt.Fprintf(&buf, "  [%d] %s %v\n", i+1, st.Step, st.IDs)
	}

	return buf.String()
}

// selection returns the IDs selected by the named step. A failed step has
// no selection and fails any assertion that uses it.
func selection(trace []StepTrace, assertionType, name string) ([]int64, error) {
	for _, st := range trace {
		if st.Step != name {
			continue
		}
		if st.Error != "" {
			return nil, &AssertionError{
				Type:     assertionType,
				Expected: fmt.Sprintf("step %s to select rows", name),
				Actual:   fmt.Sprintf("step failed with %s", st.Error),
				Trace:    trace,
			}
		}
		return st.IDs, nil
	}
	return nil, &AssertionError{
		Type:     assertionType,
		Expected: fmt.Sprintf("step %s in trace", name),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertSubset checks that every ID of steps[0] is selected by steps[1].
func assertSubset(trace []StepTrace, assertion Assertion) error {
	if len(assertion.Steps) != 2 {
		return fmt.Errorf("subset requires exactly two steps, got %d", len(assertion.Steps))
	}
	inner, err := selection(trace, AssertSubset, assertion.Steps[0])
	if err != nil {
		return err
	}
	outer, err := selection(trace, AssertSubset, assertion.Steps[1])
	if err != nil {
		return err
	}

	if extra := difference(inner, outer); len(extra) > 0 {
		return &AssertionError{
			Type:     AssertSubset,
			Expected: fmt.Sprintf("%s within %s", assertion.Steps[0], assertion.Steps[1]),
			Actual:   fmt.Sprintf("ids %v only in %s", extra, assertion.Steps[0]),
			Trace:    trace,
		}
	}
	return nil
}

// assertDisjoint checks that no two of the steps select the same ID.
func assertDisjoint(trace []StepTrace, assertion Assertion) error {
	owner := make(map[int64]string)
	for _, name := range assertion.Steps {
		ids, err := selection(trace, AssertDisjoint, name)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if prev, ok := owner[id]; ok && prev != name {
				return &AssertionError{
					Type:     AssertDisjoint,
					Expected: fmt.Sprintf("disjoint selections: %v", assertion.Steps),
					Actual:   fmt.Sprintf("id %d selected by %s and %s", id, prev, name),
					Trace:    trace,
				}
			}
			owner[id] = name
		}
	}
	return nil
}

// assertUnion checks that step selects exactly the union of steps.
func assertUnion(trace []StepTrace, assertion Assertion) error {
	got, err := selection(trace, AssertUnion, assertion.Step)
	if err != nil {
		return err
	}

	var want []int64
	for _, name := range assertion.Steps {
		ids, err := selection(trace, AssertUnion, name)
		if err != nil {
			return err
		}
		want = append(want, ids...)
	}
	want = sortedUnique(want)

	if !slices.Equal(sortedUnique(got), want) {
		return &AssertionError{
			Type:     AssertUnion,
			Expected: fmt.Sprintf("%s = union of %v = %v", assertion.Step, assertion.Steps, want),
			Actual:   fmt.Sprintf("%v", got),
			Trace:    trace,
		}
	}
	return nil
}

// assertContains checks that step selects every ID of the assertion.
func assertContains(trace []StepTrace, assertion Assertion) error {
	got, err := selection(trace, AssertContains, assertion.Step)
	if err != nil {
		return err
	}
	if missing := difference(assertion.IDs, got); len(missing) > 0 {
		return &AssertionError{
			Type:     AssertContains,
			Expected: fmt.Sprintf("%s to select %v", assertion.Step, assertion.IDs),
			Actual:   fmt.Sprintf("missing %v", missing),
			Trace:    trace,
		}
	}
	return nil
}

// assertExcludes checks that step selects none of the IDs of the assertion.
func assertExcludes(trace []StepTrace, assertion Assertion) error {
	got, err := selection(trace, AssertExcludes, assertion.Step)
	if err != nil {
		return err
	}
	if selected := difference(assertion.IDs, difference(assertion.IDs, got)); len(selected) > 0 {
		return &AssertionError{
			Type:     AssertExcludes,
			Expected: fmt.Sprintf("%s not to select %v", assertion.Step, assertion.IDs),
			Actual:   fmt.Sprintf("selected %v", selected),
			Trace:    trace,
		}
	}
	return nil
}

// difference returns the IDs of a that are not in b, in the order of a.
func difference(a, b []int64) []int64 {
	out := []int64{}
	for _, id := range a {
		if !slices.Contains(b, id) {
			out = append(out, id)
		}
	}
	return out
}

func sortedUnique(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSubset:
			err = assertSubset(result.Trace, assertion)
		case AssertDisjoint:
			err = assertDisjoint(result.Trace, assertion)
		case AssertUnion:
			err = assertUnion(result.Trace, assertion)
		case AssertContains:
			err = assertContains(result.Trace, assertion)
		case AssertExcludes:
			err = assertExcludes(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
