package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Population is the population description file to query.
	Population string `yaml:"population"`

	// NodeSets is an optional node-set file stored with the population.
	NodeSets string `yaml:"node_sets,omitempty"`

	// RaiseMissing controls node sets that reference a property the
	// population lacks. Defaults to true.
	RaiseMissing *bool `yaml:"raise_missing,omitempty"`

	// Steps are resolved in order.
	Steps []Step `yaml:"steps"`

	// Assertions relate the selections of different steps.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// path is the file the scenario was loaded from, if any.
	path string
}

// Step resolves one query.
type Step struct {
	Name string `yaml:"name"`

	// Query is kept as a node so key order survives decoding.
	Query yaml.Node `yaml:"query"`

	// Expect is optional; a step without it only feeds the trace.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the outcome of a step. Error excludes the other
// fields.
type ExpectClause struct {
	// IDs are the selected IDs in table order.
	IDs []int64 `yaml:"ids,omitempty"`

	// Count is the number of selected rows. Use count: 0 for an empty
	// selection.
	Count *int `yaml:"count,omitempty"`

	// Error is the expected error code, e.g. UNKNOWN_NODE_SET.
	Error string `yaml:"error,omitempty"`
}

// Assertion relates step selections.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Step names the step under test (union, contains, excludes).
	Step string `yaml:"step,omitempty"`

	// Steps lists the steps compared (subset, disjoint, union).
	Steps []string `yaml:"steps,omitempty"`

	// IDs are the IDs checked (contains, excludes).
	IDs []int64 `yaml:"ids,omitempty"`
}

// Assertion type constants.
const (
	AssertSubset   = "subset"
	AssertDisjoint = "disjoint"
	AssertUnion    = "union"
	AssertContains = "contains"
	AssertExcludes = "excludes"
)

// RaisesMissing reports the effective raise_missing setting.
func (s *Scenario) RaisesMissing() bool {
	return s.RaiseMissing == nil || *s.RaiseMissing
}

// Path returns the file the scenario was loaded from.
func (s *Scenario) Path() string {
	if s.path == "" {
		return s.Name
	}
	return s.path
}

// LoadScenario reads and parses a scenario YAML file.
// Population and node-set paths are resolved relative to the file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.path = path

	base := filepath.Dir(path)
	scenario.Population = resolvePath(base, scenario.Population)
	scenario.NodeSets = resolvePath(base, scenario.NodeSets)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Population == "" {
		return fmt.Errorf("population is required")
	}
	if _, err := os.Stat(s.Population); os.IsNotExist(err) {
		return fmt.Errorf("population file not found: %s", s.Population)
	}
	if s.NodeSets != "" {
		if _, err := os.Stat(s.NodeSets); os.IsNotExist(err) {
			return fmt.Errorf("node set file not found: %s", s.NodeSets)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Steps))
	for i, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if names[step.Name] {
			return fmt.Errorf("steps[%d]: duplicate step name %q", i, step.Name)
		}
		names[step.Name] = true

		if step.Query.Kind == 0 {
			return fmt.Errorf("steps[%d]: query is required", i)
		}
		if e := step.Expect; e != nil {
			if e.Error == "" && e.IDs == nil && e.Count == nil {
				return fmt.Errorf("steps[%d].expect: one of ids, count or error is required", i)
			}
			if e.Error != "" && (e.IDs != nil || e.Count != nil) {
				return fmt.Errorf("steps[%d].expect: error excludes ids and count", i)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, names); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSubset:
		if len(a.Steps) != 2 {
			return fmt.Errorf("assertions[%d]: subset requires exactly two steps", index)
		}
	case AssertDisjoint:
		if len(a.Steps) < 2 {
			return fmt.Errorf("assertions[%d]: disjoint requires at least two steps", index)
		}
	case AssertUnion:
		if a.Step == "" || len(a.Steps) == 0 {
			return fmt.Errorf("assertions[%d]: union requires step and steps", index)
		}
	case AssertContains, AssertExcludes:
		if a.Step == "" || len(a.IDs) == 0 {
			return fmt.Errorf("assertions[%d]: %s requires step and ids", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	referenced := a.Steps
	if a.Step != "" {
		referenced = append([]string{a.Step}, a.Steps...)
	}
	for _, name := range referenced {
		if !steps[name] {
			return fmt.Errorf("assertions[%d]: unknown step %q", index, name)
		}
	}
	return nil
}
