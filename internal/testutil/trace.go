package testutil

// FixedTraceGenerator returns the same trace ID every time, so CLI output
// can be compared byte for byte.
//
// Thread-safety: FixedTraceGenerator is stateless and safe for concurrent use.
type FixedTraceGenerator struct {
	id string
}

// NewFixedTraceGenerator creates a fixed trace ID generator.
// If id is empty, Generate returns "trace-default".
func NewFixedTraceGenerator(id string) *FixedTraceGenerator {
	if id == "" {
		id = "trace-default"
	}
	return &FixedTraceGenerator{id: id}
}

// Generate returns the fixed trace ID.
func (g *FixedTraceGenerator) Generate() string {
	return g.id
}
