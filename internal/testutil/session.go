package testutil

// FixedSessionGenerator returns the same session ID every time, so
// recorded traces of one scenario are byte-identical across runs.
//
// Unlike engine.FixedGenerator, which walks a list, this never runs out.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates the generator. An empty id becomes
// "test-session".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate implements engine.SessionIDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
