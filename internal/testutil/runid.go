package testutil

// FixedRunIDGenerator returns the same run id every time.
//
// Runs stamped with a fixed id produce byte-identical snapshot records, which
// golden comparisons depend on.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator for id. An empty id becomes
// "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate implements snapshot.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
