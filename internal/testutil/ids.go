package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns the same instance id every time.
//
// This enables deterministic scenario execution and golden trace
// comparison: the same scenario with the same FixedIDGenerator produces
// byte-identical traces.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a fixed id generator. If id is empty,
// Generate() returns "test-instance-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-instance-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id.
//
// Implements registry.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

// SequenceIDGenerator returns "inst-1", "inst-2", ... in creation order.
//
// Useful for scenarios that create more than one instance and still need
// stable keys.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequenceIDGenerator struct {
	mu sync.Mutex
	n  int
}

// Generate returns the next id in the sequence.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("inst-%d", g.n)
}
