package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator returns "<prefix>-1", "<prefix>-2", ...
//
// IDs are deterministic, so golden output stays stable across runs, and
// distinct, so the statement log keeps every statement. Reset makes a
// generator reusable.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequentialIDGenerator creates a generator whose first ID is
// "<prefix>-1".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "stmt"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}

// Reset restarts the sequence at 1.
func (g *SequentialIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
