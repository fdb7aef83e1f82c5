package testutil

import (
	"strconv"
	"sync"
	"time"
)

// FixtureEpoch is the first instant a StepClock returns.
var FixtureEpoch = time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC)

// StepClock is a deterministic clock for tests. Each call to Now returns
// the previous instant plus one second, starting at FixtureEpoch.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu   sync.Mutex
	step int64
}

// NewStepClock creates a clock whose first Now returns FixtureEpoch.
func NewStepClock() *StepClock {
	return &StepClock{}
}

// Now returns the next instant.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := FixtureEpoch.Add(time.Duration(c.step) * time.Second)
	c.step++
	return t
}

// Reset rewinds the clock so the next Now returns FixtureEpoch.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = 0
}

// SequenceIDs returns "snap-1", "snap-2", ... on successive calls.
type SequenceIDs struct {
	mu  sync.Mutex
	seq int
}

// Generate returns the next identifier.
func (g *SequenceIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return "snap-" + strconv.Itoa(g.seq)
}
