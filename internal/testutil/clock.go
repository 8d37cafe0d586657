package testutil

import "sync"

// StepClock numbers harness steps: 1, 2, 3, ... with no wall time involved,
// so traces from two runs of a scenario compare byte for byte.
//
// Thread-safety: all methods are safe for concurrent use.
type StepClock struct {
	mu   sync.Mutex
	step int
}

// NewStepClock creates a clock whose first Tick returns 1.
func NewStepClock() *StepClock {
	return &StepClock{}
}

// Tick advances the clock and returns the new step number.
func (c *StepClock) Tick() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step++
	return c.step
}

// Current returns the last step number handed out, 0 before the first Tick.
func (c *StepClock) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Reset rewinds to 0 for reuse across scenarios.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = 0
}
