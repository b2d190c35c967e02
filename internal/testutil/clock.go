package testutil

import "sync"

// FrameClock hands out frame numbers and fixed delta times for scripted
// runs. Unlike engine.Clock it can be reset, so one scenario can be run
// repeatedly with identical frame numbering.
//
// Thread-safety: all methods are safe for concurrent use.
type FrameClock struct {
	mu      sync.Mutex
	step    float64
	seq     int64
	elapsed float64
}

// NewFrameClock creates a clock whose default frame lasts step seconds.
func NewFrameClock(step float64) *FrameClock {
	return &FrameClock{step: step}
}

// Next advances one frame. A positive dt overrides the default step.
// Returns the frame number (starting at 1) and the delta to feed the engine.
func (c *FrameClock) Next(dt float64) (int64, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dt <= 0 {
		dt = c.step
	}
	c.seq++
	c.elapsed += dt
	return c.seq, dt
}

// Current returns the last frame number handed out.
func (c *FrameClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Elapsed returns the summed delta time in seconds.
func (c *FrameClock) Elapsed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Reset rewinds to frame 0.
func (c *FrameClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
	c.elapsed = 0
}
