package engine

import "sync/atomic"

// Clock numbers frames. Each OnInput ticks it once, so frames and the calls
// they emit are ordered by frame number, never by wall time. Frame may be
// read from any goroutine.
type Clock struct {
	frame atomic.Int64
}

// NewClock returns a clock whose last consumed frame is last. A fresh
// session starts from 0, making its first frame 1.
func NewClock(last int64) *Clock {
	c := new(Clock)
	c.frame.Store(last)
	return c
}

// Tick advances to the next frame and returns its number.
func (c *Clock) Tick() int64 { return c.frame.Add(1) }

// Frame returns the number of the last frame ticked.
func (c *Clock) Frame() int64 { return c.frame.Load() }
