package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameClock_StartsAtZero(t *testing.T) {
	c := NewFrameClock(0.016)
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, 0.0, c.Elapsed())
}

func TestFrameClock_DefaultAndOverrideStep(t *testing.T) {
	c := NewFrameClock(0.5)

	seq, dt := c.Next(0)
	assert.Equal(t, int64(1), seq)
	assert.Equal(t, 0.5, dt)

	seq, dt = c.Next(0.25)
	assert.Equal(t, int64(2), seq)
	assert.Equal(t, 0.25, dt)

	assert.InDelta(t, 0.75, c.Elapsed(), 1e-9)
}

func TestFrameClock_Reset(t *testing.T) {
	c := NewFrameClock(1)
	c.Next(0)
	c.Next(0)
	c.Reset()

	assert.Equal(t, int64(0), c.Current())
	seq, _ := c.Next(0)
	assert.Equal(t, int64(1), seq)
}

func TestFrameClock_ThreadSafe(t *testing.T) {
	c := NewFrameClock(1)
	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				c.Next(0)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1000), c.Current())
}
