package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_Tick(t *testing.T) {
	c := NewClock(0)
	assert.Zero(t, c.Frame())
	assert.Equal(t, int64(1), c.Tick())
	assert.Equal(t, int64(2), c.Tick())
	assert.Equal(t, int64(2), c.Frame())

	resumed := NewClock(41)
	assert.Equal(t, int64(42), resumed.Tick())
}

func TestClock_ConcurrentTicksNeverRepeat(t *testing.T) {
	c := NewClock(0)
	const workers, ticks = 8, 250

	frames := make([][]int64, workers)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range ticks {
				frames[w] = append(frames[w], c.Tick())
			}
		}()
	}
	wg.Wait()

	seen := make(map[int64]struct{}, workers*ticks)
	for _, fs := range frames {
		for _, f := range fs {
			seen[f] = struct{}{}
		}
	}
	assert.Len(t, seen, workers*ticks)
	assert.Equal(t, int64(workers*ticks), c.Frame())
}
