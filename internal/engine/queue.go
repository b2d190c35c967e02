package engine

import (
	"sync"

	"github.com/roach88/comboseq/internal/ir"
)

// resetQueue is the mutex-guarded FIFO of pending ResetSources.
//
// Enqueue may be called from any goroutine (external RequestReset) while
// the tick goroutine enqueues node resets and drains. The lock is held only
// for the append or the swap, never across matching or emission.
type resetQueue struct {
	mu      sync.Mutex
	sources []ir.ResetSource
}

func newResetQueue() *resetQueue {
	return &resetQueue{}
}

// Enqueue appends a source.
func (q *resetQueue) Enqueue(src ir.ResetSource) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sources = append(q.sources, src)
}

// Drain returns every queued source in arrival order and empties the queue.
// CRITICAL: snapshot and clear happen under one lock acquisition so a
// concurrent Enqueue lands either in this batch or the next, never neither.
func (q *resetQueue) Drain() []ir.ResetSource {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.sources) == 0 {
		return nil
	}
	out := q.sources
	q.sources = nil
	return out
}

// Len returns the number of pending sources.
func (q *resetQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.sources)
}
