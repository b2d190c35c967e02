package dispatch

import (
	"context"
	"sync"

	"github.com/roach88/comboseq/internal/ir"
)

// Recorder is a Handler that keeps every call it receives.
type Recorder struct {
	mu    sync.Mutex
	calls []ir.EventCall
}

// Handle records call.
func (r *Recorder) Handle(_ context.Context, call ir.EventCall) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return nil
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []ir.EventCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ir.EventCall(nil), r.calls...)
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
