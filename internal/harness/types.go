package harness

import "github.com/roach88/comboseq/internal/ir"

// TraceEvent is one emitted call annotated with the frame that emitted it.
type TraceEvent struct {
	Frame        int64            `json:"frame"`
	Elapsed      float64          `json:"elapsed"`
	Phase        ir.EventPhase    `json:"phase"`
	EventClass   ir.EventClass    `json:"event_class"`
	Index        int              `json:"index"`
	Object       any              `json:"object,omitempty"`
	Context      string           `json:"context,omitempty"`
	ResetSources []ir.ResetSource `json:"reset_sources,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// SessionID is the recorded session the trace came from.
	SessionID string `json:"session_id"`

	// Trace contains every emitted call in emission order.
	Trace []TraceEvent `json:"trace"`

	// Active is the active set after the last frame, in insertion order.
	Active []int `json:"active"`

	// Frames is the number of frames processed.
	Frames int `json:"frames"`

	// Errors contains assertion and replay failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Active: []int{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCalls appends the calls of one frame to the trace.
func (r *Result) AddCalls(frame int64, elapsed float64, calls []ir.EventCall) {
	for _, c := range calls {
		r.Trace = append(r.Trace, TraceEvent{
			Frame:        frame,
			Elapsed:      elapsed,
			Phase:        c.Phase,
			EventClass:   c.EventClass,
			Index:        c.Index,
			Object:       c.Object,
			Context:      c.Context,
			ResetSources: c.ResetSources,
		})
	}
}

// Classes returns the event classes of the trace in order.
func (r *Result) Classes() []string {
	out := make([]string, len(r.Trace))
	for i, ev := range r.Trace {
		out[i] = string(ev.EventClass)
	}
	return out
}
