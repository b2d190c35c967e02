package engine

import (
	"log/slog"
	"sort"

	"github.com/emirpasic/gods/sets/linkedhashset"

	"github.com/roach88/comboseq/internal/ir"
)

// Engine steps one compiled asset through host input frames.
//
// Thread-safety model:
//   - OnInput(): must be called from exactly one goroutine
//   - RequestReset(): safe from any goroutine
//   - Frame(): safe from any goroutine
//   - everything else: tick goroutine only
//
// INVARIANTS:
//   - active never contains duplicates or out-of-range indices
//   - states order never changes after construction
//   - calls is empty between OnInput invocations
type Engine struct {
	asset  *ir.Asset
	states []*SequenceState
	active *linkedhashset.Set
	held   map[string]struct{}
	resets *resetQueue
	scope  ResetScope
	clock  *Clock
	logger *slog.Logger

	calls []ir.EventCall

	// entered holds states entered during the current stepping pass; the
	// tick pass skips them.
	entered map[int]struct{}
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithResetScope overrides the asset's reset scope.
func WithResetScope(scope ResetScope) EngineOption {
	return func(e *Engine) {
		e.scope = scope
	}
}

// WithClock sets the frame clock, for hosts that continue numbering from an
// earlier run.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// New creates an Engine over asset. The asset is treated as immutable for
// the engine's lifetime; runtime cursors and timers live in the engine.
// Validation belongs to the compiler: malformed indices are skipped at
// runtime, not reported.
func New(asset *ir.Asset, opts ...EngineOption) *Engine {
	e := &Engine{
		asset:  asset,
		states: make([]*SequenceState, len(asset.States)),
		active: linkedhashset.New(),
		held:   make(map[string]struct{}),
		resets: newResetQueue(),
		scope:  NormalizeResetScope(asset.ResetScope),
		clock:  NewClock(0),
		logger: slog.Default(),

		entered: make(map[int]struct{}),
	}
	for i := range asset.States {
		e.states[i] = newSequenceState(&asset.States[i])
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnInput processes one host input frame and returns the emitted calls in
// order together with the reset sources resolved this frame.
//
// actionEvents holds only inputs whose discrete state changed this frame;
// axisEvents holds the current sample of every continuous input.
func (e *Engine) OnInput(
	deltaTime float64,
	gamePaused bool,
	actionEvents map[string]ir.InputEvent,
	axisEvents map[string]float64,
) ([]ir.EventCall, []ir.ResetSource) {
	frame := e.clock.Tick()
	e.updateHeld(actionEvents)

	if len(e.states) == 0 {
		return nil, e.resets.Drain()
	}

	if e.active.Empty() {
		e.makeTransition(0, e.states[0].def.NextIndice)
	}

	snapshot := e.ActiveIndices()
	clear(e.entered)

	if !gamePaused || e.asset.StepWhenPaused {
		for _, i := range snapshot {
			e.step(i, actionEvents, axisEvents)
		}
	}

	if !gamePaused || e.asset.TickWhenPaused {
		for _, i := range snapshot {
			if _, fresh := e.entered[i]; e.active.Contains(i) && !fresh {
				e.tick(i, deltaTime)
			}
		}
	}

	sources := e.processResetSources()

	calls := e.calls
	e.calls = nil

	e.logger.Debug("frame processed",
		"frame", frame,
		"calls", len(calls),
		"resets", len(sources),
		"active", e.active.Size())

	return calls, sources
}

// RequestReset queues an external reset. It resets every active state on
// the next OnInput and tags the resulting calls with object and context.
func (e *Engine) RequestReset(sourceObject any, sourceContext string) {
	e.resets.Enqueue(ir.ResetSource{
		SourceIndex:   ir.IndexNone,
		SourceObject:  sourceObject,
		SourceContext: sourceContext,
	})
}

// Apply queues the frame's external resets and processes it. Recorded and
// scripted frames go through here so replays issue the same calls.
func (e *Engine) Apply(f ir.Frame) ([]ir.EventCall, []ir.ResetSource) {
	for _, r := range f.Resets {
		var obj any
		if r.Object != "" {
			obj = r.Object
		}
		e.RequestReset(obj, r.Context)
	}
	return e.OnInput(f.DeltaTime, f.Paused, f.Actions, f.Axes)
}

// ActiveIndices returns the active set in insertion order.
func (e *Engine) ActiveIndices() []int {
	return toInts(e.active)
}

// IsActive reports whether index i is mid-match.
func (e *Engine) IsActive(i int) bool {
	return e.active.Contains(i)
}

// HeldInputs returns the currently held input names, sorted.
func (e *Engine) HeldInputs() []string {
	return sortedKeys(e.held)
}

// State returns the runtime state at index i, or nil when out of range.
func (e *Engine) State(i int) *SequenceState {
	if !e.validIndex(i) {
		return nil
	}
	return e.states[i]
}

// Frame returns the number of frames processed.
func (e *Engine) Frame() int64 {
	return e.clock.Frame()
}

// Scope returns the effective reset scope.
func (e *Engine) Scope() ResetScope {
	return e.scope
}

// PendingResets returns the number of queued reset requests.
func (e *Engine) PendingResets() int {
	return e.resets.Len()
}

func (e *Engine) updateHeld(actionEvents map[string]ir.InputEvent) {
	for name, ev := range actionEvents {
		switch ev {
		case ir.EventReleased:
			delete(e.held, name)
		case ir.EventPressed:
			e.held[name] = struct{}{}
		}
	}
}

// step is the matching pass for one active state.
func (e *Engine) step(i int, actionEvents map[string]ir.InputEvent, axisEvents map[string]float64) {
	st := e.states[i]
	def := st.def

	if !def.IsInputNode {
		e.requestResetWithNode(i)
		return
	}

	match := true

	// Axis input arrives as continuous data every frame, so axis nodes are
	// exempt from precise-match and held checks.
	if !def.IsAxisNode && len(actionEvents)+len(e.held) > 0 {
		if st.usePreciseMatch(e.asset.RequirePreciseMatch) {
			for _, name := range sortedKeys(actionEvents) {
				if st.Action(name) == nil {
					match = false
					e.requestResetWithNode(i)
					break
				}
			}
			for _, name := range sortedKeys(e.held) {
				if !st.expects(name) {
					match = false
					e.requestResetWithNode(i)
					break
				}
			}
		}

		for _, name := range def.PressedActions {
			if _, ok := e.held[name]; !ok {
				match = false
				e.requestResetWithNode(i)
				break
			}
		}
	}

	if match && !st.IsOpen() {
		if def.CanBePassedAfterTime {
			before := st.accumulated
			match = st.ConsumeInput(actionEvents, e.held, axisEvents) && st.IsOpen()
			if match && before < def.TimeParam {
				// Completed too early: deny the pass, keep the progress.
				match = false
				e.requestResetWithNode(i)
			}
		} else {
			match = st.ConsumeInput(actionEvents, e.held, axisEvents) && st.IsOpen()
		}
	}

	if match {
		e.makeTransition(i, def.NextIndice)
	}
}

// tick is the timing pass for one state that stayed active.
func (e *Engine) tick(i int, deltaTime float64) {
	st := e.states[i]
	if !st.def.IsInputNode {
		return
	}

	st.accumulated += deltaTime

	// Time-gated states are governed by the pass gate only.
	if st.def.CanBePassedAfterTime {
		return
	}

	if enabled, threshold := st.idleReset(e.asset); enabled && st.accumulated > threshold {
		e.logger.Debug("idle reset",
			"index", i,
			"accumulated", st.accumulated,
			"threshold", threshold)
		e.requestResetWithNode(i)
	}
}

func (e *Engine) validIndex(i int) bool {
	return i >= 0 && i < len(e.states)
}

// toInts converts a set of int indices to a slice in set order.
func toInts(s *linkedhashset.Set) []int {
	values := s.Values()
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = v.(int)
	}
	return out
}

// sortedInts returns a sorted copy; used for stable log output.
func sortedInts(in []int) []int {
	out := append([]int(nil), in...)
	sort.Ints(out)
	return out
}
