package engine

import (
	"sort"

	"github.com/roach88/comboseq/internal/ir"
)

// SequenceState is the runtime view of one compiled state: its matching
// cursors and the time accumulated since entry or since the last progress.
type SequenceState struct {
	def     *ir.State
	names   []string
	actions map[string]*InputActionState

	accumulated float64
}

func newSequenceState(def *ir.State) *SequenceState {
	s := &SequenceState{
		def:     def,
		names:   sortedKeys(def.InputActions),
		actions: make(map[string]*InputActionState, len(def.InputActions)),
	}
	for name, action := range def.InputActions {
		s.actions[name] = NewInputActionState(action)
	}
	return s
}

// Definition returns the compiled state.
func (s *SequenceState) Definition() *ir.State {
	return s.def
}

// AccumulatedTime returns seconds since entry or last successful consumption.
func (s *SequenceState) AccumulatedTime() float64 {
	return s.accumulated
}

// Action returns the cursor for the named input, or nil.
func (s *SequenceState) Action(name string) *InputActionState {
	return s.actions[name]
}

// IsEmpty reports whether the state passes without any input.
func (s *SequenceState) IsEmpty() bool {
	return len(s.actions) == 0
}

// IsOpen is the conjunction over every input requirement. Axis nodes use the
// axis predicate for all entries and other nodes the action predicate.
func (s *SequenceState) IsOpen() bool {
	for _, name := range s.names {
		a := s.actions[name]
		if s.def.IsAxisNode {
			if !a.isOpenAxis() {
				return false
			}
		} else if !a.isOpenAction() {
			return false
		}
	}
	return true
}

// ConsumeInput feeds this frame's events and samples to every requirement
// that is not yet open. Held inputs are fed as Pressed. Any progress
// restarts AccumulatedTime.
func (s *SequenceState) ConsumeInput(
	actionEvents map[string]ir.InputEvent,
	held map[string]struct{},
	axisEvents map[string]float64,
) bool {
	advanced := false

	for _, name := range s.names {
		a := s.actions[name]

		if s.def.IsAxisNode {
			if a.action.Kind == ir.KindAxis2D {
				x, okA := axisEvents[a.action.AxisA]
				y, okB := axisEvents[a.action.AxisB]
				if okA && okB && a.ConsumeAxis2D(x, y) {
					advanced = true
				}
				continue
			}
			if v, ok := axisEvents[name]; ok && !a.isOpenAxis() && a.ConsumeAxis(v) {
				advanced = true
			}
			continue
		}

		if e, ok := actionEvents[name]; ok && !a.isOpenAction() && a.ConsumeAction(e) {
			advanced = true
		}
		if _, ok := held[name]; ok && !a.isOpenAction() && a.ConsumeAction(ir.EventPressed) {
			advanced = true
		}
	}

	if advanced {
		s.accumulated = 0
	}
	return advanced
}

// Reset clears the timer and every cursor.
func (s *SequenceState) Reset() {
	s.accumulated = 0
	for _, a := range s.actions {
		a.Reset()
	}
}

// expects reports whether name is an input requirement or a held requirement.
func (s *SequenceState) expects(name string) bool {
	if _, ok := s.actions[name]; ok {
		return true
	}
	for _, p := range s.def.PressedActions {
		if p == name {
			return true
		}
	}
	return false
}

func (s *SequenceState) usePreciseMatch(assetDefault bool) bool {
	if s.def.OverridePreciseMatch {
		return s.def.RequirePreciseMatch
	}
	return assetDefault
}

// idleReset returns whether idle reset applies and its threshold.
func (s *SequenceState) idleReset(a *ir.Asset) (bool, float64) {
	if s.def.OverrideResetAfterTime {
		return s.def.ResetAfterTime, s.def.TimeParam
	}
	return a.IsResetAfterTime, a.ResetAfterTime
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
