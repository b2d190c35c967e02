package engine

import (
	"math"

	"github.com/roach88/comboseq/internal/ir"
)

// InputActionState tracks progress through one named input requirement.
//
// The cursor starts at -1. Action kinds advance through the ordered event
// list; axis kinds flip to 0 on the first accepted sample.
type InputActionState struct {
	action ir.InputAction
	index  int
}

// NewInputActionState creates a reset state for action.
func NewInputActionState(action ir.InputAction) *InputActionState {
	return &InputActionState{action: action, index: -1}
}

// Index returns the cursor position.
func (s *InputActionState) Index() int {
	return s.index
}

// IsOpen applies the predicate matching the action's own kind.
func (s *InputActionState) IsOpen() bool {
	if s.action.Kind.IsAxis() {
		return s.isOpenAxis()
	}
	return s.isOpenAction()
}

// isOpenAction is true once every required event has been observed.
func (s *InputActionState) isOpenAction() bool {
	return s.index+1 >= len(s.action.Events)
}

func (s *InputActionState) isOpenAxis() bool {
	return s.index >= 0
}

// ConsumeAction advances the cursor when e is the next required event.
// Events are matched as an exact ordered subsequence; anything else is
// ignored rather than rejected.
func (s *InputActionState) ConsumeAction(e ir.InputEvent) bool {
	next := s.index + 1
	if next >= len(s.action.Events) || s.action.Events[next] != e {
		return false
	}
	s.index = next
	return true
}

// ConsumeAxis opens the action on the first sample inside [Low, High].
func (s *InputActionState) ConsumeAxis(v float64) bool {
	if s.isOpenAxis() || v < s.action.Low || v > s.action.High {
		return false
	}
	s.index = 0
	return true
}

// ConsumeAxis2D opens the action when (a, b) lies outside Radius and its
// angle, shifted up by whole turns until it reaches Low, is at most High.
func (s *InputActionState) ConsumeAxis2D(a, b float64) bool {
	if s.isOpenAxis() {
		return false
	}
	if a*a+b*b <= s.action.Radius*s.action.Radius {
		return false
	}
	if !angleInRange(math.Atan2(b, a), s.action.Low, s.action.High) {
		return false
	}
	s.index = 0
	return true
}

// Reset rewinds the cursor.
func (s *InputActionState) Reset() {
	s.index = -1
}

// angleInRange normalizes angle into [low, low+2π) and compares with high.
// Ranges may straddle the wrap point (e.g. [3π/2, 5π/2] for "right").
func angleInRange(angle, low, high float64) bool {
	const turn = 2 * math.Pi
	if angle < low {
		angle += turn * math.Floor((low-angle)/turn)
	}
	for angle < low {
		angle += turn
	}
	return angle >= low && angle <= high
}
