package compiler

import (
	"fmt"
	"math"
	"sort"

	"github.com/roach88/comboseq/internal/engine"
	"github.com/roach88/comboseq/internal/ir"
)

// Validation error codes (E200-E299)
const (
	// Asset-level errors (E200-E204)
	ErrNoStates          = "E200" // at least one state required
	ErrRootParent        = "E201" // root parent must be NONE
	ErrRootInput         = "E202" // root must not be an input state
	ErrInvalidResetScope = "E203" // reset_scope must be branch or node
	ErrNegativeTime      = "E204" // time thresholds must be >= 0

	// Link errors (E205-E207)
	ErrNextOutOfRange   = "E205" // next index outside the state array
	ErrParentOutOfRange = "E206" // parent index outside the state array
	ErrParentNotFirst   = "E207" // parent must be 0 or a first-layer state

	// Action errors (E208-E214)
	ErrKindMismatch    = "E208" // action kind disagrees with the axis flag
	ErrUnknownKind     = "E209" // kind is not action, axis or axis2d
	ErrMissingSources  = "E210" // axis2d needs axis_a and axis_b
	ErrInvalidRange    = "E211" // low > high or NaN bounds
	ErrEmptyEvents     = "E212" // action kind needs at least one event
	ErrUnknownEvent    = "E213" // event name not recognized
	ErrGateWithoutNode = "E214" // pass_after_time on a non-input state
)

// ValidationError represents a structural error in a compiled asset.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled asset against the structural rules the engine
// relies on. Returns all errors found (does not fail-fast).
func Validate(asset *ir.Asset) []ValidationError {
	var errs []ValidationError
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	if asset == nil || len(asset.States) == 0 {
		add(ErrNoStates, "states", "at least one state is required")
		return errs
	}

	if err := engine.ValidateResetScope(asset.ResetScope); err != nil {
		add(ErrInvalidResetScope, "reset_scope", "%v", err)
	}
	if asset.ResetAfterTime < 0 || math.IsNaN(asset.ResetAfterTime) {
		add(ErrNegativeTime, "reset_after_time", "must be >= 0, got %v", asset.ResetAfterTime)
	}

	root := &asset.States[0]
	if root.FirstLayerParentIndex != ir.IndexNone {
		add(ErrRootParent, "states[0].parent", "root parent must be NONE, got %d", root.FirstLayerParentIndex)
	}
	if root.IsInputNode {
		add(ErrRootInput, "states[0].input", "root must not be an input state")
	}

	for i := range asset.States {
		s := &asset.States[i]
		prefix := fmt.Sprintf("states[%d]", i)

		for _, n := range s.NextIndice {
			if !asset.ValidIndex(n) {
				add(ErrNextOutOfRange, prefix+".next", "index %d out of range [0,%d)", n, len(asset.States))
			}
		}

		if i > 0 {
			p := s.FirstLayerParentIndex
			switch {
			case !asset.ValidIndex(p):
				add(ErrParentOutOfRange, prefix+".parent", "index %d out of range [0,%d)", p, len(asset.States))
			case p != 0 && !asset.States[p].IsFirstLayer():
				add(ErrParentNotFirst, prefix+".parent", "state %d is not a first-layer state", p)
			}
		}

		if s.TimeParam < 0 || math.IsNaN(s.TimeParam) {
			add(ErrNegativeTime, prefix+".time_param", "must be >= 0, got %v", s.TimeParam)
		}
		if s.CanBePassedAfterTime && !s.IsInputNode {
			add(ErrGateWithoutNode, prefix+".pass_after_time", "only input states can be time gated")
		}

		errs = append(errs, validateActions(s, prefix)...)
	}

	return errs
}

// validateActions walks actions in name order so error output is stable.
func validateActions(s *ir.State, prefix string) []ValidationError {
	var errs []ValidationError
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	names := make([]string, 0, len(s.InputActions))
	for name := range s.InputActions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		a := s.InputActions[name]
		field := prefix + ".actions." + name

		switch a.Kind {
		case ir.KindAction, ir.KindAxis, ir.KindAxis2D:
		default:
			add(ErrUnknownKind, field+".kind", "unknown kind %q", a.Kind)
			continue
		}

		if a.Kind.IsAxis() != s.IsAxisNode {
			if s.IsAxisNode {
				add(ErrKindMismatch, field+".kind", "axis state requires axis or axis2d actions, got %q", a.Kind)
			} else {
				add(ErrKindMismatch, field+".kind", "%q action requires an axis state", a.Kind)
			}
		}

		switch a.Kind {
		case ir.KindAction:
			if len(a.Events) == 0 {
				add(ErrEmptyEvents, field+".events", "at least one event is required")
			}
			for _, ev := range a.Events {
				if !ev.Valid() {
					add(ErrUnknownEvent, field+".events", "unknown event %q", ev)
				}
			}
		case ir.KindAxis2D:
			if a.AxisA == "" || a.AxisB == "" {
				add(ErrMissingSources, field, "axis2d requires axis_a and axis_b")
			}
			if a.Radius < 0 || math.IsNaN(a.Radius) {
				add(ErrInvalidRange, field+".radius", "must be >= 0, got %v", a.Radius)
			}
		}

		if a.Kind.IsAxis() {
			if math.IsNaN(a.Low) || math.IsNaN(a.High) || a.Low > a.High {
				add(ErrInvalidRange, field, "low %v must be <= high %v", a.Low, a.High)
			}
		}
	}

	for _, held := range s.PressedActions {
		if held == "" {
			add(ErrUnknownEvent, prefix+".pressed", "held input name must not be empty")
		}
	}

	return errs
}
