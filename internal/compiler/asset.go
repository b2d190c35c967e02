package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/comboseq/internal/ir"
)

// CompileAsset decodes a CUE asset struct into a flat ir.Asset.
// Uses the CUE Go API directly (not a CLI subprocess).
//
// The value is the asset struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(src)
//	asset, err := CompileAsset(v.LookupPath(cue.ParsePath("asset.hadouken")))
//
// The state array is taken as already linearized: index 0 is the root and
// links are indices into the array. Structural checks live in Validate.
func CompileAsset(v cue.Value) (*ir.Asset, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	asset := &ir.Asset{ResetAfterTime: ir.DefaultResetAfterTime}

	// Name defaults to the struct label.
	if labels := v.Path().Selectors(); len(labels) > 0 {
		asset.Name = labels[len(labels)-1].String()
	}
	if err := optString(v, "name", &asset.Name); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		name string
		dst  *bool
	}{
		{"require_precise_match", &asset.RequirePreciseMatch},
		{"is_reset_after_time", &asset.IsResetAfterTime},
		{"step_when_paused", &asset.StepWhenPaused},
		{"tick_when_paused", &asset.TickWhenPaused},
	} {
		if err := optBool(v, f.name, f.dst); err != nil {
			return nil, err
		}
	}
	if err := optFloat(v, "reset_after_time", &asset.ResetAfterTime); err != nil {
		return nil, err
	}
	if err := optString(v, "reset_scope", &asset.ResetScope); err != nil {
		return nil, err
	}

	statesVal := v.LookupPath(cue.ParsePath("states"))
	if !statesVal.Exists() {
		return nil, &CompileError{
			Field:   "states",
			Message: "states is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := statesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for i := 0; iter.Next(); i++ {
		state, err := compileState(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		asset.States = append(asset.States, *state)
	}

	return asset, nil
}

// compileState decodes states[i]. The root defaults to a non-input state
// with no parent; every other state defaults to an input state under the
// root.
func compileState(v cue.Value, i int) (*ir.State, error) {
	field := func(name string) string { return fmt.Sprintf("states[%d].%s", i, name) }

	s := &ir.State{
		IsInputNode:           i > 0,
		FirstLayerParentIndex: 0,
	}
	if i == 0 {
		s.FirstLayerParentIndex = ir.IndexNone
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"input", &s.IsInputNode},
		{"axis", &s.IsAxisNode},
		{"pass_after_time", &s.CanBePassedAfterTime},
		{"override_reset_after_time", &s.OverrideResetAfterTime},
		{"reset_after_time", &s.ResetAfterTime},
		{"override_precise_match", &s.OverridePreciseMatch},
		{"require_precise_match", &s.RequirePreciseMatch},
	}
	for _, b := range bools {
		if err := optBool(v, b.name, b.dst); err != nil {
			return nil, wrapField(err, field(b.name))
		}
	}

	if err := optFloat(v, "time_param", &s.TimeParam); err != nil {
		return nil, wrapField(err, field("time_param"))
	}
	if err := optString(v, "context", &s.Context); err != nil {
		return nil, wrapField(err, field("context"))
	}
	var object string
	if err := optString(v, "object", &object); err != nil {
		return nil, wrapField(err, field("object"))
	}
	if object != "" {
		s.Object = object
	}

	if pv := v.LookupPath(cue.ParsePath("parent")); pv.Exists() {
		p, err := pv.Int64()
		if err != nil {
			return nil, &CompileError{Field: field("parent"), Message: "parent must be an integer", Pos: pv.Pos()}
		}
		s.FirstLayerParentIndex = int(p)
	}

	next, err := intList(v, "next")
	if err != nil {
		return nil, wrapField(err, field("next"))
	}
	s.NextIndice = dedupe(next)

	if s.PressedActions, err = stringList(v, "pressed"); err != nil {
		return nil, wrapField(err, field("pressed"))
	}

	for _, ev := range []struct {
		name string
		dst  *[]ir.EventClass
	}{
		{"on_enter", &s.EnterEvents},
		{"on_pass", &s.PassEvents},
		{"on_reset", &s.ResetEvents},
	} {
		names, err := stringList(v, ev.name)
		if err != nil {
			return nil, wrapField(err, field(ev.name))
		}
		for _, n := range names {
			*ev.dst = append(*ev.dst, ir.EventClass(n))
		}
	}

	actions, err := compileActions(v, s.IsAxisNode, field("actions"))
	if err != nil {
		return nil, err
	}
	s.InputActions = actions

	return s, nil
}

// compileActions decodes the actions struct. An entry is either a list of
// event names (shorthand for an action) or a struct with an explicit kind.
func compileActions(v cue.Value, axisNode bool, field string) (map[string]ir.InputAction, error) {
	av := v.LookupPath(cue.ParsePath("actions"))
	if !av.Exists() {
		return nil, nil
	}

	iter, err := av.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	actions := make(map[string]ir.InputAction)
	for iter.Next() {
		name := iter.Label()
		entry := iter.Value()
		entryField := field + "." + name

		if entry.IncompleteKind() == cue.ListKind {
			events, err := eventList(entry)
			if err != nil {
				return nil, wrapField(err, entryField)
			}
			actions[name] = ir.InputAction{Kind: ir.KindAction, Events: events}
			continue
		}

		action := ir.InputAction{Kind: ir.KindAction}
		if axisNode {
			action.Kind = ir.KindAxis
		}
		var kind string
		if err := optString(entry, "kind", &kind); err != nil {
			return nil, wrapField(err, entryField+".kind")
		}
		if kind != "" {
			action.Kind = ir.ActionKind(kind)
		}

		if ev := entry.LookupPath(cue.ParsePath("events")); ev.Exists() {
			events, err := eventList(ev)
			if err != nil {
				return nil, wrapField(err, entryField+".events")
			}
			action.Events = events
		} else if action.Kind == ir.KindAction {
			action.Events = []ir.InputEvent{ir.EventPressed}
		}

		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"low", &action.Low},
			{"high", &action.High},
			{"radius", &action.Radius},
		} {
			if err := optFloat(entry, f.name, f.dst); err != nil {
				return nil, wrapField(err, entryField+"."+f.name)
			}
		}
		if err := optString(entry, "axis_a", &action.AxisA); err != nil {
			return nil, wrapField(err, entryField+".axis_a")
		}
		if err := optString(entry, "axis_b", &action.AxisB); err != nil {
			return nil, wrapField(err, entryField+".axis_b")
		}

		actions[name] = action
	}

	return actions, nil
}

func eventList(v cue.Value) ([]ir.InputEvent, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []ir.InputEvent
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Message: "event must be a string", Pos: iter.Value().Pos()}
		}
		out = append(out, ir.InputEvent(s))
	}
	return out, nil
}

func optString(v cue.Value, name string, dst *string) error {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return nil
	}
	s, err := f.String()
	if err != nil {
		return &CompileError{Field: name, Message: "must be a string", Pos: f.Pos()}
	}
	*dst = s
	return nil
}

func optBool(v cue.Value, name string, dst *bool) error {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return nil
	}
	b, err := f.Bool()
	if err != nil {
		return &CompileError{Field: name, Message: "must be a bool", Pos: f.Pos()}
	}
	*dst = b
	return nil
}

func optFloat(v cue.Value, name string, dst *float64) error {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return nil
	}
	n, err := f.Float64()
	if err != nil {
		return &CompileError{Field: name, Message: "must be a number", Pos: f.Pos()}
	}
	*dst = n
	return nil
}

func intList(v cue.Value, name string) ([]int, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, &CompileError{Field: name, Message: "must be a list of integers", Pos: f.Pos()}
	}
	var out []int
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			return nil, &CompileError{Field: name, Message: "must be a list of integers", Pos: iter.Value().Pos()}
		}
		out = append(out, int(n))
	}
	return out, nil
}

func stringList(v cue.Value, name string) ([]string, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, &CompileError{Field: name, Message: "must be a list of strings", Pos: f.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: name, Message: "must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

// dedupe keeps the first occurrence of each index.
func dedupe(in []int) []int {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, n := range in {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// CompileError is a decode failure with the CUE position when known.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// wrapField qualifies a CompileError's field with its full path.
func wrapField(err error, field string) error {
	if ce, ok := err.(*CompileError); ok {
		return &CompileError{Field: field, Message: ce.Message, Pos: ce.Pos}
	}
	return err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
