package ir

// IndexNone marks "no state": the root's parent and the external reset sentinel.
const IndexNone = -1

// DefaultResetAfterTime is the asset-level idle threshold in seconds.
const DefaultResetAfterTime = 0.2

// EventClass is an opaque identifier resolved to a handler by the dispatcher.
type EventClass string

// InputEvent is a discrete transition of a named input.
type InputEvent string

const (
	EventPressed     InputEvent = "pressed"
	EventReleased    InputEvent = "released"
	EventRepeat      InputEvent = "repeat"
	EventDoubleClick InputEvent = "double_click"
	EventAxis        InputEvent = "axis"
)

// Valid reports whether e is a known discrete transition.
func (e InputEvent) Valid() bool {
	switch e {
	case EventPressed, EventReleased, EventRepeat, EventDoubleClick, EventAxis:
		return true
	}
	return false
}

// ActionKind selects the matching predicate of an InputAction.
type ActionKind string

const (
	KindAction ActionKind = "action"
	KindAxis   ActionKind = "axis"
	KindAxis2D ActionKind = "axis2d"
)

// IsAxis reports whether the kind consumes continuous samples.
func (k ActionKind) IsAxis() bool {
	return k == KindAxis || k == KindAxis2D
}

// InputAction is the static configuration of one named input requirement.
//
// For KindAction, Events is the ordered list of transitions to observe.
// For KindAxis, a single sample in [Low, High] opens the action.
// For KindAxis2D, the sample (AxisA, AxisB) must lie outside Radius and its
// angle in radians must fall in [Low, High].
type InputAction struct {
	Kind   ActionKind   `json:"kind"`
	Events []InputEvent `json:"events,omitempty"`
	Low    float64      `json:"low,omitempty"`
	High   float64      `json:"high,omitempty"`
	Radius float64      `json:"radius,omitempty"`
	AxisA  string       `json:"axis_a,omitempty"`
	AxisB  string       `json:"axis_b,omitempty"`
}

// State is one node of the compiled sequence graph.
type State struct {
	IsInputNode bool `json:"is_input_node"`
	IsAxisNode  bool `json:"is_axis_node"`

	InputActions   map[string]InputAction `json:"input_actions,omitempty"`
	PressedActions []string               `json:"pressed_actions,omitempty"`

	// CanBePassedAfterTime gates passing until TimeParam seconds elapsed.
	CanBePassedAfterTime bool `json:"can_be_passed_after_time,omitempty"`

	OverrideResetAfterTime bool `json:"override_reset_after_time,omitempty"`
	ResetAfterTime         bool `json:"reset_after_time,omitempty"`

	OverridePreciseMatch bool `json:"override_precise_match,omitempty"`
	RequirePreciseMatch  bool `json:"require_precise_match,omitempty"`

	// TimeParam is the pass gate or the overridden idle threshold, in seconds.
	TimeParam float64 `json:"time_param,omitempty"`

	NextIndice            []int `json:"next_indice,omitempty"`
	FirstLayerParentIndex int   `json:"first_layer_parent_index"`

	EnterEvents []EventClass `json:"enter_events,omitempty"`
	PassEvents  []EventClass `json:"pass_events,omitempty"`
	ResetEvents []EventClass `json:"reset_events,omitempty"`

	Object  any    `json:"object,omitempty"`
	Context string `json:"context,omitempty"`
}

// IsFirstLayer reports whether the state hangs directly off the root.
func (s *State) IsFirstLayer() bool {
	return s.FirstLayerParentIndex == 0
}

// IsEmpty reports whether the state has no input requirements.
func (s *State) IsEmpty() bool {
	return len(s.InputActions) == 0
}

// Asset is a compiled input sequence: the state arena plus asset-wide policy.
type Asset struct {
	Name   string  `json:"name"`
	States []State `json:"states"`

	RequirePreciseMatch bool    `json:"require_precise_match,omitempty"`
	IsResetAfterTime    bool    `json:"is_reset_after_time,omitempty"`
	ResetAfterTime      float64 `json:"reset_after_time"`

	StepWhenPaused bool `json:"step_when_paused,omitempty"`
	TickWhenPaused bool `json:"tick_when_paused,omitempty"`

	// ResetScope is "branch" or "node"; empty means branch.
	ResetScope string `json:"reset_scope,omitempty"`
}

// ValidIndex reports whether i addresses a state.
func (a *Asset) ValidIndex(i int) bool {
	return i >= 0 && i < len(a.States)
}

// ResetSource records why a reset was requested: by a state index or by an
// external caller identified by SourceObject and SourceContext.
type ResetSource struct {
	SourceIndex   int    `json:"source_index"`
	SourceObject  any    `json:"source_object,omitempty"`
	SourceContext string `json:"source_context,omitempty"`
}

// IsExternal reports whether the source came from RequestReset.
func (r ResetSource) IsExternal() bool {
	return r.SourceIndex == IndexNone
}

// EventPhase is the lifecycle moment an EventCall was emitted for.
type EventPhase string

const (
	PhaseEnter EventPhase = "enter"
	PhasePass  EventPhase = "pass"
	PhaseReset EventPhase = "reset"
)

// EventCall asks the dispatcher to invoke the handler for EventClass.
type EventCall struct {
	EventClass   EventClass    `json:"event_class"`
	Phase        EventPhase    `json:"phase"`
	Index        int           `json:"index"`
	Object       any           `json:"object,omitempty"`
	Context      string        `json:"context,omitempty"`
	ResetSources []ResetSource `json:"reset_sources,omitempty"`
}

// Frame is one host input frame as recorded and replayed.
type Frame struct {
	DeltaTime float64               `json:"dt" yaml:"dt"`
	Paused    bool                  `json:"paused,omitempty" yaml:"paused,omitempty"`
	Actions   map[string]InputEvent `json:"actions,omitempty" yaml:"actions,omitempty"`
	Axes      map[string]float64    `json:"axes,omitempty" yaml:"axes,omitempty"`

	// Resets are external reset requests issued before the frame is processed.
	Resets []ExternalReset `json:"resets,omitempty" yaml:"resets,omitempty"`
}

// ExternalReset is a RequestReset call captured alongside a frame.
type ExternalReset struct {
	Object  string `json:"object,omitempty" yaml:"object,omitempty"`
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
}
