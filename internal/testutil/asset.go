package testutil

import (
	"fmt"

	"github.com/roach88/comboseq/internal/ir"
)

// AssetBuilder assembles small compiled assets for tests. Index 0 is the
// root; states are appended in order so their index is their position.
//
// Any state left without event classes gets "enter/N", "pass/N" and
// "reset/N" so tests can read call order straight off class names.
type AssetBuilder struct {
	asset ir.Asset
}

// NewAsset starts an asset whose root transitions to rootNext.
func NewAsset(name string, rootNext ...int) *AssetBuilder {
	return &AssetBuilder{asset: ir.Asset{
		Name:           name,
		ResetAfterTime: ir.DefaultResetAfterTime,
		States: []ir.State{{
			FirstLayerParentIndex: ir.IndexNone,
			NextIndice:            rootNext,
		}},
	}}
}

// State appends s.
func (b *AssetBuilder) State(s ir.State) *AssetBuilder {
	b.asset.States = append(b.asset.States, s)
	return b
}

// With edits asset-level policy.
func (b *AssetBuilder) With(fn func(a *ir.Asset)) *AssetBuilder {
	fn(&b.asset)
	return b
}

// Build returns the asset with default event classes filled in.
func (b *AssetBuilder) Build() *ir.Asset {
	a := b.asset
	a.States = append([]ir.State(nil), b.asset.States...)
	for i := range a.States {
		s := &a.States[i]
		if s.EnterEvents == nil {
			s.EnterEvents = []ir.EventClass{ir.EventClass(fmt.Sprintf("enter/%d", i))}
		}
		if s.PassEvents == nil {
			s.PassEvents = []ir.EventClass{ir.EventClass(fmt.Sprintf("pass/%d", i))}
		}
		if s.ResetEvents == nil {
			s.ResetEvents = []ir.EventClass{ir.EventClass(fmt.Sprintf("reset/%d", i))}
		}
	}
	return &a
}

// Input is an input state under parent requiring actions.
func Input(parent int, next []int, actions map[string]ir.InputAction) ir.State {
	return ir.State{
		IsInputNode:           true,
		InputActions:          actions,
		NextIndice:            next,
		FirstLayerParentIndex: parent,
	}
}

// Jump is a non-input (go-to-start) state under parent.
func Jump(parent int) ir.State {
	return ir.State{FirstLayerParentIndex: parent}
}

// On requires the ordered discrete events for one input.
func On(events ...ir.InputEvent) ir.InputAction {
	return ir.InputAction{Kind: ir.KindAction, Events: events}
}

// Axis requires one sample in [low, high].
func Axis(low, high float64) ir.InputAction {
	return ir.InputAction{Kind: ir.KindAxis, Low: low, High: high}
}

// Axis2D requires a stick sample from inputs a and b outside radius with
// its angle in [low, high].
func Axis2D(a, b string, radius, low, high float64) ir.InputAction {
	return ir.InputAction{Kind: ir.KindAxis2D, AxisA: a, AxisB: b, Radius: radius, Low: low, High: high}
}

// Act builds a single-entry action map.
func Act(name string, a ir.InputAction) map[string]ir.InputAction {
	return map[string]ir.InputAction{name: a}
}

// PressReleaseAsset is root → 1 [press A] → 2 [release A], with 2 falling
// back to its first-layer parent 1.
func PressReleaseAsset() *ir.Asset {
	return NewAsset("press_release", 1).
		State(Input(0, []int{2}, Act("A", On(ir.EventPressed)))).
		State(Input(1, nil, Act("A", On(ir.EventReleased)))).
		Build()
}

// Classes lists the event classes of calls in order.
func Classes(calls []ir.EventCall) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = string(c.EventClass)
	}
	return out
}
