package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/comboseq/internal/ir"
	"github.com/roach88/comboseq/internal/testutil"
)

func TestSequenceState_ConjunctiveOpen(t *testing.T) {
	def := testutil.Input(0, nil, map[string]ir.InputAction{
		"A": testutil.On(ir.EventPressed),
		"B": testutil.On(ir.EventPressed),
	})
	s := newSequenceState(&def)

	assert.True(t, s.ConsumeInput(map[string]ir.InputEvent{"A": ir.EventPressed}, nil, nil))
	assert.False(t, s.IsOpen())

	assert.True(t, s.ConsumeInput(map[string]ir.InputEvent{"B": ir.EventPressed}, nil, nil))
	assert.True(t, s.IsOpen())
}

func TestSequenceState_HeldInputFedAsPressed(t *testing.T) {
	def := testutil.Input(0, nil, testutil.Act("A", testutil.On(ir.EventPressed)))
	s := newSequenceState(&def)

	held := map[string]struct{}{"A": {}}
	assert.True(t, s.ConsumeInput(nil, held, nil))
	assert.True(t, s.IsOpen())
}

func TestSequenceState_ProgressRestartsTimer(t *testing.T) {
	def := testutil.Input(0, nil, testutil.Act("A", testutil.On(ir.EventPressed, ir.EventReleased)))
	s := newSequenceState(&def)
	s.accumulated = 0.7

	assert.False(t, s.ConsumeInput(map[string]ir.InputEvent{"B": ir.EventPressed}, nil, nil))
	assert.Equal(t, 0.7, s.AccumulatedTime())

	assert.True(t, s.ConsumeInput(map[string]ir.InputEvent{"A": ir.EventPressed}, nil, nil))
	assert.Equal(t, 0.0, s.AccumulatedTime())
}

func TestSequenceState_AxisNodeUsesAxisPredicate(t *testing.T) {
	def := testutil.Input(0, nil, map[string]ir.InputAction{
		"Throttle": testutil.Axis(0.5, 1),
		"Stick":    testutil.Axis2D("X", "Y", 0.5, -1, 1),
	})
	def.IsAxisNode = true
	s := newSequenceState(&def)

	assert.True(t, s.ConsumeInput(nil, nil, map[string]float64{"Throttle": 0.8}))
	assert.False(t, s.IsOpen())

	assert.True(t, s.ConsumeInput(nil, nil, map[string]float64{"X": 1, "Y": 0}))
	assert.True(t, s.IsOpen())
}

func TestSequenceState_Axis2DNeedsBothSources(t *testing.T) {
	def := testutil.Input(0, nil, testutil.Act("Stick", testutil.Axis2D("X", "Y", 0, -4, 4)))
	def.IsAxisNode = true
	s := newSequenceState(&def)

	assert.False(t, s.ConsumeInput(nil, nil, map[string]float64{"X": 1}))
	assert.False(t, s.IsOpen())
}

func TestSequenceState_Reset(t *testing.T) {
	def := testutil.Input(0, nil, testutil.Act("A", testutil.On(ir.EventPressed)))
	s := newSequenceState(&def)
	s.ConsumeInput(map[string]ir.InputEvent{"A": ir.EventPressed}, nil, nil)
	s.accumulated = 3

	s.Reset()
	assert.False(t, s.IsOpen())
	assert.Equal(t, 0.0, s.AccumulatedTime())
}

func TestSequenceState_EffectivePolicies(t *testing.T) {
	asset := &ir.Asset{IsResetAfterTime: true, ResetAfterTime: 0.2}
	def := ir.State{}
	s := newSequenceState(&def)

	assert.True(t, s.usePreciseMatch(true))
	enabled, threshold := s.idleReset(asset)
	assert.True(t, enabled)
	assert.Equal(t, 0.2, threshold)

	def.OverridePreciseMatch = true
	def.OverrideResetAfterTime = true
	def.ResetAfterTime = true
	def.TimeParam = 1.5

	assert.False(t, s.usePreciseMatch(true))
	enabled, threshold = s.idleReset(asset)
	assert.True(t, enabled)
	assert.Equal(t, 1.5, threshold)
}

func TestSequenceState_Expects(t *testing.T) {
	def := testutil.Input(0, nil, testutil.Act("A", testutil.On(ir.EventPressed)))
	def.PressedActions = []string{"Guard"}
	s := newSequenceState(&def)

	assert.True(t, s.expects("A"))
	assert.True(t, s.expects("Guard"))
	assert.False(t, s.expects("Fire"))
}
