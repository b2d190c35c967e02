package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputEventValid(t *testing.T) {
	for _, e := range []InputEvent{EventPressed, EventReleased, EventRepeat, EventDoubleClick, EventAxis} {
		assert.True(t, e.Valid(), e)
	}
	assert.False(t, InputEvent("tapped").Valid())
}

func TestStateHelpers(t *testing.T) {
	s := State{FirstLayerParentIndex: 0}
	assert.True(t, s.IsFirstLayer())
	assert.True(t, s.IsEmpty())

	s.FirstLayerParentIndex = 2
	s.InputActions = map[string]InputAction{"A": {Kind: KindAction}}
	assert.False(t, s.IsFirstLayer())
	assert.False(t, s.IsEmpty())
}

func TestAssetValidIndex(t *testing.T) {
	a := testAsset()
	assert.True(t, a.ValidIndex(0))
	assert.True(t, a.ValidIndex(1))
	assert.False(t, a.ValidIndex(2))
	assert.False(t, a.ValidIndex(IndexNone))
}

func TestResetSourceIsExternal(t *testing.T) {
	assert.True(t, ResetSource{SourceIndex: IndexNone, SourceContext: "menu"}.IsExternal())
	assert.False(t, ResetSource{SourceIndex: 3}.IsExternal())
}
