package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAsset() *Asset {
	return &Asset{
		Name:           "combo",
		ResetAfterTime: DefaultResetAfterTime,
		States: []State{
			{FirstLayerParentIndex: IndexNone, NextIndice: []int{1}},
			{
				IsInputNode:  true,
				InputActions: map[string]InputAction{"A": {Kind: KindAction, Events: []InputEvent{EventPressed}}},
				PassEvents:   []EventClass{"Hit"},
			},
		},
	}
}

func TestAssetHashStable(t *testing.T) {
	h1, err := AssetHash(testAsset())
	require.NoError(t, err)
	h2, err := AssetHash(testAsset())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestAssetHashChangesWithContent(t *testing.T) {
	a := testAsset()
	h1, err := AssetHash(a)
	require.NoError(t, err)

	a.States[1].PassEvents = []EventClass{"Miss"}
	h2, err := AssetHash(a)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestCallsDigestNilEqualsEmpty(t *testing.T) {
	d1, err := CallsDigest(nil)
	require.NoError(t, err)
	d2, err := CallsDigest([]EventCall{})
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestCallsDigestOrderSensitive(t *testing.T) {
	a := EventCall{EventClass: "A", Phase: PhaseEnter, Index: 1}
	b := EventCall{EventClass: "B", Phase: PhasePass, Index: 2}

	d1, err := CallsDigest([]EventCall{a, b})
	require.NoError(t, err)
	d2, err := CallsDigest([]EventCall{b, a})
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)
}
