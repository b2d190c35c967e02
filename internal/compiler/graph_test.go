package compiler

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comboseq/internal/ir"
	"github.com/roach88/comboseq/internal/testutil"
)

func TestWriteGraphGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, format := range []GraphFormat{GraphMermaid, GraphDot} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteGraph(&buf, testutil.PressReleaseAsset(), format))
			g.Assert(t, "press_release_"+string(format), buf.Bytes())
		})
	}
}

func TestWriteGraphUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := WriteGraph(&buf, testutil.PressReleaseAsset(), "svg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown graph format")
	assert.Zero(t, buf.Len())
}

func TestStateLabel(t *testing.T) {
	gate := testutil.Input(0, nil, testutil.Act("K", testutil.On(ir.EventPressed)))
	gate.CanBePassedAfterTime = true
	gate.TimeParam = 0.5

	tests := []struct {
		name  string
		index int
		state ir.State
		want  string
	}{
		{"root", 0, ir.State{FirstLayerParentIndex: ir.IndexNone}, "0: root"},
		{"jump", 3, testutil.Jump(0), "3: jump"},
		{"pass", 2, testutil.Input(0, nil, nil), "2: pass"},
		{"gate", 1, gate, "1: K(pressed) after 0.5s"},
		{"axis", 4, testutil.Input(0, nil, testutil.Act("T", testutil.Axis(0.5, 1))), "4: T[0.5,1]"},
		{"axis2d", 5, testutil.Input(0, nil, testutil.Act("M", testutil.Axis2D("lx", "ly", 0.3, 0, 1))), "5: M(lx,ly)>0.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stateLabel(tt.index, &tt.state))
		})
	}
}
