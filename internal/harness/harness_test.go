package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comboseq/internal/ir"
	"github.com/roach88/comboseq/internal/testutil"
)

func TestRun_PressReleaseScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/press_release.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "test-session", result.SessionID)
	assert.Equal(t, 2, result.Frames)
	assert.Equal(t, []int{1}, result.Active)
	assert.Equal(t, []string{"enter/1", "enter/2", "pass/1", "enter/1", "pass/2"}, result.Classes())

	// Elapsed accumulates the scripted dt values.
	assert.Equal(t, 0.25, result.Trace[0].Elapsed)
	assert.Equal(t, 0.5, result.Trace[4].Elapsed)
}

func TestRun_HadoukenScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/hadouken.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []int{1, 4}, result.Active)
	require.Len(t, result.Trace, 16)

	// The external reset of frame 4 tags both reset calls.
	reset := result.Trace[9]
	assert.Equal(t, ir.EventClass("down.reset"), reset.EventClass)
	assert.Equal(t, "ryu", reset.Object)
	assert.Equal(t, "motion", reset.Context)
	assert.Equal(t, []ir.ResetSource{{SourceIndex: ir.IndexNone, SourceObject: "menu", SourceContext: "pause"}}, reset.ResetSources)

	// The jump node restarts its branch in the same frame.
	last := result.Trace[15]
	assert.Equal(t, ir.EventClass("kick.enter"), last.EventClass)
	assert.Equal(t, []ir.ResetSource{{SourceIndex: 5}}, last.ResetSources)
}

func TestRunAsset_BuilderAsset(t *testing.T) {
	scenario := &Scenario{
		Name:        "builder",
		Description: "Builder asset without a file",
		Session:     "builder-session",
		Frames: []ir.Frame{
			{DeltaTime: 0.125, Actions: map[string]ir.InputEvent{"A": ir.EventPressed}},
		},
		Assertions: []Assertion{
			{Type: AssertEventOrder, Classes: []string{"enter/1", "enter/2", "pass/1"}},
			{Type: AssertActiveStates, States: []int{2}},
		},
	}

	result, err := RunAsset(scenario, testutil.PressReleaseAsset())
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "builder-session", result.SessionID)
}

func TestRunAsset_FailingAssertion(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing",
		Description: "Assertions that do not hold",
		Frames: []ir.Frame{
			{DeltaTime: 0.125, Actions: map[string]ir.InputEvent{"A": ir.EventPressed}},
		},
		Assertions: []Assertion{
			{Type: AssertEventContains, Class: "pass/2"},
			{Type: AssertEventCount, Class: "enter/1", Count: 1},
		},
	}

	result, err := RunAsset(scenario, testutil.PressReleaseAsset())
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "pass/2")
}

// branchAsset is root → 1 [press A] → {2 jump, 3 [press B]}.
func branchAsset() *ir.Asset {
	return testutil.NewAsset("branch", 1).
		State(testutil.Input(0, []int{2, 3}, testutil.Act("A", testutil.On(ir.EventPressed)))).
		State(testutil.Jump(1)).
		State(testutil.Input(1, nil, testutil.Act("B", testutil.On(ir.EventPressed)))).
		Build()
}

func TestRunAsset_ResetScope(t *testing.T) {
	frames := []ir.Frame{
		{DeltaTime: 0.125, Actions: map[string]ir.InputEvent{"A": ir.EventPressed}},
		{DeltaTime: 0.125},
	}

	tests := []struct {
		scope      string
		wantFrame2 []string
		wantActive []int
	}{
		{"", []string{"reset/2", "reset/3", "enter/1"}, []int{1}},
		{"branch", []string{"reset/2", "reset/3", "enter/1"}, []int{1}},
		{"node", []string{"reset/2"}, []int{3}},
	}

	for _, tt := range tests {
		t.Run("scope="+tt.scope, func(t *testing.T) {
			scenario := &Scenario{
				Name:        "scope",
				Description: "Jump node reset",
				ResetScope:  tt.scope,
				Frames:      frames,
				Assertions:  []Assertion{{Type: AssertActiveStates, States: tt.wantActive}},
			}

			result, err := RunAsset(scenario, branchAsset())
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)

			var frame2 []string
			for _, ev := range result.Trace {
				if ev.Frame == 2 {
					frame2 = append(frame2, string(ev.EventClass))
					assert.Equal(t, []ir.ResetSource{{SourceIndex: 2}}, ev.ResetSources)
				}
			}
			assert.Equal(t, tt.wantFrame2, frame2)
		})
	}
}

func TestLoadScenarioAsset_Selection(t *testing.T) {
	multi := filepath.Join("..", "compiler", "testdata", "assets", "multi")

	_, err := LoadScenarioAsset(&Scenario{Asset: multi})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defines 2 assets")

	asset, err := LoadScenarioAsset(&Scenario{Asset: multi, AssetName: "alpha"})
	require.NoError(t, err)
	assert.Equal(t, "alpha", asset.Name)

	_, err = LoadScenarioAsset(&Scenario{Asset: multi, AssetName: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `asset "nope" not found`)
}

func TestLoadScenarioAsset_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte(`asset: bad: states: [{input: true}]`), 0644))

	_, err := LoadScenarioAsset(&Scenario{Asset: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asset bad is invalid")
}

func TestLoadScenarioAsset_LoadError(t *testing.T) {
	_, err := LoadScenarioAsset(&Scenario{Asset: "/nonexistent/asset.cue"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load asset")
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/hadouken.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := MarshalSnapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := MarshalSnapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
