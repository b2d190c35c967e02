package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comboseq/internal/engine"
	"github.com/roach88/comboseq/internal/ir"
	"github.com/roach88/comboseq/internal/store"
)

func runOptions(format string, ids ...string) *RunOptions {
	return &RunOptions{
		RootOptions:      &RootOptions{Format: format},
		SessionGenerator: engine.NewFixedGenerator(ids...),
	}
}

func TestRunText(t *testing.T) {
	cmd := newRunCommand(runOptions("text", "run-1"))

	out, _, err := execute(cmd, pressReleaseAsset, "--input", pressReleaseInput)
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"1\tenter\tenter/1\tstate=1",
		"1\tenter\tenter/2\tstate=2",
		"1\tpass\tpass/1\tstate=1",
		"2\tenter\tenter/1\tstate=1",
		"2\tpass\tpass/2\tstate=2",
		"3\treset\treset/1\tstate=1\tresets=1",
		"session run-1: 3 frame(s), active []",
		"",
	}, "\n"), out)
}

func TestRunJSON(t *testing.T) {
	cmd := newRunCommand(runOptions("json", "run-json"))

	out, _, err := execute(cmd, pressReleaseAsset, "--input", pressReleaseInput)
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-json", resp.Data.SessionID)
	assert.Equal(t, "press_release", resp.Data.Asset)
	assert.Equal(t, []int{}, resp.Data.Active)
	require.Len(t, resp.Data.Frames, 3)

	first := resp.Data.Frames[0]
	assert.Equal(t, int64(1), first.Frame)
	assert.Len(t, first.Calls, 3)
	assert.Empty(t, first.ResetSources)

	last := resp.Data.Frames[2]
	assert.Equal(t, int64(3), last.Frame)
	require.Len(t, last.Calls, 1)
	assert.Equal(t, ir.EventClass("reset/1"), last.Calls[0].EventClass)
	require.Len(t, last.ResetSources, 1)
	assert.Equal(t, ir.IndexNone, last.ResetSources[0].SourceIndex)
	assert.Equal(t, "menu", last.ResetSources[0].SourceObject)
	assert.Equal(t, "pause", last.ResetSources[0].SourceContext)
}

func TestRunStdinRecordsSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "run.db")
	cmd := newRunCommand(runOptions("text", "stdin-session"))
	cmd.SetIn(strings.NewReader(`{"dt": 0.125, "actions": {"A": "pressed"}}` + "\n"))

	_, _, err := execute(cmd, pressReleaseAsset, "--db", dbPath)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	state, err := st.GetSessionState(context.Background(), "stdin-session")
	require.NoError(t, err)
	assert.Equal(t, "press_release", state.Session.AssetName)
	assert.Equal(t, 1, state.FrameCount)
	assert.Equal(t, 3, state.CallCount)
}

func TestRunInvalidFrame(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"malformed", "{\"dt\": 0.1}\n{not json}\n", "invalid frame on line 2"},
		{"negative dt", `{"dt": -1}`, "dt must be non-negative"},
		{"unknown event", `{"dt": 0.1, "actions": {"A": "tapped"}}`, `actions.A: unknown event "tapped"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRunCommand(runOptions("text", "bad"))
			cmd.SetIn(strings.NewReader(tt.input))

			_, _, err := execute(cmd, pressReleaseAsset)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestRunInvalidAsset(t *testing.T) {
	path := writeCUE(t, t.TempDir(), "bad.cue", `asset: bad: states: [{parent: 0}]`)

	_, _, err := execute(NewRunCommand(&RootOptions{Format: "text"}), path, "--input", pressReleaseInput)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "asset bad is invalid")
}

func TestRunInvalidResetScope(t *testing.T) {
	_, _, err := execute(NewRunCommand(&RootOptions{Format: "text"}), pressReleaseAsset, "--reset-scope", "tree")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --reset-scope")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunMissingInputFile(t *testing.T) {
	_, _, err := execute(NewRunCommand(&RootOptions{Format: "text"}), pressReleaseAsset, "--input", "/nonexistent.jsonl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open input")
}

func TestReadFrames_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := readFrames(ctx, strings.NewReader(`{"dt": 0.1}`), func(int, ir.Frame) error {
		t.Fatal("frame handled after cancel")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeFrame(t *testing.T) {
	f, err := decodeFrame([]byte(`{"dt": 0.5, "paused": true, "axes": {"H": 0.8}, "resets": [{"context": "pause"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 0.5, f.DeltaTime)
	assert.True(t, f.Paused)
	assert.Equal(t, map[string]float64{"H": 0.8}, f.Axes)
	require.Len(t, f.Resets, 1)
	assert.Equal(t, "pause", f.Resets[0].Context)
}
