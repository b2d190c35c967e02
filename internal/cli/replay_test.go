package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comboseq/internal/store"
)

// recordSession runs the press_release frames into dbPath under id.
func recordSession(t *testing.T, dbPath, id string) {
	t.Helper()
	cmd := newRunCommand(runOptions("text", id))
	_, _, err := execute(cmd, pressReleaseAsset, "--input", pressReleaseInput, "--db", dbPath)
	require.NoError(t, err)
}

func TestReplayMissingFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no db", []string{"--asset", pressReleaseAsset}},
		{"no asset", []string{"--db", "combo.db"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(NewReplayCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "required flag")
		})
	}
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(NewReplayCommand(&RootOptions{Format: "text"}), "--db", dbPath, "--asset", pressReleaseAsset)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found in database.")
}

func TestReplayDeterministic(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "combo.db")
	recordSession(t, dbPath, "session-a")
	recordSession(t, dbPath, "session-b")

	out, _, err := execute(NewReplayCommand(&RootOptions{Format: "text", Verbose: true}),
		"--db", dbPath, "--asset", pressReleaseAsset)
	require.NoError(t, err)

	assert.Contains(t, out, "Replay Summary: 2 session(s)")
	assert.Contains(t, out, "✓ Session: session-a (press_release)")
	assert.Contains(t, out, "✓ Session: session-b (press_release)")
	assert.Contains(t, out, "Frames: 3, calls: 6")
	assert.Contains(t, out, "All frame digests match")
	assert.Contains(t, out, "✓ All sessions verified deterministic")
}

func TestReplaySingleSessionJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "combo.db")
	recordSession(t, dbPath, "session-a")
	recordSession(t, dbPath, "session-b")

	out, _, err := execute(NewReplayCommand(&RootOptions{Format: "json"}),
		"session-b", "--db", dbPath, "--asset", "testdata/assets")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.AllDeterministic)
	require.Len(t, resp.Data.Sessions, 1)
	assert.Equal(t, "session-b", resp.Data.Sessions[0].SessionID)
	assert.Equal(t, 3, resp.Data.Sessions[0].Frames)
	assert.Empty(t, resp.Data.Sessions[0].Mismatches)
}

func TestReplayUnknownSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "combo.db")
	recordSession(t, dbPath, "session-a")

	_, _, err := execute(NewReplayCommand(&RootOptions{Format: "text"}),
		"nope", "--db", dbPath, "--asset", pressReleaseAsset)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session nope not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplayAssetMissing(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "combo.db")
	recordSession(t, dbPath, "session-a")

	out, _, err := execute(NewReplayCommand(&RootOptions{Format: "text"}),
		"--db", dbPath, "--asset", hadoukenAsset)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `Error: asset "press_release" not found`)
	assert.Contains(t, out, "✗ Determinism verification failed")
}

func TestReplayAssetChanged(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "combo.db")
	recordSession(t, dbPath, "session-a")

	changed := writeCUE(t, t.TempDir(), "press_release.cue", `
asset: press_release: states: [
	{next: [1]},
	{actions: A: ["pressed"], on_enter: ["other/1"]},
]
`)

	out, _, err := execute(NewReplayCommand(&RootOptions{Format: "json"}),
		"--db", dbPath, "--asset", changed)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
		Error  *CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_DETERMINISM", resp.Error.Code)
	require.Len(t, resp.Data.Sessions, 1)
	assert.Contains(t, resp.Data.Sessions[0].Error, "asset hash does not match")
}

func TestReplayNonExistentAsset(t *testing.T) {
	_, _, err := execute(NewReplayCommand(&RootOptions{Format: "text"}),
		"--db", filepath.Join(t.TempDir(), "x.db"), "--asset", "/nonexistent/assets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load asset")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
