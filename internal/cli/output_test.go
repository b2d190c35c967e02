package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, buf *bytes.Buffer) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp), "output: %s", buf.String())
	return resp
}

func TestFormatter_SuccessJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]int{"frames": 3}))

	resp := decodeResponse(t, &buf)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{"frames": float64(3)}, resp.Data)
	assert.Contains(t, buf.String(), "\n  \"status\"", "responses are indented")
}

func TestFormatter_SuccessText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Success("3 frame(s)"))
	assert.Equal(t, "3 frame(s)\n", buf.String())
}

func TestFormatter_Fail(t *testing.T) {
	t.Run("json carries data and error", func(t *testing.T) {
		var buf bytes.Buffer
		f := &OutputFormatter{Format: "json", Writer: &buf}

		require.NoError(t, f.Fail("E_TEST_FAILED", "1 scenario(s) failed", map[string]int{"failed": 1}))

		resp := decodeResponse(t, &buf)
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
		assert.Equal(t, "1 scenario(s) failed", resp.Error.Message)
		assert.Equal(t, map[string]any{"failed": float64(1)}, resp.Data)
	})

	t.Run("text writes nothing", func(t *testing.T) {
		var buf bytes.Buffer
		f := &OutputFormatter{Format: "text", Writer: &buf}

		require.NoError(t, f.Fail("E_TEST_FAILED", "ignored", nil))
		assert.Empty(t, buf.String())
	})
}

func TestFormatter_Error(t *testing.T) {
	details := map[string]string{"file": "hadouken.cue"}

	tests := []struct {
		name    string
		format  string
		verbose bool
		check   func(t *testing.T, out string)
	}{
		{
			name:   "json",
			format: "json",
			check: func(t *testing.T, out string) {
				var resp CLIResponse
				require.NoError(t, json.Unmarshal([]byte(out), &resp))
				assert.Equal(t, "error", resp.Status)
				require.NotNil(t, resp.Error)
				assert.Equal(t, "E002", resp.Error.Code)
				assert.Equal(t, map[string]any{"file": "hadouken.cue"}, resp.Error.Details)
			},
		},
		{
			name:   "text hides details",
			format: "text",
			check: func(t *testing.T, out string) {
				assert.Equal(t, "Error [E002]: syntax error\n", out)
			},
		},
		{
			name:    "verbose text shows details",
			format:  "text",
			verbose: true,
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "Error [E002]: syntax error\n")
				assert.Contains(t, out, "Details: map[file:hadouken.cue]")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := &OutputFormatter{Format: tt.format, Writer: &buf, Verbose: tt.verbose}
			require.NoError(t, f.Error("E002", "syntax error", details))
			tt.check(t, buf.String())
		})
	}
}

func TestFormatter_Verbosef(t *testing.T) {
	t.Run("quiet by default", func(t *testing.T) {
		var out, diag bytes.Buffer
		f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &diag}
		f.Verbosef("loaded %d asset(s)", 2)
		assert.Empty(t, out.String())
		assert.Empty(t, diag.String())
	})

	t.Run("diagnostics stay off stdout", func(t *testing.T) {
		var out, diag bytes.Buffer
		f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &diag, Verbose: true}
		f.Verbosef("loaded %d asset(s)", 2)
		assert.Empty(t, out.String())
		assert.Equal(t, "loaded 2 asset(s)\n", diag.String())
	})

	t.Run("falls back to writer", func(t *testing.T) {
		var out bytes.Buffer
		f := &OutputFormatter{Format: "text", Writer: &out, Verbose: true}
		f.Verbosef("frame %d", 7)
		assert.Equal(t, "frame 7\n", out.String())
	})
}

func TestNewFormatter(t *testing.T) {
	var out, diag bytes.Buffer
	f := newFormatter(&RootOptions{Format: "json", Verbose: true}, &out, &diag)

	assert.True(t, f.JSON())
	assert.True(t, f.Verbose)
	assert.Same(t, &out, f.Writer)
	assert.Same(t, &diag, f.ErrWriter)
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")

	bare := NewExitError(ExitFailure, "replay diverged")
	assert.Equal(t, "replay diverged", bare.Error())
	assert.Nil(t, bare.Unwrap())

	wrapped := WrapExitError(ExitCommandError, "open database", cause)
	assert.Equal(t, "open database: disk full", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"exit error", NewExitError(ExitCommandError, "bad flag"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("run: %w", NewExitError(ExitSuccess, "done")), ExitSuccess},
		{"plain error", errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}
