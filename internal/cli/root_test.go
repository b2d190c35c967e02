package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "comboseq", root.Use)

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"validate", "graph", "run", "serve", "replay", "test", "trace"})
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command  string
		flag     string
		defValue string
	}{
		{"validate", "strict", "false"},
		{"graph", "name", ""},
		{"graph", "graph-format", "mermaid"},
		{"graph", "output", ""},
		{"run", "input", "-"},
		{"run", "db", ""},
		{"run", "reset-scope", ""},
		{"serve", "addr", ":8080"},
		{"serve", "db", ""},
		{"replay", "db", ""},
		{"replay", "asset", ""},
		{"test", "update", "false"},
		{"test", "filter", ""},
		{"test", "golden-dir", ""},
		{"trace", "db", ""},
		{"trace", "class", ""},
		{"trace", "phase", ""},
		{"trace", "from", "0"},
		{"trace", "to", "0"},
	}

	root := NewRootCommand()
	for _, tt := range tests {
		t.Run(tt.command+"/"+tt.flag, func(t *testing.T) {
			sub, _, err := root.Find([]string{tt.command})
			require.NoError(t, err)

			f := sub.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.defValue, f.DefValue)
		})
	}
}

func TestRequiredFlags(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"replay", "--asset", "x.cue"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}

func TestCheckFormat(t *testing.T) {
	for _, f := range []string{"text", "json"} {
		assert.NoError(t, checkFormat(f), f)
	}
	for _, f := range []string{"xml", "", "TEXT"} {
		assert.ErrorContains(t, checkFormat(f), "invalid format", f)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&RootOptions{Format: "json"}, &buf).Debug("hidden")
	newLogger(&RootOptions{Format: "json"}, &buf).Info("frame", "seq", 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"frame"`)
	assert.Contains(t, buf.String(), `"seq":3`)

	buf.Reset()
	newLogger(&RootOptions{Format: "text", Verbose: true}, &buf).Debug("held", "action", "A")
	assert.Contains(t, buf.String(), "level=DEBUG msg=held action=A")
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "validate", "."})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
