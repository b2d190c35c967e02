package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds the flags every subcommand inherits.
type RootOptions struct {
	Verbose bool
	Format  string // one of formats
}

// formats are the values --format accepts.
var formats = []string{"text", "json"}

// subcommands are attached to the root in help order.
var subcommands = []func(*RootOptions) *cobra.Command{
	NewValidateCommand,
	NewGraphCommand,
	NewRunCommand,
	NewServeCommand,
	NewReplayCommand,
	NewTestCommand,
	NewTraceCommand,
}

// NewRootCommand builds the comboseq command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "comboseq",
		Short: "comboseq - input sequence recognizer",
		Long: `Recognize fighting-game style input sequences (combos) frame by frame.

Assets describe a flat graph of input states in CUE. The engine consumes
one frame of input at a time and emits enter, pass and reset event calls.`,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return checkFormat(opts.Format)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")

	for _, sub := range subcommands {
		cmd.AddCommand(sub(opts))
	}
	return cmd
}

func checkFormat(format string) error {
	if !slices.Contains(formats, format) {
		return fmt.Errorf("invalid format %q: must be one of %v", format, formats)
	}
	return nil
}

// newLogger returns the diagnostics logger for a command. JSON output
// gets JSON log lines so both streams stay machine readable.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if opts.Verbose {
		hopts.Level = slog.LevelDebug
	}
	if opts.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}
