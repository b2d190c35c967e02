package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/comboseq/internal/dispatch"
	"github.com/roach88/comboseq/internal/engine"
	"github.com/roach88/comboseq/internal/ir"
	"github.com/roach88/comboseq/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	AssetName  string
	Input      string // JSON-lines frame file, "-" for stdin
	Database   string
	ResetScope string

	// SessionGenerator allows overriding the session ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionGenerator engine.SessionIDGenerator
}

// FrameOutput is the result of one input frame.
type FrameOutput struct {
	Frame        int64            `json:"frame"`
	Calls        []ir.EventCall   `json:"calls"`
	ResetSources []ir.ResetSource `json:"reset_sources,omitempty"`
}

// RunResult is the JSON result of the run command.
type RunResult struct {
	SessionID string        `json:"session_id"`
	Asset     string        `json:"asset"`
	Frames    []FrameOutput `json:"frames"`
	Active    []int         `json:"active"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <asset-path>",
		Short: "Feed input frames through an asset",
		Long: `Feed JSON-lines input frames through the engine and print the event calls.

Each input line is one frame:
  {"dt": 0.016, "actions": {"Down": "pressed"}, "axes": {"Horizontal": 0.8}}
  {"dt": 0.016, "paused": true, "resets": [{"object": "menu", "context": "pause"}]}

Every frame is recorded as a session. Without --db the session lives in
memory and is lost on exit.

Examples:
  comboseq run ./assets/hadouken.cue --input frames.jsonl
  cat frames.jsonl | comboseq run ./assets --name hadouken --db ./combo.db
  comboseq run ./assets/hadouken.cue --input frames.jsonl --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFrames(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.AssetName, "name", "", "asset to run when the path defines several")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "-", `JSON-lines frame file ("-" for stdin)`)
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: in-memory)")
	cmd.Flags().StringVar(&opts.ResetScope, "reset-scope", "", "override the asset reset scope (branch|node)")

	return cmd
}

func runFrames(opts *RunOptions, path string, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if err := engine.ValidateResetScope(opts.ResetScope); err != nil {
		return WrapExitError(ExitCommandError, "invalid --reset-scope", err)
	}

	asset, err := loadValidAsset(path, opts.AssetName)
	if err != nil {
		return err
	}
	logger.Debug("asset loaded", "asset", asset.Name, "states", len(asset.States))

	in, closeInput, err := openInput(opts.Input, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer closeInput()

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = ":memory:"
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	engOpts := []engine.EngineOption{engine.WithLogger(logger)}
	if opts.ResetScope != "" {
		engOpts = append(engOpts, engine.WithResetScope(engine.ResetScope(opts.ResetScope)))
	}
	eng := engine.New(asset, engOpts...)

	ids := opts.SessionGenerator
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	rec, err := store.NewRecorder(ctx, st, eng, asset, ids)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start session", err)
	}
	logger.Info("session started", "session", rec.Session().ID, "asset", asset.Name, "db", dbPath)

	// Calls are dispatched to a collecting fallback handler; hosts embedding
	// the engine register per-class handlers instead.
	collected := &dispatch.Recorder{}
	registry := dispatch.NewRegistry(dispatch.WithFallback(collected), dispatch.WithLogger(logger))

	result := RunResult{
		SessionID: rec.Session().ID,
		Asset:     asset.Name,
		Frames:    []FrameOutput{},
	}
	w := cmd.OutOrStdout()

	err = readFrames(ctx, in, func(line int, f ir.Frame) error {
		calls, sources, err := rec.Apply(ctx, f)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("frame on line %d", line), err)
		}

		collected.Reset()
		if err := registry.Dispatch(ctx, calls); err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("dispatch on line %d", line), err)
		}

		out := FrameOutput{Frame: eng.Frame(), Calls: collected.Calls(), ResetSources: sources}
		if out.Calls == nil {
			out.Calls = []ir.EventCall{}
		}
		if opts.Format == "json" {
			result.Frames = append(result.Frames, out)
			return nil
		}
		printFrameText(w, out)
		return nil
	})
	if err != nil {
		return err
	}

	result.Active = eng.ActiveIndices()
	if result.Active == nil {
		result.Active = []int{}
	}

	if formatter := newFormatter(opts.RootOptions, w, nil); formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(w, "session %s: %d frame(s), active %v\n", result.SessionID, eng.Frame(), result.Active)
	return nil
}

// openInput opens the frame source. "-" or "" reads stdin.
func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open input", err)
	}
	return f, func() { f.Close() }, nil
}

// readFrames decodes one frame per non-empty line and calls fn in order.
// Reading stops at EOF, on the first error, or when ctx is cancelled.
func readFrames(ctx context.Context, r io.Reader, fn func(line int, f ir.Frame) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}

		data := scanner.Bytes()
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}

		f, err := decodeFrame(data)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid frame on line %d", line), err)
		}
		if err := fn(line, f); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}
	return nil
}

// decodeFrame parses and checks one JSON frame.
func decodeFrame(data []byte) (ir.Frame, error) {
	var f ir.Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return ir.Frame{}, err
	}
	if f.DeltaTime < 0 {
		return ir.Frame{}, fmt.Errorf("dt must be non-negative, got %g", f.DeltaTime)
	}
	for name, ev := range f.Actions {
		if !ev.Valid() {
			return ir.Frame{}, fmt.Errorf("actions.%s: unknown event %q", name, ev)
		}
	}
	return f, nil
}

// printFrameText writes one line per call.
func printFrameText(w io.Writer, out FrameOutput) {
	for _, c := range out.Calls {
		fmt.Fprintf(w, "%d\t%s\t%s\tstate=%d", out.Frame, c.Phase, c.EventClass, c.Index)
		if c.Object != nil {
			fmt.Fprintf(w, "\tobject=%v", c.Object)
		}
		if c.Context != "" {
			fmt.Fprintf(w, "\tcontext=%s", c.Context)
		}
		if len(c.ResetSources) > 0 {
			fmt.Fprintf(w, "\tresets=%d", len(c.ResetSources))
		}
		fmt.Fprintln(w)
	}
}
