package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/comboseq/internal/compiler"
	"github.com/roach88/comboseq/internal/engine"
	"github.com/roach88/comboseq/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Asset    string // asset file or directory
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	SessionID     string  `json:"session_id"`
	AssetName     string  `json:"asset_name"`
	Frames        int     `json:"frames"`
	Calls         int     `json:"calls"`
	Deterministic bool    `json:"deterministic"`
	Mismatches    []int64 `json:"mismatches,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [session-id]",
		Short: "Replay recorded sessions and verify determinism",
		Long: `Re-run recorded input frames on a fresh engine and compare the calls.

Each session is replayed against the asset it was recorded with, picked by
name from --asset. The asset must hash to the recorded asset hash. Without
a session ID every session in the database is replayed.

Exit codes:
  0 - All sessions are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, asset changed, etc.)

Examples:
  comboseq replay --db ./combo.db --asset ./assets
  comboseq replay 0190a5c2-... --db ./combo.db --asset ./assets/hadouken.cue
  comboseq replay --db ./combo.db --asset ./assets --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := ""
			if len(args) == 1 {
				sessionID = args[0]
			}
			return runReplay(opts, sessionID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Asset, "asset", "", "asset file or directory the sessions were recorded with (required)")
	_ = cmd.MarkFlagRequired("asset")

	return cmd
}

func runReplay(opts *ReplayOptions, sessionID string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	loaded, errs := compiler.LoadAssets(opts.Asset, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return WrapExitError(ExitCommandError, "failed to load asset", errs[0])
	}

	// Open database
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	// Get sessions to process
	var sessions []store.Session
	if sessionID != "" {
		sess, err := st.ReadSession(ctx, sessionID)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("session %s not found", sessionID), err)
		}
		sessions = []store.Session{sess}
	} else {
		sessions, err = st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(sessions)),
		TotalSessions:    len(sessions),
		AllDeterministic: true,
	}

	for _, sess := range sessions {
		sessResult, err := replaySession(ctx, st, loaded, sess, engine.WithLogger(logger))
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", sess.ID), err)
		}

		result.Sessions = append(result.Sessions, sessResult)
		if !sessResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if len(sessions) == 0 && opts.Format != "json" {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found in database.")
		return nil
	}

	// Output results
	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replaySession replays one session against its asset from loaded.
// A missing or changed asset is reported in the result, not as an error.
func replaySession(
	ctx context.Context,
	st *store.Store,
	loaded *compiler.LoadResult,
	sess store.Session,
	opts ...engine.EngineOption,
) (ReplaySessionResult, error) {
	out := ReplaySessionResult{SessionID: sess.ID, AssetName: sess.AssetName}

	state, err := st.GetSessionState(ctx, sess.ID)
	if err != nil {
		return out, err
	}
	out.Frames = state.FrameCount
	out.Calls = state.CallCount

	asset := loaded.Asset(sess.AssetName)
	if asset == nil {
		out.Error = fmt.Sprintf("asset %q not found", sess.AssetName)
		return out, nil
	}

	replay, err := st.ReplaySession(ctx, sess.ID, asset, opts...)
	if errors.Is(err, store.ErrAssetMismatch) {
		out.Error = err.Error()
		return out, nil
	}
	if err != nil {
		return out, err
	}

	out.Deterministic = replay.Deterministic()
	out.Mismatches = replay.Mismatches
	return out, nil
}

// outputReplayJSON writes the replay result; a diverging session fails it.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	f := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
	if result.AllDeterministic {
		return f.Success(result)
	}
	const msg = "determinism verification failed"
	if err := f.Fail("E_DETERMINISM", msg, result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, sess := range result.Sessions {
		status := "✓"
		if !sess.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Session: %s (%s)\n", status, sess.SessionID, sess.AssetName)
		fmt.Fprintf(w, "  Frames: %d, calls: %d\n", sess.Frames, sess.Calls)

		if sess.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", sess.Error)
		} else if !sess.Deterministic {
			fmt.Fprintf(w, "  Warning: Non-deterministic replay at frames %v\n", sess.Mismatches)
		} else if verbose {
			fmt.Fprintln(w, "  All frame digests match")
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}
