package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/comboseq/internal/ir"
	"github.com/roach88/comboseq/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Class    string // optional - filter to one event class
	Phase    string // optional - filter to enter, pass or reset
	From     int64  // optional - first frame, inclusive
	To       int64  // optional - last frame, inclusive
}

// TraceEvent represents a single recorded call in the trace timeline.
type TraceEvent struct {
	SessionID    string           `json:"session_id,omitempty"`
	Frame        int64            `json:"frame"`
	Ord          int              `json:"ord"`
	Phase        ir.EventPhase    `json:"phase"`
	EventClass   ir.EventClass    `json:"event_class"`
	Index        int              `json:"index"`
	Object       any              `json:"object,omitempty"`
	Context      string           `json:"context,omitempty"`
	ResetSources []ir.ResetSource `json:"reset_sources,omitempty"`
}

// ResetEdge links a reset source to a state it reset.
type ResetEdge struct {
	Frame         int64  `json:"frame"`
	SourceIndex   int    `json:"source_index"` // -1 for external resets
	SourceObject  any    `json:"source_object,omitempty"`
	SourceContext string `json:"source_context,omitempty"`
	ResetIndex    int    `json:"reset_index"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	SessionID string       `json:"session_id,omitempty"`
	AssetName string       `json:"asset_name,omitempty"`
	Timeline  []TraceEvent `json:"timeline"`
	Resets    []ResetEdge  `json:"resets"`
	Stats     TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Frames int `json:"frames"`
	Calls  int `json:"calls"`
	Enters int `json:"enters"`
	Passes int `json:"passes"`
	Resets int `json:"resets"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [session-id]",
		Short: "Show recorded event calls",
		Long: `Show the recorded event calls of a session.

The output includes:
- Timeline: every call in frame and emission order
- Resets: which reset source (a state index or an external request)
  caused each reset call
- Stats: summary counts for the session

Without a session ID, --class lists that class across all sessions.

Examples:
  comboseq trace 0190a5c2-... --db ./combo.db
  comboseq trace 0190a5c2-... --db ./combo.db --phase reset
  comboseq trace 0190a5c2-... --db ./combo.db --from 10 --to 20
  comboseq trace --db ./combo.db --class hadouken.pass --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := ""
			if len(args) == 1 {
				sessionID = args[0]
			}
			return runTrace(opts, sessionID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Class, "class", "", "filter to one event class")
	cmd.Flags().StringVar(&opts.Phase, "phase", "", "filter to one phase (enter|pass|reset)")
	cmd.Flags().Int64Var(&opts.From, "from", 0, "first frame to show")
	cmd.Flags().Int64Var(&opts.To, "to", 0, "last frame to show")

	return cmd
}

func runTrace(opts *TraceOptions, sessionID string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if sessionID == "" && opts.Class == "" {
		return NewExitError(ExitCommandError, "a session ID or --class is required")
	}
	switch ir.EventPhase(opts.Phase) {
	case "", ir.PhaseEnter, ir.PhasePass, ir.PhaseReset:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --phase %q: must be enter, pass or reset", opts.Phase))
	}
	if opts.From < 0 || opts.To < 0 || (opts.To > 0 && opts.From > opts.To) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid frame range --from %d --to %d", opts.From, opts.To))
	}

	// Open database
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	result, err := buildTrace(ctx, st, sessionID, opts)
	if err != nil {
		return err
	}

	// Output results
	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

func buildTrace(ctx context.Context, st *store.Store, sessionID string, opts *TraceOptions) (TraceResult, error) {
	result := TraceResult{
		SessionID: sessionID,
		Timeline:  []TraceEvent{},
		Resets:    []ResetEdge{},
	}

	if sessionID != "" {
		state, err := st.GetSessionState(ctx, sessionID)
		if err != nil {
			return result, WrapExitError(ExitCommandError, fmt.Sprintf("session %s not found", sessionID), err)
		}
		result.AssetName = state.Session.AssetName
		result.Stats.Frames = state.FrameCount
	}

	records, err := st.QueryCalls(ctx, callFilter(sessionID, opts))
	if err != nil {
		return result, WrapExitError(ExitCommandError, "failed to read event calls", err)
	}

	for _, rec := range records {
		ev := TraceEvent{
			Frame:        rec.FrameSeq,
			Ord:          rec.Ord,
			Phase:        rec.Call.Phase,
			EventClass:   rec.Call.EventClass,
			Index:        rec.Call.Index,
			Object:       rec.Call.Object,
			Context:      rec.Call.Context,
			ResetSources: rec.Call.ResetSources,
		}
		if sessionID == "" {
			ev.SessionID = rec.SessionID
		}
		result.Timeline = append(result.Timeline, ev)

		switch rec.Call.Phase {
		case ir.PhaseEnter:
			result.Stats.Enters++
		case ir.PhasePass:
			result.Stats.Passes++
		case ir.PhaseReset:
			result.Stats.Resets++
			result.Resets = append(result.Resets, resetEdges(rec)...)
		}
	}
	result.Stats.Calls = len(result.Timeline)

	return result, nil
}

// callFilter maps the command's flags to a store filter.
func callFilter(sessionID string, opts *TraceOptions) store.CallFilter {
	return store.CallFilter{
		SessionID: sessionID,
		Class:     opts.Class,
		Phase:     opts.Phase,
		FromFrame: opts.From,
		ToFrame:   opts.To,
	}
}

// resetEdges attributes a reset call to every source of its frame.
func resetEdges(rec store.CallRecord) []ResetEdge {
	edges := make([]ResetEdge, 0, len(rec.Call.ResetSources))
	for _, src := range rec.Call.ResetSources {
		edges = append(edges, ResetEdge{
			Frame:         rec.FrameSeq,
			SourceIndex:   src.SourceIndex,
			SourceObject:  src.SourceObject,
			SourceContext: src.SourceContext,
			ResetIndex:    rec.Call.Index,
		})
	}
	return edges
}

func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	f := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
	return f.Success(result)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.SessionID != "" {
		fmt.Fprintf(w, "Session: %s (%s)\n", result.SessionID, result.AssetName)
	}
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No event calls found.")
		return nil
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Timeline:")
	for _, ev := range result.Timeline {
		prefix := ""
		if ev.SessionID != "" {
			prefix = ev.SessionID + " "
		}
		fmt.Fprintf(w, "  %s[%d.%d] %-5s %s (state %d)", prefix, ev.Frame, ev.Ord, ev.Phase, ev.EventClass, ev.Index)
		if verbose {
			if ev.Object != nil {
				fmt.Fprintf(w, " object=%v", ev.Object)
			}
			if ev.Context != "" {
				fmt.Fprintf(w, " context=%s", ev.Context)
			}
		}
		fmt.Fprintln(w)
	}

	if len(result.Resets) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Resets:")
		for _, e := range result.Resets {
			if e.SourceIndex == ir.IndexNone {
				fmt.Fprintf(w, "  [%d] external(%v, %q) -> state %d\n", e.Frame, e.SourceObject, e.SourceContext, e.ResetIndex)
				continue
			}
			fmt.Fprintf(w, "  [%d] state %d -> state %d\n", e.Frame, e.SourceIndex, e.ResetIndex)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Stats: %d frame(s), %d call(s): %d enter, %d pass, %d reset\n",
		result.Stats.Frames, result.Stats.Calls, result.Stats.Enters, result.Stats.Passes, result.Stats.Resets)
	return nil
}
