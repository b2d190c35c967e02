package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/roach88/comboseq/internal/engine"
	"github.com/roach88/comboseq/internal/ir"
	"github.com/roach88/comboseq/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	AssetName  string
	Addr       string
	Database   string
	ResetScope string

	// SessionGenerator allows overriding the session ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionGenerator engine.SessionIDGenerator
}

// FrameReply answers one frame message.
type FrameReply struct {
	Session      string           `json:"session"`
	Frame        int64            `json:"frame"`
	Calls        []ir.EventCall   `json:"calls"`
	ResetSources []ir.ResetSource `json:"reset_sources,omitempty"`
	Active       []int            `json:"active"`
	Error        string           `json:"error,omitempty"`
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve <asset-path>",
		Short: "Serve an asset over websockets",
		Long: `Serve an asset over a websocket endpoint at /ws.

Every connection gets its own engine and recorded session. Each text
message is one JSON frame; the reply lists the calls it produced:
  -> {"dt": 0.016, "actions": {"Down": "pressed"}}
  <- {"session": "...", "frame": 1, "calls": [...], "active": [4, 2]}

Examples:
  comboseq serve ./assets/hadouken.cue --addr :8080
  comboseq serve ./assets --name hadouken --db ./combo.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.AssetName, "name", "", "asset to serve when the path defines several")
	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: in-memory)")
	cmd.Flags().StringVar(&opts.ResetScope, "reset-scope", "", "override the asset reset scope (branch|node)")

	return cmd
}

func runServe(opts *ServeOptions, path string, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if err := engine.ValidateResetScope(opts.ResetScope); err != nil {
		return WrapExitError(ExitCommandError, "invalid --reset-scope", err)
	}

	asset, err := loadValidAsset(path, opts.AssetName)
	if err != nil {
		return err
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = ":memory:"
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var engOpts []engine.EngineOption
	if opts.ResetScope != "" {
		engOpts = append(engOpts, engine.WithResetScope(engine.ResetScope(opts.ResetScope)))
	}
	srv := NewServer(asset, st, opts.SessionGenerator, logger, engOpts...)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:              opts.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", opts.Addr, "asset", asset.Name, "db", dbPath)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "server error", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown error", err)
	}
	return nil
}

// Server runs one engine per websocket connection, recording every
// connection as its own session.
type Server struct {
	asset    *ir.Asset
	store    *store.Store
	ids      engine.SessionIDGenerator
	engOpts  []engine.EngineOption
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a server for asset. A nil ids defaults to UUIDv7 and
// a nil logger to slog.Default().
func NewServer(
	asset *ir.Asset,
	st *store.Store,
	ids engine.SessionIDGenerator,
	logger *slog.Logger,
	engOpts ...engine.EngineOption,
) *Server {
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		asset:   asset,
		store:   st,
		ids:     ids,
		engOpts: append([]engine.EngineOption{engine.WithLogger(logger)}, engOpts...),
		logger:  logger,
		// Any origin may connect.
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
}

// Handler returns the HTTP handler serving /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "asset": s.asset.Name})
	})
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade error", "error", err)
		return
	}
	defer c.Close()

	ctx := r.Context()
	eng := engine.New(s.asset, s.engOpts...)
	rec, err := store.NewRecorder(ctx, s.store, eng, s.asset, s.ids)
	if err != nil {
		s.logger.Error("failed to start session", "error", err)
		_ = c.WriteJSON(FrameReply{Calls: []ir.EventCall{}, Active: []int{}, Error: err.Error()})
		return
	}

	sessionID := rec.Session().ID
	logger := s.logger.With("session", sessionID)
	logger.Info("session opened", "remote", r.RemoteAddr)
	defer func() { logger.Info("session closed", "frames", eng.Frame()) }()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("read error", "error", err)
			}
			return
		}

		reply := s.handleFrame(ctx, rec, eng, message)
		reply.Session = sessionID
		if err := c.WriteJSON(reply); err != nil {
			logger.Warn("write error", "error", err)
			return
		}
	}
}

// handleFrame decodes and applies one frame message. Bad frames are
// answered with an error reply and leave the engine untouched.
func (s *Server) handleFrame(ctx context.Context, rec *store.Recorder, eng *engine.Engine, message []byte) FrameReply {
	reply := FrameReply{Calls: []ir.EventCall{}}

	f, err := decodeFrame(message)
	if err != nil {
		reply.Frame = eng.Frame()
		reply.Active = activeOrEmpty(eng)
		reply.Error = fmt.Sprintf("can't parse frame: %v", err)
		return reply
	}

	calls, sources, err := rec.Apply(ctx, f)
	if err != nil {
		reply.Error = fmt.Sprintf("failed to record frame: %v", err)
	}
	if calls != nil {
		reply.Calls = calls
	}
	reply.Frame = eng.Frame()
	reply.ResetSources = sources
	reply.Active = activeOrEmpty(eng)
	return reply
}

func activeOrEmpty(eng *engine.Engine) []int {
	active := eng.ActiveIndices()
	if active == nil {
		return []int{}
	}
	return active
}
