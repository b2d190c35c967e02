package store

import (
	"context"
	"fmt"

	"github.com/roach88/comboseq/internal/engine"
	"github.com/roach88/comboseq/internal/ir"
)

// Recorder drives an engine frame by frame and writes each frame with its
// calls to the store.
type Recorder struct {
	store   *Store
	engine  *engine.Engine
	session Session
}

// NewRecorder starts a session for asset and writes its session row.
func NewRecorder(
	ctx context.Context,
	s *Store,
	eng *engine.Engine,
	asset *ir.Asset,
	ids engine.SessionIDGenerator,
) (*Recorder, error) {
	hash, err := ir.AssetHash(asset)
	if err != nil {
		return nil, fmt.Errorf("new recorder: %w", err)
	}

	sess := Session{
		ID:            ids.Generate(),
		AssetName:     asset.Name,
		AssetHash:     hash,
		ResetScope:    string(eng.Scope()),
		EngineVersion: ir.EngineVersion,
		CreatedSeq:    eng.Frame(),
	}
	if err := s.WriteSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("new recorder: %w", err)
	}

	return &Recorder{store: s, engine: eng, session: sess}, nil
}

// Session returns the recorded session row.
func (r *Recorder) Session() Session {
	return r.session
}

// Apply runs one frame through the engine and records it.
func (r *Recorder) Apply(ctx context.Context, f ir.Frame) ([]ir.EventCall, []ir.ResetSource, error) {
	calls, sources := r.engine.Apply(f)
	if _, err := r.store.WriteFrame(ctx, r.session.ID, r.engine.Frame(), f, calls); err != nil {
		return calls, sources, err
	}
	return calls, sources, nil
}
