package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/comboseq/internal/engine"
	"github.com/roach88/comboseq/internal/ir"
)

// ErrAssetMismatch is returned when a session is replayed against an asset
// whose hash differs from the one recorded.
var ErrAssetMismatch = errors.New("asset hash does not match recorded session")

// SessionState summarizes a recorded session.
type SessionState struct {
	Session    Session
	FrameCount int
	CallCount  int
	LastSeq    int64
}

// GetSessionState retrieves a session with its frame and call counts.
func (s *Store) GetSessionState(ctx context.Context, sessionID string) (SessionState, error) {
	sess, err := s.ReadSession(ctx, sessionID)
	if err != nil {
		return SessionState{}, fmt.Errorf("get session state: %w", err)
	}

	state := SessionState{Session: sess}
	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM frames WHERE session_id = ?),
			(SELECT COUNT(*) FROM event_calls WHERE session_id = ?),
			(SELECT COALESCE(MAX(seq), 0) FROM frames WHERE session_id = ?)
	`, sessionID, sessionID, sessionID).Scan(&state.FrameCount, &state.CallCount, &state.LastSeq)
	if err != nil {
		return SessionState{}, fmt.Errorf("get session state: %w", err)
	}
	return state, nil
}

// ReplayedFrame is one recorded frame re-run on a fresh engine.
type ReplayedFrame struct {
	Seq          int64            `json:"seq"`
	Calls        []ir.EventCall   `json:"calls"`
	ResetSources []ir.ResetSource `json:"reset_sources,omitempty"`
	Digest       string           `json:"digest"`
	Recorded     string           `json:"recorded"`
}

// Match reports whether the replay produced the recorded calls.
func (f ReplayedFrame) Match() bool {
	return f.Digest == f.Recorded
}

// ReplayResult is the outcome of ReplaySession.
type ReplayResult struct {
	SessionID  string          `json:"session_id"`
	Frames     []ReplayedFrame `json:"frames"`
	Mismatches []int64         `json:"mismatches"`
}

// Deterministic reports whether every frame matched its recording.
func (r ReplayResult) Deterministic() bool {
	return len(r.Mismatches) == 0
}

// ReplaySession re-runs every recorded frame of a session on a fresh engine
// built from asset and compares each frame's call digest with the recorded
// one. The asset must hash to the recorded asset hash.
//
// The recorded reset scope is applied; opts are appended after it.
func (s *Store) ReplaySession(
	ctx context.Context,
	sessionID string,
	asset *ir.Asset,
	opts ...engine.EngineOption,
) (ReplayResult, error) {
	sess, err := s.ReadSession(ctx, sessionID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay session %s: %w", sessionID, err)
	}

	hash, err := ir.AssetHash(asset)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay session %s: %w", sessionID, err)
	}
	if hash != sess.AssetHash {
		return ReplayResult{}, fmt.Errorf("replay session %s: %w (recorded %s, got %s)",
			sessionID, ErrAssetMismatch, sess.AssetHash, hash)
	}

	frames, err := s.ReadFrames(ctx, sessionID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay session %s: %w", sessionID, err)
	}

	opts = append([]engine.EngineOption{
		engine.WithResetScope(engine.NormalizeResetScope(sess.ResetScope)),
	}, opts...)
	eng := engine.New(asset, opts...)

	result := ReplayResult{
		SessionID:  sessionID,
		Frames:     make([]ReplayedFrame, 0, len(frames)),
		Mismatches: []int64{},
	}
	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		calls, sources := eng.Apply(f.Frame)
		digest, err := ir.CallsDigest(calls)
		if err != nil {
			return result, fmt.Errorf("replay session %s: frame %d: %w", sessionID, f.Seq, err)
		}

		rf := ReplayedFrame{
			Seq:          f.Seq,
			Calls:        calls,
			ResetSources: sources,
			Digest:       digest,
			Recorded:     f.CallsDigest,
		}
		if !rf.Match() {
			result.Mismatches = append(result.Mismatches, f.Seq)
		}
		result.Frames = append(result.Frames, rf)
	}

	return result, nil
}
