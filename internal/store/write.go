package store

import (
	"context"
	"fmt"

	"github.com/roach88/comboseq/internal/ir"
)

// WriteSession inserts a session record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, asset_name, asset_hash, reset_scope, engine_version, created_seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.AssetName,
		sess.AssetHash,
		sess.ResetScope,
		sess.EngineVersion,
		sess.CreatedSeq,
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// WriteFrame atomically writes one frame and every call it emitted.
//
// Returns inserted=false if the frame already exists; its calls are then
// left untouched, so re-recording a frame is a no-op.
//
// Note: The session referenced by sessionID must exist (foreign key constraint).
func (s *Store) WriteFrame(
	ctx context.Context,
	sessionID string,
	seq int64,
	frame ir.Frame,
	calls []ir.EventCall,
) (inserted bool, err error) {
	actionsJSON, err := marshalActions(frame.Actions)
	if err != nil {
		return false, fmt.Errorf("write frame: %w", err)
	}
	axesJSON, err := marshalAxes(frame.Axes)
	if err != nil {
		return false, fmt.Errorf("write frame: %w", err)
	}
	resetsJSON, err := marshalResets(frame.Resets)
	if err != nil {
		return false, fmt.Errorf("write frame: %w", err)
	}
	digest, err := ir.CallsDigest(calls)
	if err != nil {
		return false, fmt.Errorf("write frame: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write frame: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO frames
		(session_id, seq, delta_time, paused, actions, axes, resets, calls_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		sessionID,
		seq,
		frame.DeltaTime,
		frame.Paused,
		actionsJSON,
		axesJSON,
		resetsJSON,
		digest,
	)
	if err != nil {
		return false, fmt.Errorf("write frame: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write frame: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Frame already recorded; nothing more to do
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("write frame: commit (existing): %w", err)
		}
		return false, nil
	}

	for ord, call := range calls {
		objectJSON, err := marshalObject(call.Object)
		if err != nil {
			return false, fmt.Errorf("write frame: call %d: %w", ord, err)
		}
		sourcesJSON, err := marshalResetSources(call.ResetSources)
		if err != nil {
			return false, fmt.Errorf("write frame: call %d: %w", ord, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO event_calls
			(session_id, frame_seq, ord, phase, event_class, state_index, object, context, reset_sources)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`,
			sessionID,
			seq,
			ord,
			string(call.Phase),
			string(call.EventClass),
			call.Index,
			objectJSON,
			call.Context,
			sourcesJSON,
		)
		if err != nil {
			return false, fmt.Errorf("write frame: call %d: %w", ord, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write frame: commit: %w", err)
	}
	return true, nil
}
