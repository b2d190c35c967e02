package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/comboseq/internal/ir"
)

// ReadSession retrieves a single session by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, asset_name, asset_hash, reset_scope, engine_version, created_seq
		FROM sessions
		WHERE id = ?
	`, id)

	var sess Session
	if err := row.Scan(
		&sess.ID,
		&sess.AssetName,
		&sess.AssetHash,
		&sess.ResetScope,
		&sess.EngineVersion,
		&sess.CreatedSeq,
	); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// ListSessions returns every session ordered by ID. Session IDs are UUIDv7,
// so this is also start order.
//
// Returns an empty slice (not nil) if no sessions exist.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, asset_name, asset_hash, reset_scope, engine_version, created_seq
		FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(
			&sess.ID,
			&sess.AssetName,
			&sess.AssetHash,
			&sess.ResetScope,
			&sess.EngineVersion,
			&sess.CreatedSeq,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadFrames returns every recorded frame of a session ordered by seq.
//
// Returns an empty slice (not nil) if the session has no frames.
func (s *Store) ReadFrames(ctx context.Context, sessionID string) ([]FrameRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, delta_time, paused, actions, axes, resets, calls_digest
		FROM frames
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	frames := []FrameRecord{}
	for rows.Next() {
		f, err := scanFrame(rows)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}
	return frames, nil
}

// ReadEventCalls returns every call of a session ordered by (frame_seq, ord).
//
// Returns an empty slice (not nil) if the session has no calls.
func (s *Store) ReadEventCalls(ctx context.Context, sessionID string) ([]CallRecord, error) {
	return s.QueryCalls(ctx, CallFilter{SessionID: sessionID})
}

// ReadEventCallsByClass returns the calls of one event class across all
// sessions, ordered by (session_id, frame_seq, ord).
func (s *Store) ReadEventCallsByClass(ctx context.Context, class ir.EventClass) ([]CallRecord, error) {
	return s.QueryCalls(ctx, CallFilter{Class: string(class)})
}

// ReadFrameCalls returns the calls of one frame in emission order.
func (s *Store) ReadFrameCalls(ctx context.Context, sessionID string, seq int64) ([]ir.EventCall, error) {
	records, err := s.QueryCalls(ctx, CallFilter{SessionID: sessionID, FromFrame: seq, ToFrame: seq})
	if err != nil {
		return nil, err
	}
	calls := make([]ir.EventCall, len(records))
	for i, r := range records {
		calls[i] = r.Call
	}
	return calls, nil
}

// LastSeq returns the highest recorded frame seq of a session, or 0.
func (s *Store) LastSeq(ctx context.Context, sessionID string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM frames WHERE session_id = ?
	`, sessionID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

func (s *Store) queryCalls(ctx context.Context, query string, args ...any) ([]CallRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query event calls: %w", err)
	}
	defer rows.Close()

	records := []CallRecord{}
	for rows.Next() {
		r, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event calls: %w", err)
	}
	return records, nil
}

func scanFrame(rows *sql.Rows) (FrameRecord, error) {
	var (
		f                     FrameRecord
		actionsJSON, axesJSON string
		resetsJSON            string
	)
	if err := rows.Scan(
		&f.SessionID,
		&f.Seq,
		&f.Frame.DeltaTime,
		&f.Frame.Paused,
		&actionsJSON,
		&axesJSON,
		&resetsJSON,
		&f.CallsDigest,
	); err != nil {
		return FrameRecord{}, fmt.Errorf("scan frame: %w", err)
	}

	var err error
	if f.Frame.Actions, err = unmarshalActions(actionsJSON); err != nil {
		return FrameRecord{}, fmt.Errorf("scan frame: %w", err)
	}
	if f.Frame.Axes, err = unmarshalAxes(axesJSON); err != nil {
		return FrameRecord{}, fmt.Errorf("scan frame: %w", err)
	}
	if f.Frame.Resets, err = unmarshalResets(resetsJSON); err != nil {
		return FrameRecord{}, fmt.Errorf("scan frame: %w", err)
	}
	return f, nil
}

func scanCall(rows *sql.Rows) (CallRecord, error) {
	var (
		r                       CallRecord
		phase, class            string
		objectJSON, sourcesJSON string
	)
	if err := rows.Scan(
		&r.SessionID,
		&r.FrameSeq,
		&r.Ord,
		&phase,
		&class,
		&r.Call.Index,
		&objectJSON,
		&r.Call.Context,
		&sourcesJSON,
	); err != nil {
		return CallRecord{}, fmt.Errorf("scan event call: %w", err)
	}
	r.Call.Phase = ir.EventPhase(phase)
	r.Call.EventClass = ir.EventClass(class)

	var err error
	if r.Call.Object, err = unmarshalObject(objectJSON); err != nil {
		return CallRecord{}, fmt.Errorf("scan event call: %w", err)
	}
	if r.Call.ResetSources, err = unmarshalResetSources(sourcesJSON); err != nil {
		return CallRecord{}, fmt.Errorf("scan event call: %w", err)
	}
	return r, nil
}
