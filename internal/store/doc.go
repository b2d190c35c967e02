// Package store records engine sessions in SQLite so they can be inspected
// and replayed.
//
// The store is an append-only log with:
//   - Sessions: one engine run against one asset, pinned by asset hash
//   - Frames: the host input of each OnInput call
//   - Event calls: every call the frame emitted, in emission order
//
// # Ordering
//
// Frames are keyed by (session_id, seq) where seq is the engine's frame
// clock. Calls are keyed by (session_id, frame_seq, ord). All queries
// ORDER BY these keys, never by wall time, so reads are identical across
// replays.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING: re-recording a frame that already
// exists is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// JSON columns hold canonical JSON from internal/ir.
package store
