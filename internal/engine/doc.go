// Package engine implements the comboseq per-frame sequence recognizer.
//
// The engine owns the state arena of one compiled asset and the set of
// currently active state indices. The host calls OnInput once per input
// frame; the engine matches, transitions, ticks idle timers and resolves
// queued resets, returning the ordered EventCalls for that frame.
//
// ARCHITECTURE:
//
// Single-Writer Tick:
// OnInput must be called from exactly one goroutine. It mutates the active
// set and per-state timers without locks. This ensures:
// - Deterministic event order for a given frame sequence
// - Replay of recorded frames reproduces the recorded calls
//
// Frame Processing:
// 1. Held-input set updated from Pressed/Released events
// 2. Lazy seed: an empty active set re-enters the root's successors
// 3. Step pass over a snapshot of the active set (matching, transitions)
// 4. Tick pass over snapshot indices still active (idle timeouts)
// 5. Reset resolution (drain queue, emit reset calls, restart branches)
//
// CRITICAL PATTERNS:
//
// Reset Queue:
// RequestReset is safe from any goroutine. The queue is the only shared
// state; drain-and-clear is atomic with respect to enqueue and no lock is
// held while matching or emitting.
//
// Deterministic Iteration:
// Input names are visited in sorted order, successors in declaration order
// and active states in insertion order. No map iteration leaks into output.
package engine
