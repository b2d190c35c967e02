package store

import (
	"context"
	"math"
	"testing"

	"github.com/roach88/comboseq/internal/ir"
)

func testCalls() []ir.EventCall {
	return []ir.EventCall{
		{EventClass: "enter/2", Phase: ir.PhaseEnter, Index: 2, Object: "fighter", Context: "combo"},
		{EventClass: "pass/1", Phase: ir.PhasePass, Index: 1},
	}
}

func TestWriteSession_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess := createTestSession("s1")
	if err := s.WriteSession(ctx, sess); err != nil {
		t.Fatalf("first WriteSession() failed: %v", err)
	}

	sess.AssetName = "changed"
	if err := s.WriteSession(ctx, sess); err != nil {
		t.Fatalf("second WriteSession() failed: %v", err)
	}

	got, err := s.ReadSession(ctx, "s1")
	if err != nil {
		t.Fatalf("ReadSession() failed: %v", err)
	}
	if got.AssetName != "press_release" {
		t.Errorf("AssetName = %q, want first write to win", got.AssetName)
	}
}

func TestWriteFrame_Basic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "s1")

	frame := ir.Frame{
		DeltaTime: 0.016,
		Actions:   map[string]ir.InputEvent{"A": ir.EventPressed},
		Axes:      map[string]float64{"lx": 0.5},
		Resets:    []ir.ExternalReset{{Object: "menu", Context: "pause"}},
	}
	inserted, err := s.WriteFrame(ctx, "s1", 1, frame, testCalls())
	if err != nil {
		t.Fatalf("WriteFrame() failed: %v", err)
	}
	if !inserted {
		t.Error("expected inserted=true for a new frame")
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM event_calls WHERE session_id = 's1'").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("event_calls count = %d, want 2", count)
	}

	var actions, digest string
	if err := s.db.QueryRow("SELECT actions, calls_digest FROM frames WHERE session_id = 's1' AND seq = 1").Scan(&actions, &digest); err != nil {
		t.Fatalf("select frame failed: %v", err)
	}
	if actions != `{"A":"pressed"}` {
		t.Errorf("actions = %s, want canonical JSON", actions)
	}
	want, _ := ir.CallsDigest(testCalls())
	if digest != want {
		t.Errorf("calls_digest = %s, want %s", digest, want)
	}
}

func TestWriteFrame_EmptyFrameDefaults(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "s1")

	if _, err := s.WriteFrame(ctx, "s1", 1, ir.Frame{}, nil); err != nil {
		t.Fatalf("WriteFrame() failed: %v", err)
	}

	var actions, axes, resets string
	err := s.db.QueryRow("SELECT actions, axes, resets FROM frames WHERE seq = 1").Scan(&actions, &axes, &resets)
	if err != nil {
		t.Fatalf("select frame failed: %v", err)
	}
	if actions != "{}" || axes != "{}" || resets != "[]" {
		t.Errorf("got actions=%s axes=%s resets=%s, want empty JSON forms", actions, axes, resets)
	}
}

func TestWriteFrame_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "s1")

	if _, err := s.WriteFrame(ctx, "s1", 1, ir.Frame{DeltaTime: 0.1}, testCalls()); err != nil {
		t.Fatalf("first WriteFrame() failed: %v", err)
	}

	inserted, err := s.WriteFrame(ctx, "s1", 1, ir.Frame{DeltaTime: 0.9}, testCalls()[:1])
	if err != nil {
		t.Fatalf("second WriteFrame() failed: %v", err)
	}
	if inserted {
		t.Error("expected inserted=false for a duplicate frame")
	}

	calls, err := s.ReadFrameCalls(ctx, "s1", 1)
	if err != nil {
		t.Fatalf("ReadFrameCalls() failed: %v", err)
	}
	if len(calls) != 2 {
		t.Errorf("calls = %d, want original 2", len(calls))
	}
}

func TestWriteFrame_UnknownSessionRollsBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.WriteFrame(ctx, "missing", 1, ir.Frame{}, testCalls()); err == nil {
		t.Fatal("expected foreign key error for unknown session")
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM event_calls").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("event_calls count = %d, want 0 after rollback", count)
	}
}

func TestWriteFrame_RejectsNonFiniteAxis(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeTestSession(t, s, "s1")

	_, err := s.WriteFrame(ctx, "s1", 1, ir.Frame{Axes: map[string]float64{"lx": math.Inf(1)}}, nil)
	if err == nil {
		t.Error("expected error for infinite axis sample")
	}
}
