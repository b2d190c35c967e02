package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/comboseq/internal/ir"
)

// createTestStore creates a new temporary-file store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession creates a session with minimal required fields.
func createTestSession(id string) Session {
	return Session{
		ID:            id,
		AssetName:     "press_release",
		AssetHash:     "test-hash",
		ResetScope:    "branch",
		EngineVersion: ir.EngineVersion,
	}
}

func writeTestSession(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.WriteSession(context.Background(), createTestSession(id)); err != nil {
		t.Fatalf("WriteSession() failed: %v", err)
	}
}
