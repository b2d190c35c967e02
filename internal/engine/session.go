package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// SessionIDGenerator names recorded sessions.
type SessionIDGenerator interface {
	Generate() string
}

// UUIDv7Generator issues UUIDv7 session IDs. They sort by creation time,
// so listing sessions by ID lists them oldest first.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator issues a fixed list of IDs, one per session, for hosts
// that must reproduce a recording exactly.
type FixedGenerator struct {
	ids  []string
	used atomic.Int64
}

func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next ID and panics when none are left: a host that
// opens more sessions than it listed has diverged from its script.
func (g *FixedGenerator) Generate() string {
	n := g.used.Add(1)
	if n > int64(len(g.ids)) {
		panic(fmt.Sprintf("engine: session %d requested, only %d fixed ID(s)", n, len(g.ids)))
	}
	return g.ids[n-1]
}
