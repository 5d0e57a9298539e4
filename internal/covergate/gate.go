// Package covergate deduplicates cover art extraction across workers that
// share a directory. The zero-byte placeholder file on disk is the lock;
// the process-wide mutex only guards the check-then-create sequence.
package covergate

import (
	"os"
	"sync"
)

// Gate hands out per-path claims. A single Gate is shared by every worker in
// the process; it is injected rather than global so tests can run several
// fake directory layouts side by side.
type Gate struct {
	mu sync.Mutex
}

// New returns an empty gate.
func New() *Gate {
	return &Gate{}
}

// TryClaim attempts to claim coverPath for the calling worker. The first
// caller for a path creates a zero-length placeholder and wins; later
// callers, and callers for paths that already exist on disk, lose and must
// skip cover extraction for that directory.
func (g *Gate) TryClaim(coverPath string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := os.Stat(coverPath); err == nil {
		return false
	}
	f, err := os.OpenFile(coverPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
