// Package viewguard enforces once-per-session view counting.
package viewguard

import (
	"sync"

	"dreamlog-client/pkg/observability"
)

// Guard remembers which entries were already counted this session. It is
// transient state, never persisted, and is not a substitute for whatever
// coarser uniqueness rule the server applies.
type Guard struct {
	mu      sync.Mutex
	counted map[string]struct{}
	metrics *observability.Collector
}

// NewGuard creates an empty guard.
func NewGuard(metrics *observability.Collector) *Guard {
	return &Guard{
		counted: make(map[string]struct{}),
		metrics: metrics,
	}
}

// ShouldCount reports whether a view increment should be sent for the
// entry. Owners never count views on their own entries, and each entry is
// counted at most once per session. Marking happens here, before the
// remote call is confirmed, so a failed increment is not retried within the
// session; an acceptable under-count rather than an error.
func (g *Guard) ShouldCount(entryID string, viewerIsOwner bool) bool {
	if viewerIsOwner {
		g.metrics.ViewsSuppressed.Inc()
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, done := g.counted[entryID]; done {
		g.metrics.ViewsSuppressed.Inc()
		return false
	}
	g.counted[entryID] = struct{}{}
	g.metrics.ViewsCounted.Inc()
	return true
}

// Counted reports whether the entry was already marked, without marking it.
func (g *Guard) Counted(entryID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, done := g.counted[entryID]
	return done
}

// Reset clears the guard. Only the session teardown calls this.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counted = make(map[string]struct{})
}
