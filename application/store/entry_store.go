// Package store implements the session-local entry cache. It is the single
// source of truth the UI layer reads from; remote fetch results and
// optimistic mutations both land here.
package store

import (
	"sync"

	"dreamlog-client/domain"

	"go.uber.org/zap"
)

// EntryStore holds the merged, de-duplicated superset of entries the current
// user is entitled to see: their own entries regardless of visibility, other
// users' entries only if public. It never talks to the network.
//
// Writes are last-writer-wins at the record level; Patch merges at the
// field level. All methods are safe for concurrent use.
type EntryStore struct {
	mu      sync.RWMutex
	entries map[string]domain.Entry
	logger  *zap.Logger
}

// NewEntryStore creates an empty store.
func NewEntryStore(logger *zap.Logger) *EntryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryStore{
		entries: make(map[string]domain.Entry),
		logger:  logger,
	}
}

// Upsert inserts or replaces an entry by id. Later writes win.
func (s *EntryStore) Upsert(entry domain.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
}

// UpsertAll merges a fetched batch into the store.
func (s *EntryStore) UpsertAll(entries []domain.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range entries {
		s.entries[entry.ID] = entry
	}
}

// Remove deletes an entry. Removing an absent id is a no-op.
func (s *EntryStore) Remove(entryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, entryID)
}

// Get returns a copy of the entry, if present.
func (s *EntryStore) Get(entryID string) (domain.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[entryID]
	if !ok {
		return domain.Entry{}, false
	}
	return entry.Clone(), true
}

// All returns copies of every entry. Iteration order is unspecified;
// ordering is the feed pipeline's job.
func (s *EntryStore) All() []domain.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry.Clone())
	}
	return out
}

// Len returns the number of cached entries.
func (s *EntryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// EntryPatch is a sparse set of field updates. Nil fields are left alone.
type EntryPatch struct {
	Title    *string
	Body     *string
	Emotion  *string
	Public   *bool
	Views    *int
	Likes    *int
	Comments *int
	IsLiked  *bool
	AI       *domain.Interpretation
}

// Patch shallow-merges the non-nil fields into the stored entry. Patching
// an absent entry is logged and reported, never fatal: the record may have
// been deleted between the optimistic apply and the remote settle.
func (s *EntryStore) Patch(entryID string, patch EntryPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[entryID]
	if !ok {
		s.logger.Debug("patch on absent entry ignored",
			zap.String("entry_id", entryID),
		)
		return false
	}

	if patch.Title != nil {
		entry.Title = *patch.Title
	}
	if patch.Body != nil {
		entry.Body = *patch.Body
	}
	if patch.Emotion != nil {
		entry.Emotion = *patch.Emotion
	}
	if patch.Public != nil {
		entry.Public = *patch.Public
	}
	if patch.Views != nil {
		entry.Views = clampNonNegative(*patch.Views)
	}
	if patch.Likes != nil {
		entry.Likes = clampNonNegative(*patch.Likes)
	}
	if patch.Comments != nil {
		entry.Comments = clampNonNegative(*patch.Comments)
	}
	if patch.IsLiked != nil {
		entry.IsLiked = *patch.IsLiked
	}
	if patch.AI != nil {
		entry.AI = *patch.AI
	}

	s.entries[entryID] = entry
	return true
}

// Snapshot returns a deep copy suitable for rollback. The boolean reports
// whether the entry existed at snapshot time.
func (s *EntryStore) Snapshot(entryID string) (domain.Entry, bool) {
	return s.Get(entryID)
}

// Restore puts a snapshot back, overwriting whatever is there now. Used by
// the reconciliation engine to undo a failed optimistic mutation.
func (s *EntryStore) Restore(snapshot domain.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[snapshot.ID] = snapshot
}

// Counters never go below zero, even if an optimistic decrement races a
// stale fetch.
func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
