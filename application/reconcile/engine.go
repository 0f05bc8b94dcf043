// Package reconcile gives the UI the illusion of immediate feedback for
// mutations whose true effect is remote and may fail. Every mutation is
// applied to the local store first, then confirmed or rolled back once the
// gateway answers.
package reconcile

import (
	"context"
	"sync"

	"dreamlog-client/application/ports"
	"dreamlog-client/application/store"
	"dreamlog-client/domain"
	apperrors "dreamlog-client/pkg/errors"
	"dreamlog-client/pkg/observability"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine applies optimistic mutations to the entry store and reconciles
// them against the remote gateway.
//
// Mutations against the same (entryID, userID) key are serialized: a second
// toggle issued before the first settles is rejected, never interleaved.
// Mutations against different keys may run concurrently.
type Engine struct {
	store   *store.EntryStore
	gateway ports.RemoteGateway
	metrics *observability.Collector
	logger  *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewEngine creates a reconciliation engine over the given store and gateway.
func NewEngine(
	entryStore *store.EntryStore,
	gateway ports.RemoteGateway,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:    entryStore,
		gateway:  gateway,
		metrics:  metrics,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
}

// acquire claims the mutation key, rejecting when a mutation for the same
// key has not settled yet. The optimistic count would drift from parity if
// two toggles interleaved.
func (e *Engine) acquire(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[key]; busy {
		e.metrics.MutationsRejected.Inc()
		return apperrors.NewInFlightError(key)
	}
	e.inFlight[key] = struct{}{}
	return nil
}

func (e *Engine) release(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, key)
}

// ToggleLike flips the viewer's like mark on an entry. The flag and the
// count change locally before the network round-trip; a remote failure
// restores both. When the server returns an authoritative count it
// overwrites the optimistic one.
func (e *Engine) ToggleLike(ctx context.Context, entryID, userID string) error {
	key := entryID + "/" + userID
	if err := e.acquire(key); err != nil {
		return err
	}
	defer e.release(key)

	snapshot, ok := e.store.Snapshot(entryID)
	if !ok {
		return apperrors.NewNotFoundError("entry")
	}

	target := !snapshot.IsLiked
	delta := 1
	if !target {
		delta = -1
	}

	var authoritative *domain.LikeState
	a := attempt{
		kind: "like",
		apply: func() {
			likes := snapshot.Likes + delta
			e.store.Patch(entryID, store.EntryPatch{Likes: &likes, IsLiked: &target})
		},
		invoke: func(ctx context.Context) error {
			state, err := e.gateway.SetLike(ctx, entryID, userID, target)
			authoritative = state
			return err
		},
		commit: func(ctx context.Context) {
			if authoritative == nil {
				return
			}
			// Last-writer-wins from the server.
			e.store.Patch(entryID, store.EntryPatch{
				Likes:   &authoritative.Count,
				IsLiked: &authoritative.IsLiked,
			})
		},
		revert: func() {
			e.store.Restore(snapshot)
		},
	}
	return e.settle(ctx, a, entryID)
}

// ToggleVisibility flips an entry between public and private.
func (e *Engine) ToggleVisibility(ctx context.Context, entryID, userID string) error {
	key := entryID + "/" + userID
	if err := e.acquire(key); err != nil {
		return err
	}
	defer e.release(key)

	snapshot, ok := e.store.Snapshot(entryID)
	if !ok {
		return apperrors.NewNotFoundError("entry")
	}

	target := !snapshot.Public
	a := attempt{
		kind: "visibility",
		apply: func() {
			e.store.Patch(entryID, store.EntryPatch{Public: &target})
		},
		invoke: func(ctx context.Context) error {
			return e.gateway.SetVisibility(ctx, entryID, userID, target)
		},
		revert: func() {
			e.store.Restore(snapshot)
		},
	}
	return e.settle(ctx, a, entryID)
}

// DeleteEntry removes an entry optimistically; the rollback re-inserts the
// removed record.
func (e *Engine) DeleteEntry(ctx context.Context, entryID, userID string) error {
	key := entryID + "/" + userID
	if err := e.acquire(key); err != nil {
		return err
	}
	defer e.release(key)

	snapshot, ok := e.store.Snapshot(entryID)
	if !ok {
		return apperrors.NewNotFoundError("entry")
	}

	a := attempt{
		kind: "delete",
		apply: func() {
			e.store.Remove(entryID)
		},
		invoke: func(ctx context.Context) error {
			return e.gateway.DeleteEntry(ctx, entryID, userID)
		},
		revert: func() {
			e.store.Restore(snapshot)
		},
	}
	return e.settle(ctx, a, entryID)
}

// settle runs the attempt and records the outcome.
func (e *Engine) settle(ctx context.Context, a attempt, entryID string) error {
	opID := uuid.New().String()

	result, err := run(ctx, a)
	switch result {
	case outcomeCommitted:
		e.metrics.MutationsCommitted.WithLabelValues(a.kind).Inc()
		e.logger.Debug("mutation committed",
			zap.String("op_id", opID),
			zap.String("kind", a.kind),
			zap.String("entry_id", entryID),
		)
	case outcomeConflicted:
		e.metrics.MutationsConflicted.WithLabelValues(a.kind).Inc()
		e.logger.Debug("mutation settled through ignorable conflict",
			zap.String("op_id", opID),
			zap.String("kind", a.kind),
			zap.String("entry_id", entryID),
		)
	case outcomeRolledBack:
		e.metrics.MutationsRolledBack.WithLabelValues(a.kind).Inc()
		e.logger.Warn("mutation rolled back",
			zap.String("op_id", opID),
			zap.String("kind", a.kind),
			zap.String("entry_id", entryID),
			zap.Error(err),
		)
	}
	return err
}
