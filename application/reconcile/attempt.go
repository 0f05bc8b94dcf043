package reconcile

import (
	"context"

	apperrors "dreamlog-client/pkg/errors"
)

// attempt captures the optimistic-mutation lifecycle shared by every
// toggle-like operation: snapshot the current state, apply the optimistic
// patch, invoke the remote mutation, then commit or revert.
//
// The same shape serves like toggling, visibility toggling and deletion;
// only the three callbacks differ.
type attempt struct {
	// kind labels the mutation in logs and metrics.
	kind string

	// apply performs the optimistic local change. It runs synchronously,
	// before any network activity.
	apply func()

	// invoke issues the remote mutation with the desired target state.
	invoke func(ctx context.Context) error

	// commit runs after the remote call settles successfully. It is the
	// hook for folding a server-returned authoritative value over the
	// optimistic one; nil when there is nothing to reconcile.
	commit func(ctx context.Context)

	// revert restores the pre-apply state. It must be an exact undo: the
	// store ends up bit-for-bit where it was before apply.
	revert func()
}

// outcome classifies how an attempt settled.
type outcome int

const (
	outcomeCommitted outcome = iota
	outcomeConflicted
	outcomeRolledBack
)

// run executes the attempt. An ignorable conflict from the gateway means
// the desired end state was already reached through a race, so the
// optimistic patch stands and the mutation counts as a success.
func run(ctx context.Context, a attempt) (outcome, error) {
	a.apply()

	err := a.invoke(ctx)
	switch {
	case err == nil:
		if a.commit != nil {
			a.commit(ctx)
		}
		return outcomeCommitted, nil
	case apperrors.IsConflict(err):
		return outcomeConflicted, nil
	default:
		a.revert()
		return outcomeRolledBack, err
	}
}
