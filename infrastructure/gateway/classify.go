package gateway

import (
	"strings"

	apperrors "dreamlog-client/pkg/errors"
)

// classify maps a raw PostgREST error onto the application taxonomy.
//
// A "duplicate key value" violation means the row we tried to create already
// exists, so the state we wanted is already in place; callers treat that as
// an ignorable conflict rather than a failure. PGRST116 is PostgREST's code
// for a .Single() that matched no rows.
func classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "duplicate key value"):
		return apperrors.NewConflictError(operation + ": row already exists")
	case strings.Contains(msg, "PGRST116"):
		return apperrors.NewNotFoundError(operation + ": no matching row")
	default:
		return apperrors.NewRemoteError(operation, err)
	}
}
