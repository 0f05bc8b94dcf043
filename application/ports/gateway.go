// Package ports defines the interfaces the application layer depends on.
// Concrete implementations live under infrastructure/.
package ports

import (
	"context"

	"dreamlog-client/domain"
)

// PublicFilter selects which slice of the public superset a fetch returns.
type PublicFilter string

const (
	FilterLatest    PublicFilter = "latest"
	FilterPopular   PublicFilter = "popular"
	FilterFollowing PublicFilter = "following"
)

// RemoteGateway is the engine's only window onto the backend. Every call
// takes a context and eventually completes; implementations normalize
// transport errors into the pkg/errors taxonomy so callers can tell an
// ignorable conflict from a genuine remote failure.
type RemoteGateway interface {
	// Entries
	FetchOwnEntries(ctx context.Context, userID string) ([]domain.Entry, error)
	FetchPublicEntries(ctx context.Context, userID string, filter PublicFilter) ([]domain.Entry, error)
	FetchEntryByID(ctx context.Context, entryID string) (*domain.Entry, error)
	CreateEntry(ctx context.Context, userID string, input domain.EntryInput) (*domain.Entry, error)
	UpdateEntry(ctx context.Context, entryID, userID string, input domain.EntryInput) (*domain.Entry, error)
	DeleteEntry(ctx context.Context, entryID, userID string) error
	SetVisibility(ctx context.Context, entryID, userID string, public bool) error
	SearchEntries(ctx context.Context, userID, term string) ([]domain.Entry, error)

	// Likes. SetLike may return the authoritative like state; a nil state
	// means the server offered no correction to the optimistic count.
	SetLike(ctx context.Context, entryID, userID string, liked bool) (*domain.LikeState, error)
	FetchLikeState(ctx context.Context, entryID, userID string) (*domain.LikeState, error)

	// Social graph
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	FetchFollowers(ctx context.Context, userID string) ([]domain.User, error)
	FetchFollowing(ctx context.Context, userID string) ([]domain.User, error)

	// Views
	IncrementView(ctx context.Context, entryID string) error

	// Comments
	ListComments(ctx context.Context, entryID string) ([]domain.Comment, error)
	PostComment(ctx context.Context, authorID string, input domain.CommentInput) (*domain.Comment, error)
	DeleteComment(ctx context.Context, commentID, userID string) error

	// AI generation. Fire-and-forget from the engine's perspective; the
	// generated fields also land through FetchEntryByID polling.
	RequestInterpretation(ctx context.Context, entryID, body string) (*domain.Interpretation, error)
}
