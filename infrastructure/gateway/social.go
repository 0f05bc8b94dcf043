package gateway

import (
	"context"
	"fmt"

	"github.com/supabase-community/postgrest-go"

	"dreamlog-client/domain"
	apperrors "dreamlog-client/pkg/errors"
)

// Follow creates the ordered follow edge. A duplicate edge classifies as a
// conflict, which callers treat as the edge already existing.
func (g *SupabaseGateway) Follow(ctx context.Context, followerID, followeeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload := map[string]interface{}{
		"follower_id":  followerID,
		"following_id": followeeID,
	}
	_, _, err := g.client.From(tableFollows).
		Insert(payload, false, "", "", "").
		Execute()
	return classify("follow user", err)
}

// Unfollow removes the follow edge. Removing a missing edge succeeds.
func (g *SupabaseGateway) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, _, err := g.client.From(tableFollows).
		Delete("", "").
		Eq("follower_id", followerID).
		Eq("following_id", followeeID).
		Execute()
	return classify("unfollow user", err)
}

// FetchFollowers returns the users following the given user.
func (g *SupabaseGateway) FetchFollowers(ctx context.Context, userID string) ([]domain.User, error) {
	return g.fetchEdgeUsers(ctx, "following_id", userID, func(e domain.FollowEdge) string { return e.FollowerID })
}

// FetchFollowing returns the users the given user follows.
func (g *SupabaseGateway) FetchFollowing(ctx context.Context, userID string) ([]domain.User, error) {
	return g.fetchEdgeUsers(ctx, "follower_id", userID, func(e domain.FollowEdge) string { return e.FolloweeID })
}

func (g *SupabaseGateway) fetchEdgeUsers(ctx context.Context, column, userID string, pick func(domain.FollowEdge) string) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []followRow
	_, err := g.client.From(tableFollows).
		Select("*", "", false).
		Eq(column, userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify("fetch follow edges", err)
	}
	if len(rows) == 0 {
		return []domain.User{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, pick(row.toEdge()))
	}

	byID, err := g.fetchUsers(ids)
	if err != nil {
		return nil, classify("fetch follow users", err)
	}

	// Preserve edge order; a user row may be missing if the account was
	// deleted after the edge was read.
	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// ListComments returns the comments on an entry, oldest first, with author
// profiles attached.
func (g *SupabaseGateway) ListComments(ctx context.Context, entryID string) ([]domain.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []commentRow
	_, err := g.client.From(tableComments).
		Select("*", "", false).
		Eq("diary_id", entryID).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify("list comments", err)
	}

	authorIDs := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if !seen[row.UserID] {
			seen[row.UserID] = true
			authorIDs = append(authorIDs, row.UserID)
		}
	}
	authors, err := g.fetchUsers(authorIDs)
	if err != nil {
		return nil, classify("fetch comment authors", err)
	}

	comments := make([]domain.Comment, 0, len(rows))
	for _, row := range rows {
		comment := row.toComment()
		if author, ok := authors[row.UserID]; ok {
			authorCopy := author
			comment.Author = &authorCopy
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

// PostComment inserts a comment and returns the server-assigned row.
func (g *SupabaseGateway) PostComment(ctx context.Context, authorID string, input domain.CommentInput) (*domain.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"diary_id": input.EntryID,
		"user_id":  authorID,
		"content":  input.Body,
	}

	var rows []commentRow
	_, err := g.client.From(tableComments).
		Insert(payload, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify("post comment", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewRemoteError("post comment", fmt.Errorf("insert returned no row"))
	}

	comment := rows[0].toComment()
	return &comment, nil
}

// DeleteComment removes an owned comment.
func (g *SupabaseGateway) DeleteComment(ctx context.Context, commentID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, _, err := g.client.From(tableComments).
		Delete("", "").
		Eq("id", commentID).
		Eq("user_id", userID).
		Execute()
	return classify("delete comment", err)
}
