// Package gateway implements the remote backend port on top of Supabase.
// Table access goes through PostgREST; the AI generation and view counter
// endpoints are edge functions invoked over plain HTTP.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"dreamlog-client/application/ports"
	"dreamlog-client/domain"
	"dreamlog-client/infrastructure/config"
	apperrors "dreamlog-client/pkg/errors"
)

const (
	tableDiary    = "diary"
	tableUsers    = "users"
	tableLikes    = "likes"
	tableFollows  = "follows"
	tableComments = "comments"

	defaultFetchCap = 100
)

// SupabaseGateway talks to the hosted backend and normalizes every response
// into domain types. It is safe for concurrent use; the underlying client
// performs independent HTTP requests.
type SupabaseGateway struct {
	client   *supabase.Client
	fns      *functionClient
	fetchCap int
	logger   *zap.Logger
}

var _ ports.RemoteGateway = (*SupabaseGateway)(nil)

// NewSupabaseGateway builds the gateway from static configuration.
func NewSupabaseGateway(cfg *config.Config, logger *zap.Logger) (*SupabaseGateway, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "creating supabase client")
	}

	fetchCap := cfg.FeedPageSize
	if fetchCap <= 0 {
		fetchCap = defaultFetchCap
	}

	return &SupabaseGateway{
		client: client,
		fns: &functionClient{
			baseURL: cfg.SupabaseURL,
			anonKey: cfg.SupabaseAnonKey,
			http:    &http.Client{Timeout: 30 * time.Second},
		},
		fetchCap: fetchCap,
		logger:   logger.Named("gateway"),
	}, nil
}

// FetchOwnEntries returns every entry the user owns, private ones included,
// newest first.
func (g *SupabaseGateway) FetchOwnEntries(ctx context.Context, userID string) ([]domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []diaryRow
	_, err := g.client.From(tableDiary).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify("fetch own entries", err)
	}

	entries := make([]domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntry())
	}
	return g.decorate(ctx, entries, userID)
}

// FetchPublicEntries returns the public superset excluding the viewer's own
// entries. The popular filter orders by like count; following-mode narrowing
// happens downstream against the viewer's social graph, so it fetches the
// same superset as latest.
func (g *SupabaseGateway) FetchPublicEntries(ctx context.Context, userID string, filter ports.PublicFilter) ([]domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	orderColumn := "created_at"
	if filter == ports.FilterPopular {
		orderColumn = "likes_count"
	}

	var rows []diaryRow
	_, err := g.client.From(tableDiary).
		Select("*", "", false).
		Eq("is_public", "true").
		Neq("user_id", userID).
		Order(orderColumn, &postgrest.OrderOpts{Ascending: false}).
		Limit(g.fetchCap, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify("fetch public entries", err)
	}

	entries := make([]domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntry())
	}
	return g.decorate(ctx, entries, userID)
}

// FetchEntryByID returns one entry regardless of ownership. Row-level
// security on the backend already hides other users' private entries.
func (g *SupabaseGateway) FetchEntryByID(ctx context.Context, entryID string) (*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var row diaryRow
	_, err := g.client.From(tableDiary).
		Select("*", "", false).
		Eq("id", entryID).
		Single().
		ExecuteTo(&row)
	if err != nil {
		return nil, classify("fetch entry", err)
	}

	entry := row.toEntry()
	return &entry, nil
}

// CreateEntry inserts a new entry and returns the server-assigned row.
func (g *SupabaseGateway) CreateEntry(ctx context.Context, userID string, input domain.EntryInput) (*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"user_id":   userID,
		"title":     input.Title,
		"content":   input.Body,
		"emotion":   input.Emotion,
		"date":      input.Date,
		"is_public": input.Public,
	}

	var rows []diaryRow
	_, err := g.client.From(tableDiary).
		Insert(payload, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify("create entry", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewRemoteError("create entry", fmt.Errorf("insert returned no row"))
	}

	entry := rows[0].toEntry()
	return &entry, nil
}

// UpdateEntry rewrites the mutable fields of an owned entry.
func (g *SupabaseGateway) UpdateEntry(ctx context.Context, entryID, userID string, input domain.EntryInput) (*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"title":      input.Title,
		"content":    input.Body,
		"emotion":    input.Emotion,
		"date":       input.Date,
		"is_public":  input.Public,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}

	var rows []diaryRow
	_, err := g.client.From(tableDiary).
		Update(payload, "representation", "").
		Eq("id", entryID).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify("update entry", err)
	}
	if len(rows) == 0 {
		// The ownership filter matched nothing; the entry is gone or
		// belongs to someone else.
		return nil, apperrors.NewNotFoundError("entry " + entryID)
	}

	entry := rows[0].toEntry()
	return &entry, nil
}

// DeleteEntry removes an owned entry. Deleting an already-deleted entry is
// not an error; the desired end state holds either way.
func (g *SupabaseGateway) DeleteEntry(ctx context.Context, entryID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, _, err := g.client.From(tableDiary).
		Delete("", "").
		Eq("id", entryID).
		Eq("user_id", userID).
		Execute()
	return classify("delete entry", err)
}

// SetVisibility flips the public flag of an owned entry.
func (g *SupabaseGateway) SetVisibility(ctx context.Context, entryID, userID string, public bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload := map[string]interface{}{"is_public": public}
	var rows []diaryRow
	_, err := g.client.From(tableDiary).
		Update(payload, "representation", "").
		Eq("id", entryID).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return classify("set visibility", err)
	}
	if len(rows) == 0 {
		return apperrors.NewNotFoundError("entry " + entryID)
	}
	return nil
}

// SearchEntries matches the term against titles and bodies of public
// entries, case-insensitively. The * wildcard is PostgREST's spelling of
// SQL's %.
func (g *SupabaseGateway) SearchEntries(ctx context.Context, userID, term string) ([]domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pattern := "*" + term + "*"
	var rows []diaryRow
	_, err := g.client.From(tableDiary).
		Select("*", "", false).
		Eq("is_public", "true").
		Or(fmt.Sprintf("title.ilike.%s,content.ilike.%s", pattern, pattern), "").
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(g.fetchCap, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify("search entries", err)
	}

	entries := make([]domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntry())
	}
	return g.decorate(ctx, entries, userID)
}

// SetLike creates or removes the (entry, user) like row, then reads back the
// exact count so the caller can fold in the authoritative value. A duplicate
// insert classifies as a conflict and the caller keeps its optimistic state.
func (g *SupabaseGateway) SetLike(ctx context.Context, entryID, userID string, liked bool) (*domain.LikeState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if liked {
		payload := map[string]interface{}{"diary_id": entryID, "user_id": userID}
		_, _, err := g.client.From(tableLikes).
			Insert(payload, false, "", "", "").
			Execute()
		if err != nil {
			return nil, classify("like entry", err)
		}
	} else {
		_, _, err := g.client.From(tableLikes).
			Delete("", "").
			Eq("diary_id", entryID).
			Eq("user_id", userID).
			Execute()
		if err != nil {
			return nil, classify("unlike entry", err)
		}
	}

	count, err := g.likeCount(entryID)
	if err != nil {
		// The mutation itself landed; losing the follow-up count read is
		// not worth a rollback.
		g.logger.Warn("like count readback failed",
			zap.String("entry_id", entryID), zap.Error(err))
		return nil, nil
	}
	return &domain.LikeState{Count: count, IsLiked: liked}, nil
}

// FetchLikeState returns the exact like count plus whether this viewer has
// liked the entry.
func (g *SupabaseGateway) FetchLikeState(ctx context.Context, entryID, userID string) (*domain.LikeState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	count, err := g.likeCount(entryID)
	if err != nil {
		return nil, classify("fetch like state", err)
	}

	var rows []likeRow
	_, err = g.client.From(tableLikes).
		Select("diary_id", "", false).
		Eq("diary_id", entryID).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, classify("fetch like state", err)
	}

	return &domain.LikeState{Count: count, IsLiked: len(rows) > 0}, nil
}

func (g *SupabaseGateway) likeCount(entryID string) (int, error) {
	_, count, err := g.client.From(tableLikes).
		Select("*", "exact", true).
		Eq("diary_id", entryID).
		Execute()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// IncrementView bumps the server-side view counter through the dedicated
// edge function so concurrent viewers cannot lose increments.
func (g *SupabaseGateway) IncrementView(ctx context.Context, entryID string) error {
	err := g.fns.invoke(ctx, "increment-views", map[string]string{"diary_id": entryID}, nil)
	if err != nil {
		return classify("increment view", err)
	}
	return nil
}

// RequestInterpretation asks the generation edge function for an AI reading
// of the entry. The call blocks for the full generation, so callers run it
// off the interactive path.
func (g *SupabaseGateway) RequestInterpretation(ctx context.Context, entryID, body string) (*domain.Interpretation, error) {
	var payload aiPayload
	err := g.fns.invoke(ctx, "generate-interpretation", map[string]string{
		"diary_id": entryID,
		"content":  body,
	}, &payload)
	if err != nil {
		return nil, classify("request interpretation", err)
	}
	return &domain.Interpretation{
		Interpretation: payload.DreamInterpretation,
		Narrative:      payload.Story,
	}, nil
}

// decorate attaches owner profiles and the viewer's like membership to a
// batch of entries with two additional queries instead of one per entry.
func (g *SupabaseGateway) decorate(ctx context.Context, entries []domain.Entry, viewerID string) ([]domain.Entry, error) {
	if len(entries) == 0 {
		return entries, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ownerIDs := make([]string, 0, len(entries))
	entryIDs := make([]string, 0, len(entries))
	seenOwners := make(map[string]bool, len(entries))
	for _, e := range entries {
		entryIDs = append(entryIDs, e.ID)
		if !seenOwners[e.OwnerID] {
			seenOwners[e.OwnerID] = true
			ownerIDs = append(ownerIDs, e.OwnerID)
		}
	}
	sort.Strings(ownerIDs)

	owners, err := g.fetchUsers(ownerIDs)
	if err != nil {
		return nil, classify("fetch entry owners", err)
	}

	var likeRows []likeRow
	_, err = g.client.From(tableLikes).
		Select("diary_id", "", false).
		Eq("user_id", viewerID).
		In("diary_id", entryIDs).
		ExecuteTo(&likeRows)
	if err != nil {
		return nil, classify("fetch viewer likes", err)
	}
	liked := make(map[string]bool, len(likeRows))
	for _, row := range likeRows {
		liked[row.DiaryID] = true
	}

	for i := range entries {
		if owner, ok := owners[entries[i].OwnerID]; ok {
			ownerCopy := owner
			entries[i].Owner = &ownerCopy
		}
		entries[i].IsLiked = liked[entries[i].ID]
	}
	return entries, nil
}

func (g *SupabaseGateway) fetchUsers(ids []string) (map[string]domain.User, error) {
	if len(ids) == 0 {
		return map[string]domain.User{}, nil
	}

	var rows []userRow
	_, err := g.client.From(tableUsers).
		Select("*", "", false).
		In("id", ids).
		ExecuteTo(&rows)
	if err != nil {
		return nil, err
	}

	users := make(map[string]domain.User, len(rows))
	for _, row := range rows {
		users[row.ID] = row.toUser()
	}
	return users, nil
}
