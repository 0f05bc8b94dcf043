// Package session owns the per-user client state: the entry store, the
// social graph cache, the view guard, the reconciliation engine and the
// interpretation poller. State is explicit and caller-owned; there are no
// package-level singletons, and one session never shares state with
// another.
package session

import (
	"context"
	"sort"
	"time"

	"dreamlog-client/application/feed"
	"dreamlog-client/application/poller"
	"dreamlog-client/application/ports"
	"dreamlog-client/application/reconcile"
	"dreamlog-client/application/social"
	"dreamlog-client/application/store"
	"dreamlog-client/application/viewguard"
	"dreamlog-client/domain"
	apperrors "dreamlog-client/pkg/errors"
	"dreamlog-client/pkg/observability"
	"dreamlog-client/pkg/utils"

	"go.uber.org/zap"
)

// Session is the engine instance behind one signed-in user. All UI events
// funnel through it; fetch results and optimistic mutations meet in the
// entry store, and the feed pipeline derives display lists from there.
type Session struct {
	userID  string
	gateway ports.RemoteGateway
	logger  *zap.Logger

	// lifetime outlives any single request. Poll loops parent on it so they
	// keep running after the request that started them returns; only Close
	// cancels it.
	lifetime context.Context
	cancel   context.CancelFunc

	store  *store.EntryStore
	graph  *social.GraphCache
	guard  *viewguard.Guard
	engine *reconcile.Engine
	poller *poller.Poller
}

// New creates a session for the given user over the given gateway.
// pollInterval tunes the AI-content poll loop; zero means the default.
func New(
	userID string,
	gateway ports.RemoteGateway,
	pollInterval time.Duration,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("user_id", userID))

	lifetime, cancel := context.WithCancel(context.Background())
	entryStore := store.NewEntryStore(logger)
	return &Session{
		userID:   userID,
		gateway:  gateway,
		logger:   logger,
		lifetime: lifetime,
		cancel:   cancel,
		store:    entryStore,
		graph:    social.NewGraphCache(userID, gateway, logger),
		guard:    viewguard.NewGuard(metrics),
		engine:   reconcile.NewEngine(entryStore, gateway, metrics, logger),
		poller:   poller.NewPoller(gateway, entryStore, pollInterval, metrics, logger),
	}
}

// UserID returns the session owner's id.
func (s *Session) UserID() string {
	return s.userID
}

// Store exposes the entry store for read access by the facade.
func (s *Session) Store() *store.EntryStore {
	return s.store
}

// Graph exposes the social graph cache.
func (s *Session) Graph() *social.GraphCache {
	return s.graph
}

// Refresh pulls the user's own entries, the public superset and the social
// graph, and merges everything into the session caches. Own entries enter
// the store regardless of visibility; other users' entries only if public.
func (s *Session) Refresh(ctx context.Context) error {
	own, err := s.gateway.FetchOwnEntries(ctx, s.userID)
	if err != nil {
		return apperrors.Wrap(err, "refreshing own entries")
	}
	s.store.UpsertAll(own)

	public, err := s.gateway.FetchPublicEntries(ctx, s.userID, ports.FilterLatest)
	if err != nil {
		return apperrors.Wrap(err, "refreshing public entries")
	}
	for _, entry := range public {
		if entry.OwnerID != s.userID && !entry.Public {
			// The gateway should never hand us someone else's private
			// entry; drop it rather than cache it.
			s.logger.Warn("discarding private entry from public batch",
				zap.String("entry_id", entry.ID),
			)
			continue
		}
		s.store.Upsert(entry)
	}

	if err := s.graph.Load(ctx); err != nil {
		return err
	}
	return nil
}

// Feed derives the public display list for the given options.
func (s *Session) Feed(opts feed.Options) []domain.Entry {
	opts.ViewerID = s.userID
	if opts.IsFollowing == nil {
		opts.IsFollowing = s.graph.IsFollowing
	}
	return feed.Build(s.store.All(), opts)
}

// OwnEntries returns the user's own list, newest first. It is kept apart
// from the public feed, matching the two-pane layout of the UI.
func (s *Session) OwnEntries() []domain.Entry {
	own := make([]domain.Entry, 0)
	for _, entry := range s.store.All() {
		if entry.OwnerID == s.userID {
			own = append(own, entry)
		}
	}
	sort.SliceStable(own, func(i, j int) bool {
		return own[i].CreatedAt.After(own[j].CreatedAt)
	})
	return own
}

// TotalLikesReceived sums the like counters across the user's own entries.
func (s *Session) TotalLikesReceived() int {
	total := 0
	for _, entry := range s.store.All() {
		if entry.OwnerID == s.userID {
			total += entry.Likes
		}
	}
	return total
}

// CreateEntry validates the input, creates the entry remotely and caches
// the server's row. Creation is not optimistic: the server owns the id.
func (s *Session) CreateEntry(ctx context.Context, input domain.EntryInput) (*domain.Entry, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	entry, err := s.gateway.CreateEntry(ctx, s.userID, input)
	if err != nil {
		return nil, err
	}
	s.store.Upsert(*entry)
	return entry, nil
}

// UpdateEntry validates and applies an owner edit, then caches the result.
func (s *Session) UpdateEntry(ctx context.Context, entryID string, input domain.EntryInput) (*domain.Entry, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	entry, err := s.gateway.UpdateEntry(ctx, entryID, s.userID, input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.store.Remove(entryID)
		}
		return nil, err
	}
	s.store.Upsert(*entry)
	return entry, nil
}

// DeleteEntry removes the entry optimistically through the engine.
func (s *Session) DeleteEntry(ctx context.Context, entryID string) error {
	s.poller.Cancel(entryID)
	return s.engine.DeleteEntry(ctx, entryID, s.userID)
}

// ToggleLike flips the viewer's like mark through the engine.
func (s *Session) ToggleLike(ctx context.Context, entryID string) error {
	return s.engine.ToggleLike(ctx, entryID, s.userID)
}

// ToggleVisibility flips an own entry between public and private.
func (s *Session) ToggleVisibility(ctx context.Context, entryID string) error {
	return s.engine.ToggleVisibility(ctx, entryID, s.userID)
}

// Follow adds a follow edge through the graph cache.
func (s *Session) Follow(ctx context.Context, targetID string) error {
	return s.graph.Follow(ctx, targetID)
}

// Unfollow removes a follow edge through the graph cache.
func (s *Session) Unfollow(ctx context.Context, targetID string) error {
	return s.graph.Unfollow(ctx, targetID)
}

// OpenEntry loads the detail view of an entry: it re-fetches the record,
// resolves the viewer's like state, counts the view at most once per
// session (never for the owner), and starts the interpretation poll when
// the tab's AI field is still empty.
//
// The request context covers only the synchronous fetches here; the poll
// loop parents on the session lifetime so it survives the request ending.
func (s *Session) OpenEntry(ctx context.Context, entryID string, tab poller.Tab) (*domain.Entry, error) {
	entry, err := s.gateway.FetchEntryByID(ctx, entryID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			// The entry vanished; drop the stale local reference instead
			// of failing the whole view.
			s.store.Remove(entryID)
		}
		return nil, err
	}

	// Merge rather than replace: single fetches carry no joined owner row,
	// and IsLiked is viewer-local state the fetch knows nothing about.
	merged := *entry
	if cached, ok := s.store.Get(entryID); ok {
		if merged.Owner == nil {
			merged.Owner = cached.Owner
		}
		merged.IsLiked = cached.IsLiked
	}
	s.store.Upsert(merged)

	if state, err := s.gateway.FetchLikeState(ctx, entryID, s.userID); err == nil && state != nil {
		s.store.Patch(entryID, store.EntryPatch{Likes: &state.Count, IsLiked: &state.IsLiked})
	} else if err != nil {
		// The cached like state stands; the readback is best-effort.
		s.logger.Warn("like state readback failed",
			zap.String("entry_id", entryID),
			zap.Error(err),
		)
	}

	viewerIsOwner := entry.OwnerID == s.userID
	if s.guard.ShouldCount(entryID, viewerIsOwner) {
		views := entry.Views + 1
		s.store.Patch(entryID, store.EntryPatch{Views: &views})
		if err := s.gateway.IncrementView(ctx, entryID); err != nil {
			// The guard already marked the entry, so the increment is not
			// retried this session. Under-counting beats double-counting.
			s.logger.Warn("view increment failed",
				zap.String("entry_id", entryID),
				zap.Error(err),
			)
		}
	}

	s.poller.Start(s.lifetime, entryID, tab)

	opened, _ := s.store.Get(entryID)
	return &opened, nil
}

// SwitchTab re-targets the poll loop at the other AI field. Settled fields
// need no loop; pending ones restart cleanly.
func (s *Session) SwitchTab(entryID string, tab poller.Tab) {
	s.poller.Start(s.lifetime, entryID, tab)
}

// CloseEntry cancels the entry's poll loop. Leaving the detail view must
// never leak a timer that keeps patching an invisible entry.
func (s *Session) CloseEntry(entryID string) {
	s.poller.Cancel(entryID)
}

// Comments lists the comments of an entry.
func (s *Session) Comments(ctx context.Context, entryID string) ([]domain.Comment, error) {
	return s.gateway.ListComments(ctx, entryID)
}

// PostComment creates a comment and bumps the local comment counter.
func (s *Session) PostComment(ctx context.Context, input domain.CommentInput) (*domain.Comment, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	comment, err := s.gateway.PostComment(ctx, s.userID, input)
	if err != nil {
		return nil, err
	}
	if entry, ok := s.store.Get(input.EntryID); ok {
		count := entry.Comments + 1
		s.store.Patch(input.EntryID, store.EntryPatch{Comments: &count})
	}
	return comment, nil
}

// DeleteComment removes a comment and decrements the local counter.
func (s *Session) DeleteComment(ctx context.Context, commentID, entryID string) error {
	if err := s.gateway.DeleteComment(ctx, commentID, s.userID); err != nil {
		return err
	}
	if entry, ok := s.store.Get(entryID); ok {
		count := entry.Comments - 1
		s.store.Patch(entryID, store.EntryPatch{Comments: &count})
	}
	return nil
}

// RequestInterpretation kicks off AI generation for an entry. The call is
// fire-and-forget: a direct result is patched in when the backend returns
// one, but the poll loop is what the UI actually waits on.
func (s *Session) RequestInterpretation(ctx context.Context, entryID string) error {
	entry, ok := s.store.Get(entryID)
	if !ok {
		return apperrors.NewNotFoundError("entry")
	}

	go func() {
		result, err := s.gateway.RequestInterpretation(context.WithoutCancel(ctx), entryID, entry.Body)
		if err != nil {
			s.logger.Warn("interpretation request failed",
				zap.String("entry_id", entryID),
				zap.Error(err),
			)
			return
		}
		if result != nil && !result.IsEmpty() {
			s.store.Patch(entryID, store.EntryPatch{AI: result})
		}
	}()
	return nil
}

// Search asks the backend for entries matching the term and merges public
// hits into the store so the next feed derivation can show them.
func (s *Session) Search(ctx context.Context, term string) ([]domain.Entry, error) {
	hits, err := s.gateway.SearchEntries(ctx, s.userID, term)
	if err != nil {
		return nil, err
	}
	for _, entry := range hits {
		if entry.OwnerID == s.userID || entry.Public {
			s.store.Upsert(entry)
		}
	}
	return hits, nil
}

// Close tears the session down, canceling every outstanding poll loop.
func (s *Session) Close() {
	s.cancel()
	s.poller.CancelAll()
}
