package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"dreamlog-client/application/feed"
	"dreamlog-client/application/session"
	"dreamlog-client/pkg/auth"
	apperrors "dreamlog-client/pkg/errors"
)

// FeedHandler serves the derived public feed and search.
type FeedHandler struct {
	sessions *session.Manager
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewFeedHandler creates a feed handler.
func NewFeedHandler(sessions *session.Manager, errors *apperrors.ErrorHandler, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{sessions: sessions, errors: errors, logger: logger}
}

// Refresh handles POST /feed/refresh. It re-pulls remote state into the
// session caches; the next Get derives from the fresh snapshot.
func (h *FeedHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sess := h.sessions.Get(userCtx.UserID)
	if err := sess.Refresh(r.Context()); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /feed. Query parameters: mode (latest|following), sort
// (recency|likes|views|comments), q (search term), limit.
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	opts := feed.Options{
		Mode:   feed.ModeLatest,
		Sort:   feed.SortRecency,
		Search: r.URL.Query().Get("q"),
	}
	if r.URL.Query().Get("mode") == string(feed.ModeFollowing) {
		opts.Mode = feed.ModeFollowing
	}
	switch feed.SortKey(r.URL.Query().Get("sort")) {
	case feed.SortLikes:
		opts.Sort = feed.SortLikes
	case feed.SortViews:
		opts.Sort = feed.SortViews
	case feed.SortComments:
		opts.Sort = feed.SortComments
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		opts.Limit = limit
	}

	sess := h.sessions.Get(userCtx.UserID)
	respondJSON(w, h.logger, http.StatusOK, sess.Feed(opts))
}

// Search handles GET /feed/search. Unlike Get with a q parameter, this also
// asks the backend for matches outside the cached superset.
func (h *FeedHandler) Search(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	term := r.URL.Query().Get("q")
	if term == "" {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Search term is required")
		return
	}

	sess := h.sessions.Get(userCtx.UserID)
	entries, err := sess.Search(r.Context(), term)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, entries)
}
