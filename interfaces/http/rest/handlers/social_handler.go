package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"dreamlog-client/application/session"
	"dreamlog-client/pkg/auth"
	apperrors "dreamlog-client/pkg/errors"
)

// SocialHandler handles likes and follow edges.
type SocialHandler struct {
	sessions *session.Manager
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewSocialHandler creates a social handler.
func NewSocialHandler(sessions *session.Manager, errors *apperrors.ErrorHandler, logger *zap.Logger) *SocialHandler {
	return &SocialHandler{sessions: sessions, errors: errors, logger: logger}
}

// ToggleLike handles POST /entries/{entryID}/like. The toggle is
// optimistic; an in-flight rejection maps to 409.
func (h *SocialHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	entryID, ok := entryIDParam(w, r, h.errors)
	if !ok {
		return
	}

	sess := h.sessions.Get(userCtx.UserID)
	if err := sess.ToggleLike(r.Context(), entryID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Follow handles POST /users/{userID}/follow.
func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	targetID, ok := userIDParam(w, r, h.errors)
	if !ok {
		return
	}
	if targetID == userCtx.UserID {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Cannot follow yourself")
		return
	}

	sess := h.sessions.Get(userCtx.UserID)
	if err := sess.Follow(r.Context(), targetID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Unfollow handles DELETE /users/{userID}/follow.
func (h *SocialHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	targetID, ok := userIDParam(w, r, h.errors)
	if !ok {
		return
	}

	sess := h.sessions.Get(userCtx.UserID)
	if err := sess.Unfollow(r.Context(), targetID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /users/{userID}/stats.
func (h *SocialHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	targetID, ok := userIDParam(w, r, h.errors)
	if !ok {
		return
	}

	sess := h.sessions.Get(userCtx.UserID)
	stats, err := sess.Graph().StatsFor(r.Context(), targetID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, stats)
}

// Me handles GET /me: the viewer's own social summary.
func (h *SocialHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sess := h.sessions.Get(userCtx.UserID)
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"user_id":        userCtx.UserID,
		"followers":      sess.Graph().FollowerCount(),
		"following":      sess.Graph().FollowingCount(),
		"likes_received": sess.TotalLikesReceived(),
	})
}

// userIDParam extracts and validates the user id path parameter.
func userIDParam(w http.ResponseWriter, r *http.Request, errors *apperrors.ErrorHandler) (string, bool) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		errors.HandleStatus(w, r, http.StatusBadRequest, "User ID is required")
		return "", false
	}
	if _, err := uuid.Parse(userID); err != nil {
		errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid user ID format")
		return "", false
	}
	return userID, true
}
