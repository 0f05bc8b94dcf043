package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"dreamlog-client/application/session"
	"dreamlog-client/domain"
	"dreamlog-client/pkg/auth"
	apperrors "dreamlog-client/pkg/errors"
)

// CommentHandler handles entry comments.
type CommentHandler struct {
	sessions *session.Manager
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewCommentHandler creates a comment handler.
func NewCommentHandler(sessions *session.Manager, errors *apperrors.ErrorHandler, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{sessions: sessions, errors: errors, logger: logger}
}

// List handles GET /entries/{entryID}/comments.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
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
	comments, err := sess.Comments(r.Context(), entryID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, comments)
}

// Create handles POST /entries/{entryID}/comments.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	entryID, ok := entryIDParam(w, r, h.errors)
	if !ok {
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess := h.sessions.Get(userCtx.UserID)
	comment, err := sess.PostComment(r.Context(), domain.CommentInput{
		EntryID: entryID,
		Body:    req.Body,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, comment)
}

// Delete handles DELETE /entries/{entryID}/comments/{commentID}.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	entryID, ok := entryIDParam(w, r, h.errors)
	if !ok {
		return
	}

	commentID := chi.URLParam(r, "commentID")
	if commentID == "" {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Comment ID is required")
		return
	}
	if _, err := uuid.Parse(commentID); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid comment ID format")
		return
	}

	sess := h.sessions.Get(userCtx.UserID)
	if err := sess.DeleteComment(r.Context(), commentID, entryID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
