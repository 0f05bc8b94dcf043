// Package handlers exposes the session engine over HTTP. Handlers stay
// thin: decode, pick the caller's session, delegate, encode.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"dreamlog-client/application/poller"
	"dreamlog-client/application/session"
	"dreamlog-client/domain"
	"dreamlog-client/pkg/auth"
	apperrors "dreamlog-client/pkg/errors"
)

// EntryHandler handles the owner-side entry operations.
type EntryHandler struct {
	sessions *session.Manager
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewEntryHandler creates an entry handler.
func NewEntryHandler(sessions *session.Manager, errors *apperrors.ErrorHandler, logger *zap.Logger) *EntryHandler {
	return &EntryHandler{sessions: sessions, errors: errors, logger: logger}
}

// EntryRequest is the request body for creating or updating an entry.
type EntryRequest struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Emotion string `json:"emotion,omitempty"`
	Date    string `json:"date,omitempty"`
	Public  bool   `json:"public"`
}

func (r EntryRequest) toInput() domain.EntryInput {
	return domain.EntryInput{
		Title:   r.Title,
		Body:    r.Body,
		Emotion: r.Emotion,
		Date:    r.Date,
		Public:  r.Public,
	}
}

// VisibilityRequest is the request body for a visibility toggle.
type VisibilityRequest struct {
	Public bool `json:"public"`
}

// ListOwn handles GET /entries.
func (h *EntryHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sess := h.sessions.Get(userCtx.UserID)
	respondJSON(w, h.logger, http.StatusOK, sess.OwnEntries())
}

// Create handles POST /entries.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess := h.sessions.Get(userCtx.UserID)
	entry, err := sess.CreateEntry(r.Context(), req.toInput())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, entry)
}

// Update handles PUT /entries/{entryID}.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	entryID, ok := entryIDParam(w, r, h.errors)
	if !ok {
		return
	}

	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess := h.sessions.Get(userCtx.UserID)
	entry, err := sess.UpdateEntry(r.Context(), entryID, req.toInput())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, entry)
}

// Delete handles DELETE /entries/{entryID}.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := sess.DeleteEntry(r.Context(), entryID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Open handles GET /entries/{entryID}. The optional tab query parameter
// names the AI field the detail view shows first.
func (h *EntryHandler) Open(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	entryID, ok := entryIDParam(w, r, h.errors)
	if !ok {
		return
	}

	tab := poller.TabInterpretation
	if t := r.URL.Query().Get("tab"); t == string(poller.TabNarrative) {
		tab = poller.TabNarrative
	}

	sess := h.sessions.Get(userCtx.UserID)
	entry, err := sess.OpenEntry(r.Context(), entryID, tab)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, entry)
}

// Close handles POST /entries/{entryID}/close, ending the detail view.
func (h *EntryHandler) Close(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	entryID, ok := entryIDParam(w, r, h.errors)
	if !ok {
		return
	}

	h.sessions.Get(userCtx.UserID).CloseEntry(entryID)
	w.WriteHeader(http.StatusNoContent)
}

// SwitchTab handles POST /entries/{entryID}/tab.
func (h *EntryHandler) SwitchTab(w http.ResponseWriter, r *http.Request) {
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
		Tab string `json:"tab"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	tab := poller.TabInterpretation
	if req.Tab == string(poller.TabNarrative) {
		tab = poller.TabNarrative
	}

	h.sessions.Get(userCtx.UserID).SwitchTab(entryID, tab)
	w.WriteHeader(http.StatusNoContent)
}

// SetVisibility handles POST /entries/{entryID}/visibility.
func (h *EntryHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
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
	if err := sess.ToggleVisibility(r.Context(), entryID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RequestInterpretation handles POST /entries/{entryID}/interpretation.
func (h *EntryHandler) RequestInterpretation(w http.ResponseWriter, r *http.Request) {
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
	if err := sess.RequestInterpretation(r.Context(), entryID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// entryIDParam extracts and validates the entry id path parameter.
func entryIDParam(w http.ResponseWriter, r *http.Request, errors *apperrors.ErrorHandler) (string, bool) {
	entryID := chi.URLParam(r, "entryID")
	if entryID == "" {
		errors.HandleStatus(w, r, http.StatusBadRequest, "Entry ID is required")
		return "", false
	}
	if _, err := uuid.Parse(entryID); err != nil {
		errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid entry ID format")
		return "", false
	}
	return entryID, true
}

// respondJSON writes a JSON response, logging encode failures.
func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}
