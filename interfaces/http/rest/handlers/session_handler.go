package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"dreamlog-client/application/session"
	"dreamlog-client/pkg/auth"
	apperrors "dreamlog-client/pkg/errors"
)

// SessionHandler controls session lifecycle. Sessions start implicitly on
// first authenticated request; sign-out ends them explicitly so view-guard
// state and poll loops do not outlive the user.
type SessionHandler struct {
	sessions *session.Manager
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(sessions *session.Manager, errors *apperrors.ErrorHandler, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, errors: errors, logger: logger}
}

// End handles DELETE /session.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.HandleStatus(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	h.sessions.End(userCtx.UserID)
	h.logger.Info("session ended", zap.String("user_id", userCtx.UserID))
	w.WriteHeader(http.StatusNoContent)
}
