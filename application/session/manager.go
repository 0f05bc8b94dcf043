package session

import (
	"sync"
	"time"

	"dreamlog-client/application/ports"
	"dreamlog-client/pkg/observability"

	"go.uber.org/zap"
)

// Manager hands out one session per signed-in user and tears them down on
// sign-out. Sessions are created lazily on first use.
type Manager struct {
	gateway      ports.RemoteGateway
	pollInterval time.Duration
	metrics      *observability.Collector
	logger       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager(
	gateway ports.RemoteGateway,
	pollInterval time.Duration,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		gateway:      gateway,
		pollInterval: pollInterval,
		metrics:      metrics,
		logger:       logger,
		sessions:     make(map[string]*Session),
	}
}

// Get returns the user's session, creating it on first use.
func (m *Manager) Get(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s := New(userID, m.gateway, m.pollInterval, m.metrics, m.logger)
	m.sessions[userID] = s
	return s
}

// End closes and discards the user's session. View-guard state and poll
// loops die with it.
func (m *Manager) End(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
