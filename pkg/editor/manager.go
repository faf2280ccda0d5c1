package editor

import (
	"sync"

	"ameditor/pkg/logx"
)

// Manager tracks the live editor sessions and tears them down together on
// shutdown.
type Manager struct {
	newSession func() *Session
	logger     *logx.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager. newSession builds a fully wired
// Session; the manager owns its lifecycle afterwards.
func NewManager(newSession func() *Session) *Manager {
	return &Manager{
		newSession: newSession,
		logger:     logx.NewLogger("editor"),
		sessions:   make(map[string]*Session),
	}
}

// Create starts a new session and registers it.
func (m *Manager) Create() *Session {
	s := m.newSession()

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Info("Session %s opened (tenant %s)", s.ID(), s.TenantID())
	return s
}

// Get returns the session with the given ID, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Close tears down one session and removes it.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Close()
		m.logger.Info("Session %s closed", id)
	}
}

// CloseAll tears down every session. Used during shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	if len(sessions) > 0 {
		m.logger.Info("Closed %d sessions", len(sessions))
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
