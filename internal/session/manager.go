// Package session keeps per-session conversation history in memory.
// Sessions are not persisted across restarts; callers needing durability
// must externalize this.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docqa/internal/domain"
)

// DefaultMaxEntries bounds history to the most recent entries (10 exchanges).
const DefaultMaxEntries = 20

type state struct {
	history   []domain.Message
	createdAt time.Time
}

// Manager owns all conversation sessions.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string]*state
	maxEntries int
}

// NewManager creates a session manager retaining at most maxEntries history
// entries per session.
func NewManager(maxEntries int) *Manager {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Manager{sessions: make(map[string]*state), maxEntries: maxEntries}
}

// GetOrCreate returns the ID of an existing session, creating a new one
// when sessionID is empty or unknown.
func (m *Manager) GetOrCreate(sessionID string) string {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		m.sessions[sessionID] = &state{createdAt: time.Now()}
	}
	return sessionID
}

// RecordExchange appends one user/assistant turn pair, then truncates the
// history FIFO to the retention window.
func (m *Manager) RecordExchange(sessionID, userText, assistantText string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &state{createdAt: time.Now()}
		m.sessions[sessionID] = s
	}
	s.history = append(s.history,
		domain.Message{Role: domain.RoleUser, Content: userText},
		domain.Message{Role: domain.RoleAssistant, Content: assistantText},
	)
	if len(s.history) > m.maxEntries {
		s.history = s.history[len(s.history)-m.maxEntries:]
	}
}

// FormatHistory renders the retained history as alternating labeled turns
// for inclusion in a prompt. Empty history renders as an empty string.
func (m *Manager) FormatHistory(sessionID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok || len(s.history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(s.history))
	for _, msg := range s.history {
		label := "Human"
		if msg.Role == domain.RoleAssistant {
			label = "Assistant"
		}
		lines = append(lines, label+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

// Info returns message count and creation time for a session.
func (m *Manager) Info(sessionID string) (domain.SessionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return domain.SessionInfo{}, domain.ErrSessionNotFound
	}
	return domain.SessionInfo{
		SessionID:    sessionID,
		MessageCount: len(s.history),
		CreatedAt:    s.createdAt,
	}, nil
}

// Clear removes the session, reporting whether it existed.
func (m *Manager) Clear(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	return ok
}
