package conversation

import "sync"

// Session is the per-conversation record: current screen plus the asset and
// currency selections made so far. A new asset choice overwrites the old one.
type Session struct {
	State    State
	Asset    string
	Currency string
}

type sessionEntry struct {
	mu sync.Mutex
	s  Session
}

// Manager owns all live sessions keyed by user id. Events for the same user
// are serialized through With; different users never contend.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*sessionEntry
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]*sessionEntry)}
}

func (m *Manager) entry(userID int64) *sessionEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[userID]
	if !ok {
		e = &sessionEntry{}
		m.sessions[userID] = e
	}
	return e
}

// With runs fn with exclusive access to the user's session. The session is
// created on first use, starting at the main menu with no selections.
func (m *Manager) With(userID int64, fn func(*Session)) {
	e := m.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.s)
}

// Peek returns a copy of the user's current session without creating one.
func (m *Manager) Peek(userID int64) Session {
	m.mu.Lock()
	e, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return Session{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s
}

// ExpectsText reports whether the user's conversation is waiting for
// free-form text input.
func (m *Manager) ExpectsText(userID int64) bool {
	return m.Peek(userID).State == StateTypingSearch
}
