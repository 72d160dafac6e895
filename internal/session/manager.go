package session

import (
	"sync"
	"time"
)

// Session is a bearer token issued by a remote data API.
type Session struct {
	Source    string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Manager caches one remote session per source. Remote servers drop idle
// sessions, so every use slides the expiry forward by the TTL.
type Manager struct {
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	mu       sync.Mutex
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetClock replaces the time source.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Store records a freshly issued token for source.
func (m *Manager) Store(source, token string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s := &Session{
		Source:    source,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	m.sessions[source] = s
	return s
}

// Get returns the cached token for source if it has not expired.
func (m *Manager) Get(source string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[source]
	if !ok {
		return "", false
	}
	if s.Expired(m.now()) {
		delete(m.sessions, source)
		return "", false
	}
	return s.Token, true
}

// Touch extends the session for source after a successful call.
func (m *Manager) Touch(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[source]; ok {
		s.ExpiresAt = m.now().Add(m.ttl)
	}
}

// Invalidate drops the cached token for source.
func (m *Manager) Invalidate(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, source)
}

// CleanupExpired removes every expired session.
func (m *Manager) CleanupExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for source, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, source)
		}
	}
}

// Len returns the number of cached sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
