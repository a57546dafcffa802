package client

import "sync"

// TokenSource supplies the bearer credential for outgoing requests.
// An empty token means the request is sent without Authorization.
type TokenSource interface {
	Token() string
}

// Session holds the signed-in user's current ID token.
// It is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	token string
}

// NewSession returns a session holding token.
func NewSession(token string) *Session {
	return &Session{token: token}
}

// SetToken replaces the held token.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Token returns the held token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Clear signs the session out.
func (s *Session) Clear() {
	s.SetToken("")
}
