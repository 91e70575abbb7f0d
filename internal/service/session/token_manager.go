package session

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

type tokenManager struct {
	mu     sync.RWMutex
	tokens map[string]*Session
	now    func() time.Time
}

func newTokenManager() *tokenManager {
	return &tokenManager{
		tokens: make(map[string]*Session),
		now:    time.Now,
	}
}

func (m *tokenManager) Issue(s *Session, ttl time.Duration) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	s.token = token
	s.expiresAt = m.now().Add(ttl)
	m.mu.Lock()
	m.tokens[token] = s
	m.mu.Unlock()
	return token, nil
}

// Validate returns the live session for token. Expired sessions are dropped and detached.
func (m *tokenManager) Validate(token string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.tokens[token]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.now().After(s.expiresAt) {
		m.Revoke(token)
		return nil, false
	}
	return s, true
}

func (m *tokenManager) Revoke(token string) {
	m.mu.Lock()
	s, ok := m.tokens[token]
	delete(m.tokens, token)
	m.mu.Unlock()
	if ok {
		s.detach()
	}
}

// Sweep drops every expired session and returns how many were removed.
func (m *tokenManager) Sweep() int {
	now := m.now()
	var expired []string
	m.mu.RLock()
	for token, s := range m.tokens {
		if now.After(s.expiresAt) {
			expired = append(expired, token)
		}
	}
	m.mu.RUnlock()
	for _, token := range expired {
		m.Revoke(token)
	}
	return len(expired)
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
