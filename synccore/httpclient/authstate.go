package httpclient

import (
	"sync"
	"time"
)

// AuthState is the mutable, dynamic half of authentication: a bearer token
// obtained out of band (login call, OAuth exchange) and its expiry. It is
// safe for concurrent use since a Client may refresh it from one goroutine
// while another is reading it to build a request.
type AuthState struct {
	mu              sync.RWMutex
	accessToken     string
	expiresAt       time.Time
	hasExpiry       bool
	refreshRequired bool
}

// AccessToken returns the current token, or "" if none has been set.
func (s *AuthState) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// MarkForRefresh forces the next IsExpired check to report true regardless
// of the stored expiry, e.g. after a 401/403 response.
func (s *AuthState) MarkForRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshRequired = true
}

// SetToken installs a freshly obtained token. A zero lifetime means the
// token never expires on its own (only MarkForRefresh forces renewal).
func (s *AuthState) SetToken(token string, lifetime time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
	s.refreshRequired = false
	if lifetime > 0 {
		s.expiresAt = time.Now().Add(lifetime)
		s.hasExpiry = true
	} else {
		s.hasExpiry = false
	}
}

// IsExpired reports whether the token should be refreshed before use.
func (s *AuthState) IsExpired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.refreshRequired {
		return true
	}
	if s.accessToken == "" {
		return true
	}
	if !s.hasExpiry {
		return false
	}
	return !now.Before(s.expiresAt)
}
