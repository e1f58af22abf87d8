package session

import (
	"sync"

	"trip-tales-client/internal/models"
)

// Session holds the authenticated identity for the process: the auth token in
// header form and the current user. It is constructed once and injected into
// the API client and services rather than accessed as a global.
type Session struct {
	mu    sync.RWMutex
	token string
	user  *models.User
}

// New creates an empty, logged-out session.
func New() *Session {
	return &Session{}
}

// Token returns the auth token in header form ("Token <value>"), or an empty
// string when logged out. Implements api.TokenProvider.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// CurrentUser returns a copy of the logged-in user, or nil when logged out.
func (s *Session) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsLoggedIn reports whether a token is held.
func (s *Session) IsLoggedIn() bool {
	return s.Token() != ""
}

func (s *Session) set(token string, user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = &user
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
}
