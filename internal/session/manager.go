package session

import (
	"context"
	"strings"

	"trip-tales-client/internal/api"
	"trip-tales-client/internal/models"
	"trip-tales-client/internal/storage"

	"github.com/rs/zerolog/log"
)

// tokenPrefix is the backend's expected Authorization scheme.
const tokenPrefix = "Token "

// Manager owns the session lifecycle: login, registration, logout, and
// restore from durable storage at startup. Every failure is returned as a
// typed *api.Error.
type Manager struct {
	session *Session
	client  *api.Client
	store   *storage.SessionStore
}

// NewManager creates a new session manager
func NewManager(session *Session, client *api.Client, store *storage.SessionStore) *Manager {
	return &Manager{
		session: session,
		client:  client,
		store:   store,
	}
}

// Restore loads a persisted session, if any, into the live session. Called
// once at startup; a missing record leaves the session logged out.
func (m *Manager) Restore() error {
	rec, err := m.store.Load()
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	m.session.set(rec.Token, models.User{
		ID:       rec.UserID,
		Username: rec.Username,
		Email:    rec.Email,
	})

	log.Info().Str("username", rec.Username).Msg("Session restored")
	return nil
}

// Login authenticates against the backend, stores the prefixed token and the
// user, and persists both for later restarts.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return api.NewValidationError("username and password are required")
	}

	resp, err := m.client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	token := tokenPrefix + resp.Token
	m.session.set(token, resp.User)

	if err := m.store.Save(&storage.SessionRecord{
		Token:    token,
		UserID:   resp.User.ID,
		Username: resp.User.Username,
		Email:    resp.User.Email,
	}); err != nil {
		// The live session is usable either way; persistence failure only
		// costs the next restart.
		log.Error().Err(err).Msg("Failed to persist session")
	}

	log.Info().Str("username", resp.User.Username).Msg("Logged in")
	return nil
}

// Register creates a new account. It does not establish a session; success
// requires a subsequent explicit Login.
func (m *Manager) Register(ctx context.Context, username, email, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return api.NewValidationError("username and password are required")
	}
	if !strings.Contains(email, "@") {
		return api.NewValidationError("invalid email address: %q", email)
	}

	if _, err := m.client.Register(ctx, username, email, password); err != nil {
		return err
	}

	log.Info().Str("username", username).Msg("Registered")
	return nil
}

// Logout clears the live session and the persisted record. Idempotent.
func (m *Manager) Logout() error {
	m.session.clear()
	if err := m.store.Clear(); err != nil {
		return err
	}
	log.Info().Msg("Logged out")
	return nil
}

// IsLoggedIn reports whether a token is held.
func (m *Manager) IsLoggedIn() bool {
	return m.session.IsLoggedIn()
}

// CurrentUser returns the logged-in user, or nil.
func (m *Manager) CurrentUser() *models.User {
	return m.session.CurrentUser()
}
