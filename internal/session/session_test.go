package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trip-tales-client/internal/api"
	"trip-tales-client/internal/models"
	"trip-tales-client/internal/storage"

	"github.com/go-chi/chi/v5"
)

type fixture struct {
	manager *Manager
	client  *api.Client
	store   *storage.SessionStore
	session *Session
}

func newFixture(t *testing.T, r chi.Router) *fixture {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	store, err := storage.OpenSessionStore(t.TempDir(), "session.db")
	if err != nil {
		t.Fatalf("OpenSessionStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sess := New()
	client := api.NewClient(srv.URL, 5*time.Second, sess)
	return &fixture{
		manager: NewManager(sess, client, store),
		client:  client,
		store:   store,
		session: sess,
	}
}

func loginRouter(lastAuth *string) chi.Router {
	r := chi.NewRouter()
	r.Post("/api/auth/login/", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(models.LoginResponse{
			User:  models.User{ID: 7, Username: "alice", Email: "alice@example.com"},
			Token: "abc123",
		})
	})
	r.Get("/api/groups/my-groups/", func(w http.ResponseWriter, req *http.Request) {
		*lastAuth = req.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]models.Group{})
	})
	return r
}

func TestLoginStoresPrefixedToken(t *testing.T) {
	var lastAuth string
	f := newFixture(t, loginRouter(&lastAuth))

	if err := f.manager.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !f.manager.IsLoggedIn() {
		t.Fatal("IsLoggedIn() = false after login")
	}
	if got := f.session.Token(); got != "Token abc123" {
		t.Errorf("Token() = %q, want %q", got, "Token abc123")
	}
	if user := f.manager.CurrentUser(); user == nil || user.Username != "alice" {
		t.Errorf("CurrentUser() = %+v", user)
	}

	// The token must reach subsequent requests as an Authorization header.
	if _, err := f.client.MyGroups(context.Background()); err != nil {
		t.Fatalf("MyGroups failed: %v", err)
	}
	if lastAuth != "Token abc123" {
		t.Errorf("Authorization = %q, want %q", lastAuth, "Token abc123")
	}
}

func TestLoginPersistsSession(t *testing.T) {
	var lastAuth string
	f := newFixture(t, loginRouter(&lastAuth))

	if err := f.manager.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	rec, err := f.store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rec == nil || rec.Token != "Token abc123" || rec.Username != "alice" || rec.UserID != 7 {
		t.Errorf("persisted record = %+v", rec)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	var lastAuth string
	f := newFixture(t, loginRouter(&lastAuth))

	f.manager.Login(context.Background(), "alice", "pw")
	if err := f.manager.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if f.manager.IsLoggedIn() {
		t.Error("IsLoggedIn() = true after logout")
	}
	if rec, _ := f.store.Load(); rec != nil {
		t.Errorf("persisted record survives logout: %+v", rec)
	}

	// No Authorization header on subsequent requests.
	lastAuth = "unset"
	f.client.MyGroups(context.Background())
	if lastAuth != "" {
		t.Errorf("Authorization after logout = %q, want empty", lastAuth)
	}

	// Logout is idempotent.
	if err := f.manager.Logout(); err != nil {
		t.Fatalf("second Logout failed: %v", err)
	}
}

func TestRestore(t *testing.T) {
	var lastAuth string
	f := newFixture(t, loginRouter(&lastAuth))

	rec := &storage.SessionRecord{
		Token:    "Token persisted",
		UserID:   3,
		Username: "bob",
		Email:    "bob@example.com",
	}
	if err := f.store.Save(rec); err != nil {
		t.Fatal(err)
	}

	if err := f.manager.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if !f.manager.IsLoggedIn() {
		t.Fatal("IsLoggedIn() = false after restore")
	}
	if user := f.manager.CurrentUser(); user == nil || user.Username != "bob" || user.ID != 3 {
		t.Errorf("CurrentUser() after restore = %+v", user)
	}
}

func TestRestoreWithEmptyStore(t *testing.T) {
	var lastAuth string
	f := newFixture(t, loginRouter(&lastAuth))

	if err := f.manager.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if f.manager.IsLoggedIn() {
		t.Error("IsLoggedIn() = true with nothing persisted")
	}
}

func TestRegisterDoesNotEstablishSession(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/auth/register/", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(models.LoginResponse{
			User:  models.User{ID: 9, Username: "carol"},
			Token: "fresh",
		})
	})
	f := newFixture(t, r)

	if err := f.manager.Register(context.Background(), "carol", "carol@example.com", "pw"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if f.manager.IsLoggedIn() {
		t.Error("register must not establish a session")
	}
	if rec, _ := f.store.Load(); rec != nil {
		t.Errorf("register persisted a session: %+v", rec)
	}
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t, chi.NewRouter())

	err := f.manager.Login(context.Background(), "", "pw")
	if !api.IsKind(err, api.KindValidation) {
		t.Errorf("Login with empty username = %v, want validation error", err)
	}
}

func TestRegisterValidatesEmail(t *testing.T) {
	f := newFixture(t, chi.NewRouter())

	err := f.manager.Register(context.Background(), "dave", "not-an-email", "pw")
	if !api.IsKind(err, api.KindValidation) {
		t.Errorf("Register with bad email = %v, want validation error", err)
	}
}

func TestLoginFailureIsTyped(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/auth/login/", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "invalid credentials"})
	})
	f := newFixture(t, r)

	err := f.manager.Login(context.Background(), "alice", "wrong")
	apiErr, ok := api.AsError(err)
	if !ok || apiErr.Kind != api.KindAuth {
		t.Errorf("Login failure = %v, want auth error", err)
	}
	if apiErr != nil && apiErr.Message != "invalid credentials" {
		t.Errorf("Message = %q, want server message", apiErr.Message)
	}
	if f.manager.IsLoggedIn() {
		t.Error("failed login left a session behind")
	}
}
