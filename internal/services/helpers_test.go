package services

import (
	"net/http/httptest"
	"testing"
	"time"

	"trip-tales-client/internal/api"

	"github.com/go-chi/chi/v5"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, r chi.Router) *api.Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL, 5*time.Second, staticToken("Token t"))
}

func wantNotice(t *testing.T, board interface{ Notice() *Notice }, kind NoticeKind) {
	t.Helper()
	n := board.Notice()
	if n == nil {
		t.Fatalf("expected a %s notice, got none", kind)
	}
	if n.Kind != kind {
		t.Fatalf("notice = %+v, want kind %s", n, kind)
	}
}

func wantNoNotice(t *testing.T, board interface{ Notice() *Notice }) {
	t.Helper()
	if n := board.Notice(); n != nil {
		t.Fatalf("unexpected notice: %+v", n)
	}
}
