package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trip-tales-client/internal/models"

	"github.com/go-chi/chi/v5"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, token string, r chi.Router) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, staticToken(token)), srv
}

func TestAuthHeaderAttached(t *testing.T) {
	var gotAuth string
	r := chi.NewRouter()
	r.Get("/api/groups/my-groups/", func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]models.Group{})
	})
	client, _ := newTestClient(t, "Token abc123", r)

	if _, err := client.MyGroups(context.Background()); err != nil {
		t.Fatalf("MyGroups failed: %v", err)
	}
	if gotAuth != "Token abc123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Token abc123")
	}
}

func TestAuthHeaderOmittedWhenLoggedOut(t *testing.T) {
	var hasAuth bool
	r := chi.NewRouter()
	r.Post("/api/auth/login/", func(w http.ResponseWriter, req *http.Request) {
		_, hasAuth = req.Header["Authorization"]
		json.NewEncoder(w).Encode(models.LoginResponse{Token: "t"})
	})
	client, _ := newTestClient(t, "", r)

	if _, err := client.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if hasAuth {
		t.Error("Authorization header sent without a session")
	}
}

func TestRequestIDHeader(t *testing.T) {
	var requestID string
	r := chi.NewRouter()
	r.Get("/api/groups/my-groups/", func(w http.ResponseWriter, req *http.Request) {
		requestID = req.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode([]models.Group{})
	})
	client, _ := newTestClient(t, "Token t", r)

	client.MyGroups(context.Background())
	if requestID == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestLoginDecodesPayload(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/auth/login/", func(w http.ResponseWriter, req *http.Request) {
		var body models.LoginRequest
		json.NewDecoder(req.Body).Decode(&body)
		if body.Username != "alice" || body.Password != "pw" {
			t.Errorf("unexpected login body: %+v", body)
		}
		json.NewEncoder(w).Encode(models.LoginResponse{
			User:  models.User{ID: 7, Username: "alice", Email: "alice@example.com"},
			Token: "abc123",
		})
	})
	client, _ := newTestClient(t, "", r)

	resp, err := client.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.Token != "abc123" || resp.User.ID != 7 {
		t.Errorf("Login = %+v", resp)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		body   string
		kind   ErrorKind
		msg    string
	}{
		{http.StatusBadRequest, `{"detail":"bad input"}`, KindHTTP, "bad input"},
		{http.StatusUnauthorized, `{"detail":"invalid token"}`, KindAuth, "invalid token"},
		{http.StatusForbidden, `{"error":"not allowed"}`, KindAuth, "not allowed"},
		{http.StatusNotFound, `{"detail":"gone"}`, KindNotFound, "gone"},
		{http.StatusInternalServerError, `boom`, KindHTTP, "boom"},
		{http.StatusBadGateway, ``, KindHTTP, "Bad Gateway"},
	}

	for _, tt := range tests {
		r := chi.NewRouter()
		r.Get("/api/groups/my-groups/", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(tt.body))
		})
		client, _ := newTestClient(t, "Token t", r)

		_, err := client.MyGroups(context.Background())
		apiErr, ok := AsError(err)
		if !ok {
			t.Fatalf("status %d: error %v is not a typed error", tt.status, err)
		}
		if apiErr.Kind != tt.kind {
			t.Errorf("status %d: Kind = %q, want %q", tt.status, apiErr.Kind, tt.kind)
		}
		if apiErr.Message != tt.msg {
			t.Errorf("status %d: Message = %q, want %q", tt.status, apiErr.Message, tt.msg)
		}
		if apiErr.Status != tt.status {
			t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
		}
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(chi.NewRouter())
	client := NewClient(srv.URL, time.Second, staticToken(""))
	srv.Close()

	_, err := client.MyGroups(context.Background())
	if !IsKind(err, KindNetwork) {
		t.Errorf("error after server shutdown = %v, want kind network", err)
	}
}

func TestCancelledContextIsNetworkError(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/groups/my-groups/", func(w http.ResponseWriter, req *http.Request) {
		<-req.Context().Done()
	})
	client, _ := newTestClient(t, "Token t", r)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.MyGroups(ctx)
	if !IsKind(err, KindNetwork) {
		t.Errorf("error after cancellation = %v, want kind network", err)
	}
}

func TestDeleteNoContent(t *testing.T) {
	r := chi.NewRouter()
	r.Delete("/api/posts/{id}/", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	client, _ := newTestClient(t, "Token t", r)

	if err := client.DeletePost(context.Background(), 42); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
}

func TestToggleLikeDecodesResult(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/posts/{id}/toggle-like/", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(models.LikeResult{Liked: true, LikesCount: 4})
	})
	client, _ := newTestClient(t, "Token t", r)

	result, err := client.ToggleLike(context.Background(), 7)
	if err != nil {
		t.Fatalf("ToggleLike failed: %v", err)
	}
	if !result.Liked || result.LikesCount != 4 {
		t.Errorf("ToggleLike = %+v, want liked=true count=4", result)
	}
}

func TestUploadPhotoMultipart(t *testing.T) {
	imageBytes := []byte("fake-jpeg-bytes")

	r := chi.NewRouter()
	r.Post("/api/photos/upload/", func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("not a multipart request: %v", err)
		}
		if got := req.FormValue("post"); got != "42" {
			t.Errorf("post field = %q, want %q", got, "42")
		}
		if got := req.FormValue("latitude"); got != "45.5" {
			t.Errorf("latitude field = %q, want %q", got, "45.5")
		}
		if got := req.FormValue("longitude"); got != "9.2" {
			t.Errorf("longitude field = %q, want %q", got, "9.2")
		}
		file, header, err := req.FormFile("image")
		if err != nil {
			t.Fatalf("image part missing: %v", err)
		}
		defer file.Close()
		if header.Filename != "trip.jpg" {
			t.Errorf("filename = %q, want %q", header.Filename, "trip.jpg")
		}
		data, _ := io.ReadAll(file)
		if !bytes.Equal(data, imageBytes) {
			t.Error("image bytes do not match")
		}
		json.NewEncoder(w).Encode(models.Photo{ID: 1, Image: "http://x/1.jpg"})
	})
	client, _ := newTestClient(t, "Token t", r)

	lat, lng := 45.5, 9.2
	photo, err := client.UploadPhoto(context.Background(), 42, bytes.NewReader(imageBytes), "trip.jpg", &lat, &lng)
	if err != nil {
		t.Fatalf("UploadPhoto failed: %v", err)
	}
	if photo.ID != 1 {
		t.Errorf("photo.ID = %d, want 1", photo.ID)
	}
}

func TestUploadPhotoOmitsAbsentCoordinates(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/photos/upload/", func(w http.ResponseWriter, req *http.Request) {
		req.ParseMultipartForm(1 << 20)
		if _, ok := req.MultipartForm.Value["latitude"]; ok {
			t.Error("latitude field sent without a value")
		}
		json.NewEncoder(w).Encode(models.Photo{ID: 2})
	})
	client, _ := newTestClient(t, "Token t", r)

	if _, err := client.UploadPhoto(context.Background(), 1, bytes.NewReader([]byte("x")), "a.jpg", nil, nil); err != nil {
		t.Fatalf("UploadPhoto failed: %v", err)
	}
}
