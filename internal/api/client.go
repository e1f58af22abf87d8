package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trip-tales-client/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TokenProvider supplies the current auth token, already in header form
// ("Token <value>"). An empty string means no session is held and the
// Authorization header is omitted.
type TokenProvider interface {
	Token() string
}

// Client is the typed gateway to the TripTales backend. One method per
// endpoint; every failure resolves to a *Error.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
}

// NewClient creates a new API client
func NewClient(baseURL string, timeout time.Duration, tokens TokenProvider) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// Login authenticates a user. The returned token is the raw server value,
// without the "Token " header prefix.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account. Registration does not establish a session;
// callers must log in afterwards.
func (c *Client) Register(ctx context.Context, username, email, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	req := models.RegisterRequest{Username: username, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MyGroups returns the groups the current user belongs to.
func (c *Client) MyGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := c.do(ctx, http.MethodGet, "/api/groups/my-groups/", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Invitations returns the current user's pending invitations.
func (c *Client) Invitations(ctx context.Context) ([]models.GroupInvitation, error) {
	var invitations []models.GroupInvitation
	if err := c.do(ctx, http.MethodGet, "/api/groups/invitations/", nil, &invitations); err != nil {
		return nil, err
	}
	return invitations, nil
}

// CreateGroup creates a new group owned by the current user.
func (c *Client) CreateGroup(ctx context.Context, name, description string) (*models.Group, error) {
	var group models.Group
	req := models.GroupCreateRequest{Name: name, Description: description}
	if err := c.do(ctx, http.MethodPost, "/api/groups/", req, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// InviteToGroup invites a user, by email, to a group.
func (c *Client) InviteToGroup(ctx context.Context, groupID int, recipientEmail string) (*models.GroupInvitation, error) {
	var invitation models.GroupInvitation
	req := models.GroupInviteRequest{Recipient: recipientEmail}
	path := fmt.Sprintf("/api/groups/%d/invite/", groupID)
	if err := c.do(ctx, http.MethodPost, path, req, &invitation); err != nil {
		return nil, err
	}
	return &invitation, nil
}

// RespondToInvitation accepts or rejects a pending invitation.
func (c *Client) RespondToInvitation(ctx context.Context, invitationID int, status models.InvitationStatus) (*models.GroupInvitation, error) {
	var invitation models.GroupInvitation
	req := models.InvitationResponseRequest{Status: status}
	path := fmt.Sprintf("/api/groups/invitations/%d/respond/", invitationID)
	if err := c.do(ctx, http.MethodPatch, path, req, &invitation); err != nil {
		return nil, err
	}
	return &invitation, nil
}

// GroupPosts returns a group's posts in the server's display order.
func (c *Client) GroupPosts(ctx context.Context, groupID int) ([]models.Post, error) {
	var posts []models.Post
	path := fmt.Sprintf("/api/posts/group/%d/", groupID)
	if err := c.do(ctx, http.MethodGet, path, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost creates a text post in a group.
func (c *Client) CreatePost(ctx context.Context, groupID int, text string) (*models.Post, error) {
	var post models.Post
	req := models.PostCreateRequest{GroupID: groupID, Text: text}
	if err := c.do(ctx, http.MethodPost, "/api/posts/", req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost deletes a post.
func (c *Client) DeletePost(ctx context.Context, postID int) error {
	path := fmt.Sprintf("/api/posts/%d/", postID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// GroupMembers returns the members of a group.
func (c *Client) GroupMembers(ctx context.Context, groupID int) ([]models.User, error) {
	var members []models.User
	path := fmt.Sprintf("/api/groups/%d/members/", groupID)
	if err := c.do(ctx, http.MethodGet, path, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// DeleteGroup deletes a group. Creator-only, enforced server-side.
func (c *Client) DeleteGroup(ctx context.Context, groupID int) error {
	path := fmt.Sprintf("/api/groups/%d/", groupID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ToggleLike toggles the current user's like on a post and returns the
// server's authoritative like state.
func (c *Client) ToggleLike(ctx context.Context, postID int) (*models.LikeResult, error) {
	var result models.LikeResult
	path := fmt.Sprintf("/api/posts/%d/toggle-like/", postID)
	if err := c.do(ctx, http.MethodPost, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PostComments returns a post's comments.
func (c *Client) PostComments(ctx context.Context, postID int) ([]models.Comment, error) {
	var comments []models.Comment
	path := fmt.Sprintf("/api/comments/post/%d/", postID)
	if err := c.do(ctx, http.MethodGet, path, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateComment adds a comment to a post.
func (c *Client) CreateComment(ctx context.Context, postID int, text string) (*models.Comment, error) {
	var comment models.Comment
	req := models.CommentCreateRequest{PostID: postID, Text: text}
	if err := c.do(ctx, http.MethodPost, "/api/comments/", req, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment deletes a comment.
func (c *Client) DeleteComment(ctx context.Context, commentID int) error {
	path := fmt.Sprintf("/api/comments/%d/", commentID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// UploadPhoto attaches an image to an existing post via multipart upload.
// It is a distinct call from post creation: a failure here never rolls back
// the already-created post.
func (c *Client) UploadPhoto(ctx context.Context, postID int, image io.Reader, filename string, latitude, longitude *float64) (*models.Photo, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("post", strconv.Itoa(postID)); err != nil {
		return nil, NewNetworkError(fmt.Errorf("failed to write post field: %w", err))
	}
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("failed to create image part: %w", err))
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, NewNetworkError(fmt.Errorf("failed to read image: %w", err))
	}
	if latitude != nil {
		if err := w.WriteField("latitude", strconv.FormatFloat(*latitude, 'f', -1, 64)); err != nil {
			return nil, NewNetworkError(fmt.Errorf("failed to write latitude field: %w", err))
		}
	}
	if longitude != nil {
		if err := w.WriteField("longitude", strconv.FormatFloat(*longitude, 'f', -1, 64)); err != nil {
			return nil, NewNetworkError(fmt.Errorf("failed to write longitude field: %w", err))
		}
	}
	if err := w.Close(); err != nil {
		return nil, NewNetworkError(fmt.Errorf("failed to finalize multipart body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/photos/upload/", &buf)
	if err != nil {
		return nil, NewNetworkError(err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var photo models.Photo
	if err := c.send(req, &photo); err != nil {
		return nil, err
	}
	return &photo, nil
}

// do executes a JSON request against the backend and decodes the response
// into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return NewNetworkError(fmt.Errorf("failed to encode request body: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return NewNetworkError(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

// send attaches common headers, executes the request, and maps the outcome
// onto the error taxonomy.
func (c *Client) send(req *http.Request, out interface{}) error {
	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug().
			Str("request_id", requestID).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Err(err).
			Msg("Request failed")
		return NewNetworkError(err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Msg("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return NewHTTPError(resp.StatusCode, readServerMessage(resp))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewNetworkError(fmt.Errorf("failed to decode response body: %w", err))
	}
	return nil
}

// readServerMessage extracts the server-supplied message from an error
// response body, falling back to the status text.
func readServerMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(data) == 0 {
		return http.StatusText(resp.StatusCode)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			if msg, ok := payload[key].(string); ok && msg != "" {
				return msg
			}
		}
	}

	if msg := strings.TrimSpace(string(data)); msg != "" {
		return msg
	}
	return http.StatusText(resp.StatusCode)
}
