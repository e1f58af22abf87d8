package services

import (
	"context"
	"io"
	"strings"

	"trip-tales-client/internal/api"
	"trip-tales-client/internal/cache"
	"trip-tales-client/internal/models"

	"github.com/rs/zerolog/log"
)

// PostService couples post, like, comment, and photo mutations to the posts
// and comments caches.
type PostService struct {
	noticeBoard
	client   *api.Client
	posts    *cache.Store[models.Post]
	comments *cache.Store[models.Comment]
	inflight *inflight
}

// NewPostService creates a new post service
func NewPostService(client *api.Client) *PostService {
	return &PostService{
		client:   client,
		posts:    cache.NewStore(func(p models.Post) int { return p.ID }),
		comments: cache.NewStore(func(c models.Comment) int { return c.ID }),
		inflight: newInflight(),
	}
}

// Posts returns the cached posts in the server's display order.
func (s *PostService) Posts() []models.Post {
	return s.posts.Items()
}

// Comments returns the cached comments for the currently viewed post.
func (s *PostService) Comments() []models.Comment {
	return s.comments.Items()
}

// Busy reports whether an operation of the given kind is in flight for the
// given entity id.
func (s *PostService) Busy(kind OpKind, id int) bool {
	return s.inflight.busy(kind, id)
}

// FetchGroupPosts replaces the posts cache wholesale with the server's
// current list. The server is authoritative for ordering; nothing is
// re-sorted locally.
func (s *PostService) FetchGroupPosts(ctx context.Context, groupID int) error {
	if !s.inflight.begin(OpFetchPosts, groupID) {
		return ErrInFlight
	}
	defer s.inflight.end(OpFetchPosts, groupID)

	posts, err := s.client.GroupPosts(ctx, groupID)
	if err != nil {
		return s.fail(err, "failed to load posts")
	}
	s.posts.ReplaceAll(posts)
	return nil
}

// CreatePost creates a text-only post and re-fetches the group's posts.
func (s *PostService) CreatePost(ctx context.Context, groupID int, text string) (*models.Post, error) {
	return s.CreatePostWithPhoto(ctx, groupID, text, nil, "", nil, nil)
}

// CreatePostWithPhoto creates a post and, when image is non-nil, uploads the
// photo in a second call. The upload is independent: if it fails, the post
// stays created and a partial notice is set instead of rolling back.
func (s *PostService) CreatePostWithPhoto(ctx context.Context, groupID int, text string, image io.Reader, filename string, latitude, longitude *float64) (*models.Post, error) {
	if groupID <= 0 {
		err := api.NewValidationError("invalid group id: %d", groupID)
		return nil, s.fail(err, "invalid group id")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		err := api.NewValidationError("post text must not be empty")
		return nil, s.fail(err, "post text must not be empty")
	}

	if !s.inflight.begin(OpCreatePost, groupID) {
		return nil, ErrInFlight
	}
	defer s.inflight.end(OpCreatePost, groupID)

	post, err := s.client.CreatePost(ctx, groupID, text)
	if err != nil {
		return nil, s.fail(err, "failed to create post")
	}
	log.Info().Int("post_id", post.ID).Int("group_id", groupID).Msg("Post created")

	var photoErr error
	if image != nil {
		if _, photoErr = s.client.UploadPhoto(ctx, post.ID, image, filename, latitude, longitude); photoErr != nil {
			log.Error().Err(photoErr).Int("post_id", post.ID).Msg("Photo upload failed")
		}
	}

	s.refreshPosts(ctx, groupID)

	switch {
	case photoErr != nil:
		s.set(NoticePartial, "post created, but photo upload failed: "+errMessage(photoErr))
	case image != nil:
		s.set(NoticeSuccess, "post with photo created")
	default:
		s.set(NoticeSuccess, "post created")
	}
	return post, nil
}

// UploadPhoto attaches a photo to an existing post, then re-fetches the
// group's posts so the new photo shows up.
func (s *PostService) UploadPhoto(ctx context.Context, postID, groupID int, image io.Reader, filename string, latitude, longitude *float64) (*models.Photo, error) {
	if !s.inflight.begin(OpUploadPhoto, postID) {
		return nil, ErrInFlight
	}
	defer s.inflight.end(OpUploadPhoto, postID)

	photo, err := s.client.UploadPhoto(ctx, postID, image, filename, latitude, longitude)
	if err != nil {
		return nil, s.fail(err, "failed to upload photo")
	}

	s.refreshPosts(ctx, groupID)
	s.set(NoticeSuccess, "photo uploaded")
	return photo, nil
}

// DeletePost deletes a post and re-fetches the group's posts.
func (s *PostService) DeletePost(ctx context.Context, postID, groupID int) error {
	if !s.inflight.begin(OpDeletePost, postID) {
		return ErrInFlight
	}
	defer s.inflight.end(OpDeletePost, postID)

	if err := s.client.DeletePost(ctx, postID); err != nil {
		return s.fail(err, "failed to delete post")
	}

	s.refreshPosts(ctx, groupID)
	s.set(NoticeSuccess, "post deleted")

	log.Info().Int("post_id", postID).Msg("Post deleted")
	return nil
}

// ToggleLike toggles the current user's like on a post. The cached post is
// patched with the server's returned pair, never incremented locally, so
// concurrent likes by other users cannot drift the count.
func (s *PostService) ToggleLike(ctx context.Context, postID int) error {
	if !s.inflight.begin(OpToggleLike, postID) {
		return ErrInFlight
	}
	defer s.inflight.end(OpToggleLike, postID)

	result, err := s.client.ToggleLike(ctx, postID)
	if err != nil {
		return s.fail(err, "failed to toggle like")
	}

	s.ApplyLike(postID, result)
	return nil
}

// ApplyLike patches the cached post with the server's authoritative like
// state. A missing post is ignored: a late response for a list that has been
// replaced is harmless.
func (s *PostService) ApplyLike(postID int, result *models.LikeResult) {
	post, ok := s.posts.Find(postID)
	if !ok {
		return
	}
	post.UserHasLiked = result.Liked
	post.LikesCount = result.LikesCount
	s.posts.Upsert(post)
}

// FetchComments replaces the comments cache with a post's comments.
func (s *PostService) FetchComments(ctx context.Context, postID int) error {
	if !s.inflight.begin(OpFetchComments, postID) {
		return ErrInFlight
	}
	defer s.inflight.end(OpFetchComments, postID)

	comments, err := s.client.PostComments(ctx, postID)
	if err != nil {
		return s.fail(err, "failed to load comments")
	}
	s.comments.ReplaceAll(comments)
	return nil
}

// CreateComment adds a comment, then re-fetches both the comments and the
// group's posts. The post's comment count is never incremented locally; the
// posts re-fetch corrects it, trading a round trip for correctness.
func (s *PostService) CreateComment(ctx context.Context, postID int, text string, groupID int) error {
	text = strings.TrimSpace(text)
	if text == "" {
		err := api.NewValidationError("comment text must not be empty")
		return s.fail(err, "comment text must not be empty")
	}

	if !s.inflight.begin(OpCreateComment, postID) {
		return ErrInFlight
	}
	defer s.inflight.end(OpCreateComment, postID)

	if _, err := s.client.CreateComment(ctx, postID, text); err != nil {
		return s.fail(err, "failed to create comment")
	}

	s.refreshComments(ctx, postID)
	s.refreshPosts(ctx, groupID)
	s.set(NoticeSuccess, "comment added")
	return nil
}

// DeleteComment deletes a comment and re-fetches the post's comments.
func (s *PostService) DeleteComment(ctx context.Context, commentID, postID int) error {
	if !s.inflight.begin(OpDeleteComment, commentID) {
		return ErrInFlight
	}
	defer s.inflight.end(OpDeleteComment, commentID)

	if err := s.client.DeleteComment(ctx, commentID); err != nil {
		return s.fail(err, "failed to delete comment")
	}

	s.refreshComments(ctx, postID)
	s.set(NoticeSuccess, "comment deleted")
	return nil
}

// ClearComments empties the comments cache, e.g. when leaving a post's
// comments view.
func (s *PostService) ClearComments() {
	s.comments.ReplaceAll(nil)
}

// refreshPosts re-fetches a group's posts after a successful mutation. The
// mutation already succeeded, so a failed refresh only leaves the cache
// stale, never inconsistent.
func (s *PostService) refreshPosts(ctx context.Context, groupID int) {
	posts, err := s.client.GroupPosts(ctx, groupID)
	if err != nil {
		log.Warn().Err(err).Int("group_id", groupID).Msg("Failed to refresh posts")
		return
	}
	s.posts.ReplaceAll(posts)
}

func (s *PostService) refreshComments(ctx context.Context, postID int) {
	comments, err := s.client.PostComments(ctx, postID)
	if err != nil {
		log.Warn().Err(err).Int("post_id", postID).Msg("Failed to refresh comments")
		return
	}
	s.comments.ReplaceAll(comments)
}

// fail records an error notice and returns the error. Caches are never
// touched on failure.
func (s *PostService) fail(err error, context string) error {
	s.set(NoticeError, context+": "+errMessage(err))
	return err
}

func errMessage(err error) string {
	if apiErr, ok := api.AsError(err); ok {
		return apiErr.Message
	}
	return err.Error()
}
