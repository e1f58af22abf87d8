package services

import (
	"errors"
	"sync"
)

// ErrInFlight is returned when an operation of the same kind for the same
// entity is already running. The caller simply drops the duplicate; no
// notice is set and no cache is touched.
var ErrInFlight = errors.New("operation already in flight")

// OpKind identifies a sync operation for in-flight tracking.
type OpKind string

const (
	OpFetchGroups       OpKind = "fetch_groups"
	OpFetchInvitations  OpKind = "fetch_invitations"
	OpCreateGroup       OpKind = "create_group"
	OpDeleteGroup       OpKind = "delete_group"
	OpInvite            OpKind = "invite"
	OpRespondInvitation OpKind = "respond_invitation"
	OpFetchPosts        OpKind = "fetch_posts"
	OpCreatePost        OpKind = "create_post"
	OpDeletePost        OpKind = "delete_post"
	OpToggleLike        OpKind = "toggle_like"
	OpUploadPhoto       OpKind = "upload_photo"
	OpFetchComments     OpKind = "fetch_comments"
	OpCreateComment     OpKind = "create_comment"
	OpDeleteComment     OpKind = "delete_comment"
)

type opKey struct {
	kind OpKind
	id   int
}

// inflight tracks running operations keyed by (kind, entity id) so a second
// identical request is rejected while the first is still running. It also
// backs the observable busy state.
type inflight struct {
	mu  sync.Mutex
	ops map[opKey]struct{}
}

func newInflight() *inflight {
	return &inflight{ops: make(map[opKey]struct{})}
}

// begin registers the operation, reporting false if one is already running.
func (f *inflight) begin(kind OpKind, id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := opKey{kind: kind, id: id}
	if _, exists := f.ops[key]; exists {
		return false
	}
	f.ops[key] = struct{}{}
	return true
}

func (f *inflight) end(kind OpKind, id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ops, opKey{kind: kind, id: id})
}

// busy reports whether an operation of the given kind is running for the
// given entity.
func (f *inflight) busy(kind OpKind, id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, exists := f.ops[opKey{kind: kind, id: id}]
	return exists
}
