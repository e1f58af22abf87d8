package services

import (
	"context"
	"strings"

	"trip-tales-client/internal/api"
	"trip-tales-client/internal/cache"
	"trip-tales-client/internal/config"
	"trip-tales-client/internal/models"

	"github.com/rs/zerolog/log"
)

// GroupService couples group and invitation mutations to their caches.
type GroupService struct {
	noticeBoard
	client          *api.Client
	groups          *cache.Store[models.Group]
	invitations     *cache.Store[models.GroupInvitation]
	posts           *PostService
	refreshOnAccept string
	inflight        *inflight
}

// NewGroupService creates a new group service. refreshOnAccept selects the
// cache refresh policy after an accepted invitation (config.RefreshGroups or
// config.RefreshGroupsAndPosts).
func NewGroupService(client *api.Client, posts *PostService, refreshOnAccept string) *GroupService {
	return &GroupService{
		client:          client,
		groups:          cache.NewStore(func(g models.Group) int { return g.ID }),
		invitations:     cache.NewStore(func(i models.GroupInvitation) int { return i.ID }),
		posts:           posts,
		refreshOnAccept: refreshOnAccept,
		inflight:        newInflight(),
	}
}

// Groups returns the cached groups in display order.
func (s *GroupService) Groups() []models.Group {
	return s.groups.Items()
}

// Invitations returns the cached invitations in display order.
func (s *GroupService) Invitations() []models.GroupInvitation {
	return s.invitations.Items()
}

// Busy reports whether an operation of the given kind is in flight for the
// given entity id (0 for list-level operations).
func (s *GroupService) Busy(kind OpKind, id int) bool {
	return s.inflight.busy(kind, id)
}

// FetchGroups replaces the groups cache with the server's current list.
func (s *GroupService) FetchGroups(ctx context.Context) error {
	if !s.inflight.begin(OpFetchGroups, 0) {
		return ErrInFlight
	}
	defer s.inflight.end(OpFetchGroups, 0)

	groups, err := s.client.MyGroups(ctx)
	if err != nil {
		return s.fail(err, "failed to load groups")
	}
	s.groups.ReplaceAll(groups)
	return nil
}

// FetchInvitations replaces the invitations cache with the server's list.
func (s *GroupService) FetchInvitations(ctx context.Context) error {
	if !s.inflight.begin(OpFetchInvitations, 0) {
		return ErrInFlight
	}
	defer s.inflight.end(OpFetchInvitations, 0)

	invitations, err := s.client.Invitations(ctx)
	if err != nil {
		return s.fail(err, "failed to load invitations")
	}
	s.invitations.ReplaceAll(invitations)
	return nil
}

// CreateGroup creates a group and patches the cache with the returned entity.
func (s *GroupService) CreateGroup(ctx context.Context, name, description string) (*models.Group, error) {
	if strings.TrimSpace(name) == "" {
		err := api.NewValidationError("group name must not be empty")
		return nil, s.fail(err, "group name must not be empty")
	}

	if !s.inflight.begin(OpCreateGroup, 0) {
		return nil, ErrInFlight
	}
	defer s.inflight.end(OpCreateGroup, 0)

	group, err := s.client.CreateGroup(ctx, strings.TrimSpace(name), description)
	if err != nil {
		return nil, s.fail(err, "failed to create group")
	}

	// The response carries the full entity, so patch in place rather than
	// re-fetching. Upsert keeps the cache free of duplicate ids.
	s.groups.Upsert(*group)
	s.set(NoticeSuccess, "group created")

	log.Info().Int("group_id", group.ID).Str("name", group.Name).Msg("Group created")
	return group, nil
}

// DeleteGroup deletes a group and drops it from the cache.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID int) error {
	if !s.inflight.begin(OpDeleteGroup, groupID) {
		return ErrInFlight
	}
	defer s.inflight.end(OpDeleteGroup, groupID)

	if err := s.client.DeleteGroup(ctx, groupID); err != nil {
		return s.fail(err, "failed to delete group")
	}

	s.groups.Remove(groupID)
	s.set(NoticeSuccess, "group deleted")

	log.Info().Int("group_id", groupID).Msg("Group deleted")
	return nil
}

// Invite sends a group invitation to a user by email. The sender's caches are
// unaffected; the invitation appears on the recipient's side.
func (s *GroupService) Invite(ctx context.Context, groupID int, recipientEmail string) (*models.GroupInvitation, error) {
	if !strings.Contains(recipientEmail, "@") {
		err := api.NewValidationError("invalid recipient email: %q", recipientEmail)
		return nil, s.fail(err, "invalid recipient email")
	}

	if !s.inflight.begin(OpInvite, groupID) {
		return nil, ErrInFlight
	}
	defer s.inflight.end(OpInvite, groupID)

	invitation, err := s.client.InviteToGroup(ctx, groupID, recipientEmail)
	if err != nil {
		return nil, s.fail(err, "failed to send invitation")
	}

	s.set(NoticeSuccess, "invitation sent")
	return invitation, nil
}

// RespondToInvitation accepts or rejects a pending invitation, then re-fetches
// the invitations list. An accepted invitation also refreshes the groups
// cache, and the new group's posts under the groups_and_posts policy.
func (s *GroupService) RespondToInvitation(ctx context.Context, invitationID int, accept bool) error {
	if !s.inflight.begin(OpRespondInvitation, invitationID) {
		return ErrInFlight
	}
	defer s.inflight.end(OpRespondInvitation, invitationID)

	status := models.InvitationRejected
	if accept {
		status = models.InvitationAccepted
	}

	invitation, err := s.client.RespondToInvitation(ctx, invitationID, status)
	if err != nil {
		return s.fail(err, "failed to respond to invitation")
	}

	if invitations, err := s.client.Invitations(ctx); err == nil {
		s.invitations.ReplaceAll(invitations)
	} else {
		// The respond itself succeeded; drop the stale entry so the list
		// does not show an already-answered invitation.
		s.invitations.Remove(invitationID)
		log.Warn().Err(err).Msg("Failed to refresh invitations after respond")
	}

	if accept {
		if groups, err := s.client.MyGroups(ctx); err == nil {
			s.groups.ReplaceAll(groups)
		} else {
			log.Warn().Err(err).Msg("Failed to refresh groups after accepted invitation")
		}
		if s.refreshOnAccept == config.RefreshGroupsAndPosts && s.posts != nil {
			if err := s.posts.FetchGroupPosts(ctx, invitation.Group.ID); err != nil {
				log.Warn().Err(err).Int("group_id", invitation.Group.ID).
					Msg("Failed to refresh posts after accepted invitation")
			}
		}
	}

	if accept {
		s.set(NoticeSuccess, "invitation accepted")
	} else {
		s.set(NoticeSuccess, "invitation rejected")
	}
	return nil
}

// Members returns a group's member list. Members are display-only and not
// cached.
func (s *GroupService) Members(ctx context.Context, groupID int) ([]models.User, error) {
	members, err := s.client.GroupMembers(ctx, groupID)
	if err != nil {
		return nil, s.fail(err, "failed to load group members")
	}
	return members, nil
}

// fail records an error notice and returns the error. Caches are never
// touched on failure.
func (s *GroupService) fail(err error, context string) error {
	s.set(NoticeError, context+": "+errMessage(err))
	return err
}
