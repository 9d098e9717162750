package service

import (
	"context"
	"errors"
	"strings"

	"chat-service/apperr"
	"chat-service/event"
	"chat-service/model"
	"chat-service/repository"
)

// GroupService enforces group membership and role rules on top of the
// group repository and announces membership changes on the bus.
type GroupService struct {
	groups *repository.GroupRepository
	users  *repository.UserRepository
	bus    *event.Bus
}

func NewGroupService(groups *repository.GroupRepository, users *repository.UserRepository, bus *event.Bus) *GroupService {
	return &GroupService{groups: groups, users: users, bus: bus}
}

// Create stores a new group with the creator as its first admin member.
func (s *GroupService) Create(ctx context.Context, creatorID uint, name, description, avatarURL string) (*model.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidArgument("group name is required")
	}
	group := &model.Group{
		Name:        name,
		Description: description,
		AvatarURL:   avatarURL,
		CreatedBy:   creatorID,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}
	return s.groups.ByID(ctx, group.ID)
}

// UpdateDetails changes name, description or avatar. Admin only.
func (s *GroupService) UpdateDetails(ctx context.Context, groupID, actorID uint, name, description, avatarURL string) (*model.Group, error) {
	group, err := s.requireAdmin(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		group.Name = name
	}
	if description != "" {
		group.Description = description
	}
	if avatarURL != "" {
		group.AvatarURL = avatarURL
	}
	if err := s.groups.Save(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// AddMember lets an admin add a user to the group.
func (s *GroupService) AddMember(ctx context.Context, groupID, actorID, userID uint) error {
	if _, err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return err
	}
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.groups.AddMember(ctx, groupID, userID, model.RoleMember); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return apperr.Conflict("user is already a member")
		}
		return err
	}
	s.bus.UserJoinedGroup(ctx, groupID, user)
	return nil
}

// RemoveMember drops a member. Admins can remove anyone; a member can
// remove only themselves (leave). The last admin cannot leave while
// other members remain.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, actorID, userID uint) error {
	if _, err := s.groups.ByID(ctx, groupID); err != nil {
		return err
	}
	role, err := s.groups.Role(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if role != model.RoleAdmin && actorID != userID {
		return apperr.Forbidden("only admins can remove other members")
	}
	if role == model.RoleNone {
		return apperr.Forbidden("you are not a member of this group")
	}

	targetRole, err := s.groups.Role(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if targetRole == model.RoleAdmin {
		admins, err := s.groups.AdminCount(ctx, groupID)
		if err != nil {
			return err
		}
		members, err := s.groups.MemberCount(ctx, groupID)
		if err != nil {
			return err
		}
		if admins <= 1 && members > 1 {
			return apperr.Conflict("promote another admin before leaving")
		}
	}

	if err := s.groups.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}
	s.bus.UserLeftGroup(ctx, groupID, userID)
	return nil
}

// Delete removes a group. Only an admin may delete, and only once every
// other member has left.
func (s *GroupService) Delete(ctx context.Context, groupID, actorID uint) error {
	if _, err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return err
	}
	count, err := s.groups.MemberCount(ctx, groupID)
	if err != nil {
		return err
	}
	if count > 1 {
		return apperr.Conflict("group still has members")
	}
	return s.groups.Delete(ctx, groupID)
}

// SetRole promotes or demotes a member. Admin only; demoting the sole
// admin is rejected.
func (s *GroupService) SetRole(ctx context.Context, groupID, actorID, userID uint, role model.GroupRole) error {
	if role != model.RoleAdmin && role != model.RoleMember {
		return apperr.InvalidArgument("unknown role")
	}
	if _, err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return err
	}
	current, err := s.groups.Role(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if current == model.RoleNone {
		return apperr.ErrNotFound
	}
	if current == model.RoleAdmin && role == model.RoleMember {
		admins, err := s.groups.AdminCount(ctx, groupID)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return apperr.Conflict("group must keep at least one admin")
		}
	}
	return s.groups.SetRole(ctx, groupID, userID, role)
}

func (s *GroupService) ByID(ctx context.Context, groupID uint) (*model.Group, error) {
	return s.groups.ByID(ctx, groupID)
}

func (s *GroupService) ForUser(ctx context.Context, userID uint) ([]model.Group, error) {
	return s.groups.ForUser(ctx, userID)
}

// Members lists group members. Members only.
func (s *GroupService) Members(ctx context.Context, groupID, actorID uint) ([]model.User, error) {
	role, err := s.groups.Role(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if role == model.RoleNone {
		return nil, apperr.Forbidden("you are not a member of this group")
	}
	return s.groups.Members(ctx, groupID)
}

func (s *GroupService) Role(ctx context.Context, groupID, userID uint) (model.GroupRole, error) {
	return s.groups.Role(ctx, groupID, userID)
}

func (s *GroupService) requireAdmin(ctx context.Context, groupID, actorID uint) (*model.Group, error) {
	group, err := s.groups.ByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	role, err := s.groups.Role(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin {
		return nil, apperr.Forbidden("admin role required")
	}
	return group, nil
}
