package service

import (
	"context"
	"errors"

	"chat-service/apperr"
	"chat-service/event"
	"chat-service/model"
	"chat-service/repository"
)

// FriendshipService mediates the relationship lifecycle between user
// pairs: request, accept, reject, remove, block and unblock.
type FriendshipService struct {
	friendships *repository.FriendshipRepository
	users       *repository.UserRepository
	bus         *event.Bus
}

func NewFriendshipService(friendships *repository.FriendshipRepository, users *repository.UserRepository, bus *event.Bus) *FriendshipService {
	return &FriendshipService{friendships: friendships, users: users, bus: bus}
}

// SendRequest creates a pending friendship from requester to target and
// notifies the target. Any existing row for the pair, whatever its
// state, makes the request fail.
func (s *FriendshipService) SendRequest(ctx context.Context, requesterID, targetID uint) (*model.Friendship, error) {
	if requesterID == targetID {
		return nil, apperr.InvalidArgument("cannot send a friend request to yourself")
	}
	if _, err := s.users.ByID(ctx, targetID); err != nil {
		return nil, err
	}

	low, high := model.NormalizePair(requesterID, targetID)
	f := &model.Friendship{
		UserLowID:   low,
		UserHighID:  high,
		RequesterID: requesterID,
		Status:      model.FriendshipPending,
	}
	if err := s.friendships.Create(ctx, f); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("a relationship with this user already exists")
		}
		return nil, err
	}

	s.bus.FriendRequestCreated(f)
	return f, nil
}

// Accept marks a pending request as accepted. Only the recipient may
// accept; the requester accepting their own request is forbidden.
func (s *FriendshipService) Accept(ctx context.Context, friendshipID, userID uint) (*model.Friendship, error) {
	f, err := s.pendingFor(ctx, friendshipID, userID)
	if err != nil {
		return nil, err
	}
	f.Status = model.FriendshipAccepted
	if err := s.friendships.Save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Reject drops a pending request. Only the recipient may reject.
func (s *FriendshipService) Reject(ctx context.Context, friendshipID, userID uint) error {
	f, err := s.pendingFor(ctx, friendshipID, userID)
	if err != nil {
		return err
	}
	return s.friendships.Delete(ctx, f.ID)
}

func (s *FriendshipService) pendingFor(ctx context.Context, friendshipID, userID uint) (*model.Friendship, error) {
	f, err := s.friendships.ByID(ctx, friendshipID)
	if err != nil {
		return nil, err
	}
	if !f.Involves(userID) || f.RequesterID == userID {
		return nil, apperr.Forbidden("this request is not addressed to you")
	}
	if f.Status != model.FriendshipPending {
		return nil, apperr.Conflict("request is no longer pending")
	}
	return f, nil
}

// RemoveFriend deletes an accepted friendship. Either side may remove.
func (s *FriendshipService) RemoveFriend(ctx context.Context, userID, otherID uint) error {
	f, err := s.friendships.ByPair(ctx, userID, otherID)
	if err != nil {
		return err
	}
	if f.Status != model.FriendshipAccepted {
		return apperr.Conflict("users are not friends")
	}
	return s.friendships.Delete(ctx, f.ID)
}

// Block records blocker blocking other, replacing any prior relationship
// between the pair. Blocking is idempotent with respect to an existing
// block by the same user.
func (s *FriendshipService) Block(ctx context.Context, blockerID, otherID uint) error {
	if blockerID == otherID {
		return apperr.InvalidArgument("cannot block yourself")
	}
	if _, err := s.users.ByID(ctx, otherID); err != nil {
		return err
	}
	return s.friendships.Block(ctx, blockerID, otherID)
}

// Unblock removes a block. Only the user who placed it may lift it.
func (s *FriendshipService) Unblock(ctx context.Context, userID, otherID uint) error {
	f, err := s.friendships.ByPair(ctx, userID, otherID)
	if err != nil {
		return err
	}
	if f.Status != model.FriendshipBlocked {
		return apperr.Conflict("user is not blocked")
	}
	if f.RequesterID != userID {
		return apperr.Forbidden("only the blocking user can unblock")
	}
	return s.friendships.Delete(ctx, f.ID)
}

// IsBlocked reports whether a block exists between the pair, in either
// direction.
func (s *FriendshipService) IsBlocked(ctx context.Context, a, b uint) (bool, error) {
	f, err := s.friendships.ByPair(ctx, a, b)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return f.Status == model.FriendshipBlocked, nil
}

// BlockStatus reports the block relation from viewer's perspective.
func (s *FriendshipService) BlockStatus(ctx context.Context, viewerID, otherID uint) (model.BlockStatus, error) {
	f, err := s.friendships.ByPair(ctx, viewerID, otherID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.BlockNone, nil
		}
		return model.BlockNone, err
	}
	if f.Status != model.FriendshipBlocked {
		return model.BlockNone, nil
	}
	if f.RequesterID == viewerID {
		return model.BlockedByMe, nil
	}
	return model.BlockedByOther, nil
}

// Requests lists the pending requests addressed to userID.
func (s *FriendshipService) Requests(ctx context.Context, userID uint) ([]model.Friendship, error) {
	return s.friendships.PendingFor(ctx, userID)
}

// Friends resolves the accepted friendships of userID into the
// counterpart user records.
func (s *FriendshipService) Friends(ctx context.Context, userID uint) ([]model.User, error) {
	rows, err := s.friendships.AcceptedFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	friends := make([]model.User, 0, len(rows))
	for _, f := range rows {
		user, err := s.users.ByID(ctx, f.Other(userID))
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return nil, err
		}
		friends = append(friends, *user)
	}
	return friends, nil
}
