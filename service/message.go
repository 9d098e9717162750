package service

import (
	"context"
	"strings"

	"chat-service/apperr"
	"chat-service/event"
	"chat-service/model"
	"chat-service/repository"
)

const defaultPageSize = 50

// SendMessageInput carries one outgoing message. Exactly one of
// ReceiverID and GroupID must be set.
type SendMessageInput struct {
	SenderID   uint
	ReceiverID *uint
	GroupID    *uint
	Content    string
	Kind       model.MessageKind
	FileURL    string
}

// MessageService validates, persists and fans out chat messages.
type MessageService struct {
	messages    *repository.MessageRepository
	groups      *repository.GroupRepository
	friendships *FriendshipService
	bus         *event.Bus
}

func NewMessageService(messages *repository.MessageRepository, groups *repository.GroupRepository, friendships *FriendshipService, bus *event.Bus) *MessageService {
	return &MessageService{messages: messages, groups: groups, friendships: friendships, bus: bus}
}

// Send stores the message and pushes it to the conversation once the
// write committed.
func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (*model.Message, error) {
	if (in.ReceiverID == nil) == (in.GroupID == nil) {
		return nil, apperr.InvalidArgument("message needs exactly one of receiver_id and group_id")
	}
	switch in.Kind {
	case model.KindText:
		if strings.TrimSpace(in.Content) == "" {
			return nil, apperr.InvalidArgument("text message needs content")
		}
	case model.KindImage, model.KindFile, model.KindVideo, model.KindAudio:
		if in.FileURL == "" {
			return nil, apperr.InvalidArgument("attachment message needs a file url")
		}
	default:
		return nil, apperr.InvalidArgument("unknown message kind")
	}

	if in.ReceiverID != nil {
		if *in.ReceiverID == in.SenderID {
			return nil, apperr.InvalidArgument("cannot message yourself")
		}
		status, err := s.friendships.BlockStatus(ctx, in.SenderID, *in.ReceiverID)
		if err != nil {
			return nil, err
		}
		switch status {
		case model.BlockedByMe:
			return nil, apperr.Forbidden("you have blocked this user")
		case model.BlockedByOther:
			return nil, apperr.Forbidden("this user has blocked you")
		}
	} else {
		role, err := s.groups.Role(ctx, *in.GroupID, in.SenderID)
		if err != nil {
			return nil, err
		}
		if role == model.RoleNone {
			return nil, apperr.Forbidden("you are not a member of this group")
		}
	}

	msg := &model.Message{
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		GroupID:    in.GroupID,
		Content:    in.Content,
		Kind:       in.Kind,
		FileURL:    in.FileURL,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	msg, err := s.messages.ByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	s.bus.MessageCommitted(ctx, msg)
	return msg, nil
}

// ListDirect returns the conversation between userID and otherID in
// chronological order. A block in either direction hides the history.
func (s *MessageService) ListDirect(ctx context.Context, userID, otherID uint, limit, offset int) ([]model.Message, error) {
	blocked, err := s.friendships.IsBlocked(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return []model.Message{}, nil
	}
	return s.messages.Direct(ctx, userID, otherID, page(limit), offset)
}

// ListGroup returns group history. Members only.
func (s *MessageService) ListGroup(ctx context.Context, groupID, userID uint, limit, offset int) ([]model.Message, error) {
	role, err := s.groups.Role(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if role == model.RoleNone {
		return nil, apperr.Forbidden("you are not a member of this group")
	}
	return s.messages.Group(ctx, groupID, page(limit), offset)
}

// MarkAsRead flags every unread message from senderID to readerID and,
// when anything changed, tells the sender.
func (s *MessageService) MarkAsRead(ctx context.Context, readerID, senderID uint) (int, error) {
	n, err := s.messages.MarkRead(ctx, readerID, senderID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.bus.MessagesRead(readerID, senderID)
	}
	return n, nil
}

// MarkGroupRead flags group history as read for userID. No push; group
// read receipts are not surfaced.
func (s *MessageService) MarkGroupRead(ctx context.Context, userID, groupID uint) (int, error) {
	role, err := s.groups.Role(ctx, groupID, userID)
	if err != nil {
		return 0, err
	}
	if role == model.RoleNone {
		return 0, apperr.Forbidden("you are not a member of this group")
	}
	return s.messages.MarkGroupRead(ctx, userID, groupID)
}

func (s *MessageService) UnreadCount(ctx context.Context, userID uint) (int, error) {
	return s.messages.UnreadCount(ctx, userID)
}

// Edit replaces the content of a message. Sender only; deleted messages
// stay deleted.
func (s *MessageService) Edit(ctx context.Context, messageID, userID uint, content string) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.InvalidArgument("content is required")
	}
	msg, err := s.messages.ByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, apperr.Forbidden("only the sender can edit a message")
	}
	if err := s.messages.Edit(ctx, messageID, content); err != nil {
		return nil, err
	}
	msg, err = s.messages.ByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	s.bus.MessageEdited(ctx, msg)
	return msg, nil
}

// Delete soft-deletes a message, keeping the row as a placeholder.
func (s *MessageService) Delete(ctx context.Context, messageID, userID uint) error {
	msg, err := s.messages.ByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return apperr.Forbidden("only the sender can delete a message")
	}
	if err := s.messages.SoftDelete(ctx, messageID); err != nil {
		return err
	}
	s.bus.MessageDeleted(ctx, msg)
	return nil
}

func page(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	return limit
}
