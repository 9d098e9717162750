// Package event translates committed domain events into pushes through
// the subscription registry and best-effort RabbitMQ publications.
package event

import (
	"context"
	"encoding/json"
	"strconv"

	"chat-service/model"
	"chat-service/registry"
)

// Socket event names pushed to subscribers.
const (
	EventMessage        = "chat_message"
	EventMessageEdited  = "chat_message_edited"
	EventMessageDeleted = "chat_message_deleted"
	EventMessagesRead   = "chat_messages_read"
	EventUserStatus     = "user_status"
	EventGroupJoined    = "group_user_joined"
	EventGroupLeft      = "group_user_left"
	EventFriendRequest  = "friend_request"
	EventFundsReceived  = "funds_received"
)

// Subject keys a user in the subscription registry. It matches the
// socket.io room name a client joins after authenticating.
func Subject(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

type StatusPayload struct {
	UserID uint             `json:"user_id"`
	Status model.UserStatus `json:"status"`
}

type ReadPayload struct {
	ReaderID uint `json:"reader_id"`
	SenderID uint `json:"sender_id"`
}

type GroupJoinedPayload struct {
	GroupID uint        `json:"group_id"`
	User    *model.User `json:"user"`
}

type GroupLeftPayload struct {
	GroupID uint `json:"group_id"`
	UserID  uint `json:"user_id"`
}

type MessageDeletedPayload struct {
	MessageID uint `json:"message_id"`
}

// MemberLister materializes group fan-out target lists.
type MemberLister interface {
	MemberIDs(ctx context.Context, groupID uint) ([]uint, error)
}

// Bus owns the registry handle. All methods are called from the
// committing goroutine after the write succeeded, push sequentially and
// never hold domain or persistence locks. Push failures stay silent; the
// registry evicts the dead handle.
type Bus struct {
	reg    *registry.Registry
	groups MemberLister
}

func NewBus(reg *registry.Registry, groups MemberLister) *Bus {
	return &Bus{reg: reg, groups: groups}
}

func (b *Bus) Registry() *registry.Registry {
	return b.reg
}

// MessageCommitted fans a stored message out to its conversation. Direct
// messages go to the receiver and back to the sender so the sender's
// other sessions observe their own send; group messages go to every
// current member, the sender included.
func (b *Bus) MessageCommitted(ctx context.Context, msg *model.Message) {
	b.fanOutMessage(ctx, EventMessage, msg, msg)
	b.publish("message.committed", msg)
}

func (b *Bus) MessageEdited(ctx context.Context, msg *model.Message) {
	b.fanOutMessage(ctx, EventMessageEdited, msg, msg)
	b.publish("message.edited", msg)
}

func (b *Bus) MessageDeleted(ctx context.Context, msg *model.Message) {
	payload := MessageDeletedPayload{MessageID: msg.ID}
	b.fanOutMessage(ctx, EventMessageDeleted, msg, payload)
	b.publish("message.deleted", payload)
}

// MessagesRead notifies the original sender that their messages were read.
func (b *Bus) MessagesRead(readerID, senderID uint) {
	payload := ReadPayload{ReaderID: readerID, SenderID: senderID}
	b.reg.Push(Subject(senderID), EventMessagesRead, payload)
	b.publish("messages.read", payload)
}

// UserStatusChanged goes to every registered subscriber.
func (b *Bus) UserStatusChanged(userID uint, status model.UserStatus) {
	payload := StatusPayload{UserID: userID, Status: status}
	b.reg.Broadcast(EventUserStatus, payload, nil)
	b.publish("user.status", payload)
}

func (b *Bus) UserJoinedGroup(ctx context.Context, groupID uint, user *model.User) {
	payload := GroupJoinedPayload{GroupID: groupID, User: user}
	b.pushToGroup(ctx, groupID, EventGroupJoined, payload)
	b.publish("group.membership", payload)
}

// UserLeftGroup notifies the remaining members and the removed user
// themselves so their view can drop the group.
func (b *Bus) UserLeftGroup(ctx context.Context, groupID, userID uint) {
	payload := GroupLeftPayload{GroupID: groupID, UserID: userID}
	b.pushToGroup(ctx, groupID, EventGroupLeft, payload)
	b.reg.Push(Subject(userID), EventGroupLeft, payload)
	b.publish("group.membership", payload)
}

// FriendRequestCreated goes to the recipient only.
func (b *Bus) FriendRequestCreated(f *model.Friendship) {
	b.reg.Push(Subject(f.Other(f.RequesterID)), EventFriendRequest, f)
	b.publish("friend.request", f)
}

func (b *Bus) fanOutMessage(ctx context.Context, eventName string, msg *model.Message, payload any) {
	if msg.IsGroupMessage() {
		b.pushToGroup(ctx, *msg.GroupID, eventName, payload)
		return
	}
	if msg.ReceiverID != nil && *msg.ReceiverID != msg.SenderID {
		b.reg.Push(Subject(*msg.ReceiverID), eventName, payload)
	}
	b.reg.Push(Subject(msg.SenderID), eventName, payload)
}

func (b *Bus) pushToGroup(ctx context.Context, groupID uint, eventName string, payload any) {
	ids, err := b.groups.MemberIDs(ctx, groupID)
	if err != nil {
		return
	}
	for _, id := range ids {
		b.reg.Push(Subject(id), eventName, payload)
	}
}

// publish mirrors the event onto the RabbitMQ events queue for external
// consumers. Best-effort: a missing broker or marshal failure is ignored.
func (b *Bus) publish(action string, payload any) {
	if !RabbitMQReady() {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	Emit(EventsQueue, action, data, true)
}
