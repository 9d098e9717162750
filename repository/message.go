package repository

import (
	"context"
	"errors"

	"chat-service/apperr"
	"chat-service/model"

	"gorm.io/gorm"
)

// DeletedPlaceholder replaces the body of soft-deleted messages before
// they leave the server. Position and id are preserved.
const DeletedPlaceholder = "This message was deleted"

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *MessageRepository) ByID(ctx context.Context, id uint) (*model.Message, error) {
	msg := new(model.Message)
	err := r.db.WithContext(ctx).First(msg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	msgs := []model.Message{*msg}
	if err := r.hydrate(ctx, msgs); err != nil {
		return nil, err
	}
	return &msgs[0], nil
}

// Direct returns the page of messages between a and b selected newest
// first by offset/limit, reversed so the returned slice reads oldest
// first.
func (r *MessageRepository) Direct(ctx context.Context, a, b uint, limit, offset int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND group_id IS NULL",
			a, b, b, a).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	reverse(msgs)
	if err := r.hydrate(ctx, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *MessageRepository) Group(ctx context.Context, groupID uint, limit, offset int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	reverse(msgs)
	if err := r.hydrate(ctx, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead flips unread inbound messages from sender to receiver and
// reports how many rows changed.
func (r *MessageRepository) MarkRead(ctx context.Context, receiverID, senderID uint) (int, error) {
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND read = ?", receiverID, senderID, false).
		Update("read", true)
	return int(res.RowsAffected), res.Error
}

// MarkGroupRead flips unread group messages not sent by userID.
func (r *MessageRepository) MarkGroupRead(ctx context.Context, userID, groupID uint) (int, error) {
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("group_id = ? AND sender_id <> ? AND read = ?", groupID, userID, false).
		Update("read", true)
	return int(res.RowsAffected), res.Error
}

func (r *MessageRepository) UnreadCount(ctx context.Context, userID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("receiver_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return int(count), err
}

// Edit rewrites the body of a live message and marks it edited.
func (r *MessageRepository) Edit(ctx context.Context, id uint, content string) error {
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ? AND deleted = ?", id, false).
		Updates(map[string]any{"content": content, "edited": true})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrConflict
	}
	return nil
}

// SoftDelete flags the message deleted; the row stays.
func (r *MessageRepository) SoftDelete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrConflict
	}
	return nil
}

// hydrate fills denormalized sender fields with one batched user read and
// masks deleted bodies.
func (r *MessageRepository) hydrate(ctx context.Context, msgs []model.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	seen := make(map[uint]struct{}, len(msgs))
	ids := make([]uint, 0, len(msgs))
	for i := range msgs {
		if _, ok := seen[msgs[i].SenderID]; !ok {
			seen[msgs[i].SenderID] = struct{}{}
			ids = append(ids, msgs[i].SenderID)
		}
	}

	var senders []model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&senders).Error; err != nil {
		return err
	}
	byID := make(map[uint]*model.User, len(senders))
	for i := range senders {
		byID[senders[i].ID] = &senders[i]
	}

	for i := range msgs {
		if sender, ok := byID[msgs[i].SenderID]; ok {
			msgs[i].SenderName = sender.Username
			msgs[i].SenderAvatar = sender.AvatarURL
		}
		if msgs[i].Deleted {
			msgs[i].Content = DeletedPlaceholder
			msgs[i].FileURL = ""
		}
	}
	return nil
}

func reverse(msgs []model.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
