package model

import "gorm.io/gorm"

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindFile  MessageKind = "file"
	KindVideo MessageKind = "video"
	KindAudio MessageKind = "audio"
)

// Message is either direct (ReceiverID set) or group (GroupID set),
// never both. Rows are only ever soft deleted.
type Message struct {
	gorm.Model
	SenderID   uint        `gorm:"not null;index" json:"sender_id"`
	ReceiverID *uint       `gorm:"index" json:"receiver_id,omitempty"`
	GroupID    *uint       `gorm:"index" json:"group_id,omitempty"`
	Content    string      `json:"content"`
	Kind       MessageKind `gorm:"not null" json:"kind"`
	FileURL    string      `json:"file_url,omitempty"`
	Read       bool        `gorm:"not null;default:false" json:"read"`
	Edited     bool        `gorm:"not null;default:false" json:"edited"`
	Deleted    bool        `gorm:"not null;default:false" json:"deleted"`

	// Denormalized sender fields, filled on load.
	SenderName   string `gorm:"-" json:"sender_name,omitempty"`
	SenderAvatar string `gorm:"-" json:"sender_avatar,omitempty"`
}

func (m *Message) IsGroupMessage() bool {
	return m.GroupID != nil
}
