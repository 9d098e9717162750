package model

import (
	"time"

	"gorm.io/gorm"
)

type GroupRole string

const (
	RoleAdmin  GroupRole = "admin"
	RoleMember GroupRole = "member"
	RoleNone   GroupRole = "none"
)

type Group struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url"`
	CreatedBy   uint   `gorm:"not null" json:"created_by"`

	// Filled on load, not stored.
	CreatorName string `gorm:"-" json:"creator_name,omitempty"`
	MemberCount int    `gorm:"-" json:"member_count,omitempty"`
}

type GroupMember struct {
	gorm.Model
	GroupID  uint      `gorm:"not null;uniqueIndex:idx_group_member" json:"group_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_group_member" json:"user_id"`
	Role     GroupRole `gorm:"not null" json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
