package model

import (
	"time"

	"gorm.io/gorm"
)

type UserStatus string

const (
	StatusOnline  UserStatus = "online"
	StatusOffline UserStatus = "offline"
	StatusAway    UserStatus = "away"
	StatusBusy    UserStatus = "busy"
)

// User struct
type User struct {
	gorm.Model
	Username  string     `gorm:"uniqueIndex;not null" json:"username"`
	Email     string     `gorm:"uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"not null" json:"-"`
	FullName  string     `json:"full_name"`
	AvatarURL string     `json:"avatar_url"`
	Role      string     `json:"role"`
	Status    UserStatus `gorm:"not null;default:offline" json:"status"`
	LastSeen  *time.Time `json:"last_seen"`

	Otp_enabled bool   `gorm:"default:false;" json:"-"`
	Otp_secret  string `json:"-"`
}
