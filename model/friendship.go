package model

import "gorm.io/gorm"

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipBlocked  FriendshipStatus = "blocked"
)

// BlockStatus is reported relative to a viewer.
type BlockStatus string

const (
	BlockNone      BlockStatus = "none"
	BlockedByMe    BlockStatus = "blocked_by_me"
	BlockedByOther BlockStatus = "blocked_by_other"
)

// Friendship holds at most one row per unordered user pair. The pair is
// normalized so UserLowID < UserHighID; RequesterID is the user who sent
// the request, or the blocker once Status is blocked.
type Friendship struct {
	gorm.Model
	UserLowID   uint             `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"user_low_id"`
	UserHighID  uint             `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"user_high_id"`
	RequesterID uint             `gorm:"not null" json:"requester_id"`
	Status      FriendshipStatus `gorm:"not null" json:"status"`
}

// Other returns the counterpart of userID in the pair.
func (f *Friendship) Other(userID uint) uint {
	if f.UserLowID == userID {
		return f.UserHighID
	}
	return f.UserLowID
}

// Involves reports whether userID is one side of the pair.
func (f *Friendship) Involves(userID uint) bool {
	return f.UserLowID == userID || f.UserHighID == userID
}

// NormalizePair orders two user ids as (low, high).
func NormalizePair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}
