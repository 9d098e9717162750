package repository

import (
	"context"
	"errors"

	"chat-service/apperr"
	"chat-service/model"

	"gorm.io/gorm"
)

type FriendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// Create inserts a row for the normalized pair. The unique index over
// (user_low_id, user_high_id) makes a duplicate insert fail atomically.
func (r *FriendshipRepository) Create(ctx context.Context, f *model.Friendship) error {
	err := r.db.WithContext(ctx).Create(f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *FriendshipRepository) ByID(ctx context.Context, id uint) (*model.Friendship, error) {
	f := new(model.Friendship)
	err := r.db.WithContext(ctx).First(f, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// ByPair returns the row for the unordered pair (a, b), or ErrNotFound.
func (r *FriendshipRepository) ByPair(ctx context.Context, a, b uint) (*model.Friendship, error) {
	low, high := model.NormalizePair(a, b)
	f := new(model.Friendship)
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (r *FriendshipRepository) Save(ctx context.Context, f *model.Friendship) error {
	return r.db.WithContext(ctx).Save(f).Error
}

// Delete removes the row for good. Hard delete so the pair's unique index
// allows a later re-request.
func (r *FriendshipRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Unscoped().Delete(&model.Friendship{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Block replaces whatever relationship exists for the pair with a blocked
// row owned by blocker, in one transaction.
func (r *FriendshipRepository) Block(ctx context.Context, blocker, other uint) error {
	low, high := model.NormalizePair(blocker, other)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f := new(model.Friendship)
		err := tx.Where("user_low_id = ? AND user_high_id = ?", low, high).First(f).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			f = &model.Friendship{
				UserLowID:   low,
				UserHighID:  high,
				RequesterID: blocker,
				Status:      model.FriendshipBlocked,
			}
			return tx.Create(f).Error
		}
		f.Status = model.FriendshipBlocked
		f.RequesterID = blocker
		return tx.Save(f).Error
	})
}

// PendingFor lists friend requests addressed to userID.
func (r *FriendshipRepository) PendingFor(ctx context.Context, userID uint) ([]model.Friendship, error) {
	var rows []model.Friendship
	err := r.db.WithContext(ctx).
		Where("status = ? AND (user_low_id = ? OR user_high_id = ?) AND requester_id <> ?",
			model.FriendshipPending, userID, userID, userID).
		Find(&rows).Error
	return rows, err
}

// AcceptedFor lists accepted friendships involving userID.
func (r *FriendshipRepository) AcceptedFor(ctx context.Context, userID uint) ([]model.Friendship, error) {
	var rows []model.Friendship
	err := r.db.WithContext(ctx).
		Where("status = ? AND (user_low_id = ? OR user_high_id = ?)",
			model.FriendshipAccepted, userID, userID).
		Find(&rows).Error
	return rows, err
}
