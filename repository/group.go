package repository

import (
	"context"
	"errors"
	"time"

	"chat-service/apperr"
	"chat-service/model"

	"gorm.io/gorm"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts the group and its creator as admin in one transaction.
func (r *GroupRepository) Create(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		member := &model.GroupMember{
			GroupID:  group.ID,
			UserID:   group.CreatedBy,
			Role:     model.RoleAdmin,
			JoinedAt: time.Now(),
		}
		return tx.Create(member).Error
	})
}

func (r *GroupRepository) ByID(ctx context.Context, id uint) (*model.Group, error) {
	group := new(model.Group)
	err := r.db.WithContext(ctx).First(group, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	creator := new(model.User)
	if err := r.db.WithContext(ctx).First(creator, group.CreatedBy).Error; err == nil {
		group.CreatorName = creator.Username
	}
	count, err := r.MemberCount(ctx, id)
	if err != nil {
		return nil, err
	}
	group.MemberCount = count
	return group, nil
}

func (r *GroupRepository) ForUser(ctx context.Context, userID uint) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.WithContext(ctx).
		Joins("INNER JOIN group_members gm ON gm.group_id = groups.id AND gm.deleted_at IS NULL").
		Where("gm.user_id = ?", userID).
		Order("groups.updated_at DESC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	for i := range groups {
		count, err := r.MemberCount(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].MemberCount = count
	}
	return groups, nil
}

func (r *GroupRepository) Save(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).Save(group).Error
}

// Delete removes the group and its memberships. Messages keep their rows
// per the soft-delete-only rule for message history.
func (r *GroupRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("group_id = ?", id).Delete(&model.GroupMember{}).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Delete(&model.Group{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
}

func (r *GroupRepository) Members(ctx context.Context, groupID uint) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Joins("INNER JOIN group_members gm ON gm.user_id = users.id AND gm.deleted_at IS NULL").
		Where("gm.group_id = ?", groupID).
		Order("users.username").
		Find(&users).Error
	return users, err
}

// MemberIDs returns the member user ids for fan-out target lists.
func (r *GroupRepository) MemberIDs(ctx context.Context, groupID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// Role returns the member's role, or RoleNone.
func (r *GroupRepository) Role(ctx context.Context, groupID, userID uint) (model.GroupRole, error) {
	member := new(model.GroupMember)
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.RoleNone, nil
		}
		return model.RoleNone, err
	}
	return member.Role, nil
}

func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID uint, role model.GroupRole) error {
	member := &model.GroupMember{
		GroupID:  groupID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).Create(member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID uint) error {
	res := r.db.WithContext(ctx).Unscoped().
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&model.GroupMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *GroupRepository) SetRole(ctx context.Context, groupID, userID uint, role model.GroupRole) error {
	res := r.db.WithContext(ctx).Model(&model.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *GroupRepository) MemberCount(ctx context.Context, groupID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.GroupMember{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return int(count), err
}

func (r *GroupRepository) AdminCount(ctx context.Context, groupID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.GroupMember{}).
		Where("group_id = ? AND role = ?", groupID, model.RoleAdmin).
		Count(&count).Error
	return int(count), err
}
