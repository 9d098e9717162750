package repository

import (
	"context"
	"errors"
	"time"

	"chat-service/apperr"
	"chat-service/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user. Username/email uniqueness is enforced by the
// unique indexes, so the check-and-insert is atomic.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.ErrDuplicateIdentity
		}
		return err
	}
	return nil
}

func (r *UserRepository) ByID(ctx context.Context, id uint) (*model.User, error) {
	user := new(model.User)
	err := r.db.WithContext(ctx).First(user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) ByUsername(ctx context.Context, username string) (*model.User, error) {
	user := new(model.User)
	err := r.db.WithContext(ctx).Where(&model.User{Username: username}).First(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	user := new(model.User)
	err := r.db.WithContext(ctx).Where(&model.User{Email: email}).First(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) Search(ctx context.Context, keyword string) ([]model.User, error) {
	var users []model.User
	pattern := "%" + keyword + "%"
	err := r.db.WithContext(ctx).
		Where("username LIKE ? OR full_name LIKE ?", pattern, pattern).
		Order("username").
		Find(&users).Error
	return users, err
}

func (r *UserRepository) All(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Order("username").Find(&users).Error
	return users, err
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id uint, status model.UserStatus) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "last_seen": &now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hashed string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("password", hashed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}
