package repo

import (
	"context"
	"errors"

	"github.com/iceymoss/go-blog/pkg/db/objects"

	"gorm.io/gorm"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByUsername 按用户名取用户，不存在返回 (nil, nil)
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*objects.User, error) {
	var u objects.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Count 用户总数，第一个注册的用户会成为管理员
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&objects.User{}).Count(&n).Error
	return n, err
}

func (r *UserRepo) Create(ctx context.Context, u *objects.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}
