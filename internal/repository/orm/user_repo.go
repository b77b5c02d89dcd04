package orm

import (
	"context"

	"yatube/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

// FindByLogin 登录时用户名或邮箱都可以
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("username = ? OR email = ?", login, login).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var usr model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&usr).Error
	return &usr, err
}

// Exists reports whether username or email is already taken, per field.
func (r *UserRepository) Exists(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	var n int64
	if err = r.DB.WithContext(ctx).Model(&model.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return
	}
	usernameTaken = n > 0
	if err = r.DB.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return
	}
	emailTaken = n > 0
	return
}

func (r *UserRepository) UpdatePassword(ctx context.Context, user *model.User, newPassword string) error {
	return r.DB.WithContext(ctx).Model(user).Update("password", newPassword).Error
}
