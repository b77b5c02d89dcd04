package orm

import (
	"context"

	"yatube/internal/model"

	"gorm.io/gorm"
)

type GroupRepository struct {
	DB *gorm.DB
}

func (r *GroupRepository) Create(ctx context.Context, g *model.Group) error {
	return r.DB.WithContext(ctx).Create(g).Error
}

func (r *GroupRepository) FindByID(ctx context.Context, id uint64) (*model.Group, error) {
	var group model.Group
	err := r.DB.WithContext(ctx).First(&group, id).Error
	return &group, err
}

func (r *GroupRepository) FindBySlug(ctx context.Context, slug string) (*model.Group, error) {
	var group model.Group
	err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&group).Error
	return &group, err
}

// List returns every group, used to fill the group choice of the post form.
func (r *GroupRepository) List(ctx context.Context) ([]model.Group, error) {
	var list []model.Group
	err := r.DB.WithContext(ctx).Order("title asc, id asc").Find(&list).Error
	return list, err
}
