package orm

import (
	"context"

	"yatube/internal/model"
	"yatube/internal/pkg"

	"gorm.io/gorm"
)

// newestFirst is the ordering of every post listing; id breaks timestamp ties.
const newestFirst = "created_at DESC, id DESC"

type PostRepository struct {
	DB *gorm.DB
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Create(post).Error
}

func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).Preload("Author").Preload("Group").First(&post, id).Error
	return &post, err
}

// UpdateContent 只更新可编辑字段，created_at 和 author_id 永远不动
func (r *PostRepository) UpdateContent(ctx context.Context, id uint64, text string, groupID *uint64, image string) error {
	return r.DB.WithContext(ctx).Model(&model.Post{ID: id}).
		Select("Text", "GroupID", "Image").
		Updates(model.Post{Text: text, GroupID: groupID, Image: image}).Error
}

func (r *PostRepository) CountByAuthor(ctx context.Context, authorID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Post{}).Where("author_id = ?", authorID).Count(&n).Error
	return n, err
}

// ListAll 首页：全部帖子
func (r *PostRepository) ListAll(ctx context.Context, rawPage string, size int) (*pkg.Page[model.Post], error) {
	return r.list(ctx, func(q *gorm.DB) *gorm.DB { return q }, rawPage, size)
}

func (r *PostRepository) ListByGroup(ctx context.Context, groupID uint64, rawPage string, size int) (*pkg.Page[model.Post], error) {
	return r.list(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("group_id = ?", groupID)
	}, rawPage, size)
}

func (r *PostRepository) ListByAuthor(ctx context.Context, authorID uint64, rawPage string, size int) (*pkg.Page[model.Post], error) {
	return r.list(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("author_id = ?", authorID)
	}, rawPage, size)
}

// ListFollowed 关注流：作者被 userID 关注的帖子
func (r *PostRepository) ListFollowed(ctx context.Context, userID uint64, rawPage string, size int) (*pkg.Page[model.Post], error) {
	authors := r.DB.Model(&model.Follow{}).Select("author_id").Where("user_id = ?", userID)
	return r.list(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("author_id IN (?)", authors)
	}, rawPage, size)
}

func (r *PostRepository) list(ctx context.Context, filter func(*gorm.DB) *gorm.DB, rawPage string, size int) (*pkg.Page[model.Post], error) {
	base := func() *gorm.DB {
		return filter(r.DB.WithContext(ctx).Model(&model.Post{}))
	}
	return Paginate[model.Post](base, newestFirst, rawPage, size, "Author", "Group")
}
