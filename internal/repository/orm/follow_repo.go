package orm

import (
	"context"
	"encoding/json"
	"time"

	"yatube/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowRepository struct {
	DB *gorm.DB
}

type OutboxRepository struct {
	DB *gorm.DB
}

// Follow 幂等关注：唯一索引 (user_id, author_id) + ON CONFLICT DO NOTHING 保证并发下不会出现重复边。
// 只有真正插入了新边才返回 created=true，并在同一事务里写 outbox。
func (r *FollowRepository) Follow(ctx context.Context, userID, authorID uint64) (bool, error) {
	var created bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "author_id"}},
			DoNothing: true,
		}).Create(&model.Follow{UserID: userID, AuthorID: authorID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return r.insertOutbox(tx, "follow", userID, authorID)
	})
	return created, err
}

// Unfollow 删除关注边，没有这条边时 removed=false
func (r *FollowRepository) Unfollow(ctx context.Context, userID, authorID uint64) (bool, error) {
	var removed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&model.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return r.insertOutbox(tx, "unfollow", userID, authorID)
	})
	return removed, err
}

// IsFollowing 判断是否关注
func (r *FollowRepository) IsFollowing(ctx context.Context, userID, authorID uint64) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).
		Model(&model.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// 插入outbox事件表
func (r *FollowRepository) insertOutbox(tx *gorm.DB, event string, follower, followee uint64) error {
	payload, err := json.Marshal(map[string]any{
		"event":      event,
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"follower":   follower,
		"followee":   followee,
	})
	if err != nil {
		return err
	}
	ob := &model.SocialOutbox{
		EventType: event,
		Follower:  follower,
		Followee:  followee,
		Payload:   string(payload),
		Status:    model.OutboxPending,
	}
	return tx.Create(ob).Error
}

// MaxOutboxRetry 超过后不再投递，留给人工处理
const MaxOutboxRetry = 5

// List 待投递和可重试的 outbox 记录，按写入顺序
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.SocialOutbox, error) {
	var list []model.SocialOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, MaxOutboxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate outbox记录消息失败重试
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.SocialOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

// SuccessUpdate outbox成功记录消息更新
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.SocialOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}
