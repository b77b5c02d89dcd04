package model

import "time"

// Follow is a directed edge: UserID receives AuthorID's posts in the follow feed.
// The (user_id, author_id) pair is unique at the storage level.
type Follow struct {
	ID       uint64 `gorm:"primaryKey"`
	UserID   uint64 `gorm:"not null;uniqueIndex:uk_follow_user_author,priority:1"`
	User     User   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	AuthorID uint64 `gorm:"not null;uniqueIndex:uk_follow_user_author,priority:2;index:idx_follow_author"`
	Author   User   `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName sets table name for Follow
func (Follow) TableName() string {
	return "follow"
}

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// SocialOutbox 关注事件 outbox 表，和关注关系在同一事务内写入
type SocialOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:16;not null"` // follow / unfollow
	Follower  uint64 `gorm:"not null"`
	Followee  uint64 `gorm:"not null"`
	Payload   string `gorm:"type:text;not null"`
	Status    int8   `gorm:"not null;default:0;index"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SocialOutbox) TableName() string { return "social_outbox" }
