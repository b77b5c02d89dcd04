package model

import "time"

type Post struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index:idx_post_created,sort:desc" json:"created_at"`
	AuthorID  uint64    `gorm:"not null;index:idx_post_author" json:"-"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"author"`
	GroupID   *uint64   `gorm:"index:idx_post_group" json:"-"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"group"`
	Image     string    `gorm:"size:255" json:"image"`
}

// TextPreview is how a post is shown in lists and logs.
func (p *Post) TextPreview() string {
	const n = 15
	r := []rune(p.Text)
	if len(r) <= n {
		return p.Text
	}
	return string(r[:n])
}
