package handler

import (
	"time"

	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/storage"
)

type userView struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

type groupView struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

type postView struct {
	ID        uint64     `json:"id"`
	Text      string     `json:"text"`
	Preview   string     `json:"preview"`
	CreatedAt time.Time  `json:"created_at"`
	Author    userView   `json:"author"`
	Group     *groupView `json:"group,omitempty"`
	Image     string     `json:"image,omitempty"`
}

type commentView struct {
	ID        uint64    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Author    userView  `json:"author"`
}

type pageView struct {
	Items       []postView `json:"items"`
	Number      int        `json:"number"`
	NumPages    int        `json:"num_pages"`
	Total       int64      `json:"total"`
	HasNext     bool       `json:"has_next"`
	HasPrevious bool       `json:"has_previous"`
}

// formField describes one input of a form for GET requests.
type formField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Value    string   `json:"value,omitempty"`
	Choices  []choice `json:"choices,omitempty"`
}

type choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func newUserView(u *model.User) userView {
	return userView{Username: u.Username, FullName: u.FullName()}
}

func newGroupView(g *model.Group) *groupView {
	if g == nil {
		return nil
	}
	return &groupView{ID: g.ID, Title: g.Title, Slug: g.Slug, Description: g.Description}
}

func newPostView(p *model.Post, blobs storage.BlobStore) postView {
	v := postView{
		ID:        p.ID,
		Text:      p.Text,
		Preview:   p.TextPreview(),
		CreatedAt: p.CreatedAt,
		Author:    newUserView(&p.Author),
		Group:     newGroupView(p.Group),
	}
	if p.Image != "" {
		v.Image = blobs.URL(p.Image)
	}
	return v
}

func newPageView(page *pkg.Page[model.Post], blobs storage.BlobStore) pageView {
	items := make([]postView, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, newPostView(&page.Items[i], blobs))
	}
	return pageView{
		Items:       items,
		Number:      page.Number,
		NumPages:    page.NumPages,
		Total:       page.Total,
		HasNext:     page.HasNext,
		HasPrevious: page.HasPrevious,
	}
}

func newCommentViews(comments []model.Comment) []commentView {
	out := make([]commentView, 0, len(comments))
	for i := range comments {
		c := &comments[i]
		out = append(out, commentView{ID: c.ID, Text: c.Text, CreatedAt: c.CreatedAt, Author: newUserView(&c.Author)})
	}
	return out
}
