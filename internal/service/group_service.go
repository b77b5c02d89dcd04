package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"yatube/internal/form"
	"yatube/internal/model"
	"yatube/internal/repository/orm"
)

// GroupService is used by the admin tool; groups are never created through the site.
type GroupService struct {
	repo *orm.GroupRepository
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{repo: &orm.GroupRepository{DB: db}}
}

type GroupInput struct {
	Title       string `form:"title" validate:"required,max=200"`
	Slug        string `form:"slug" validate:"required,max=50,slug"`
	Description string `form:"description" validate:"required"`
}

func (s *GroupService) Create(ctx context.Context, in *GroupInput) (*model.Group, error) {
	errs := form.Validate(in)
	if errs.Valid() {
		in.Slug = strings.ToLower(in.Slug)
		if _, err := s.repo.FindBySlug(ctx, in.Slug); err == nil {
			errs.Add("slug", "Group with this slug already exists.")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if err := invalid(errs); err != nil {
		return nil, err
	}
	g := &model.Group{
		Title:       in.Title,
		Slug:        in.Slug,
		Description: in.Description,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}
