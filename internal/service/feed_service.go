package service

import (
	"context"

	"gorm.io/gorm"

	"yatube/internal/access"
	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository/orm"
)

// FeedService builds the paginated, newest-first post listings.
type FeedService struct {
	posts   *orm.PostRepository
	groups  *orm.GroupRepository
	users   *orm.UserRepository
	follows *FollowService
}

func NewFeedService(db *gorm.DB, follows *FollowService) *FeedService {
	return &FeedService{
		posts:   &orm.PostRepository{DB: db},
		groups:  &orm.GroupRepository{DB: db},
		users:   &orm.UserRepository{DB: db},
		follows: follows,
	}
}

type GroupFeed struct {
	Group *model.Group
	Page  *pkg.Page[model.Post]
}

type ProfileFeed struct {
	Author *model.User
	Page   *pkg.Page[model.Post]
	// Following is whether the viewer follows Author; false for anonymous viewers.
	Following bool
}

func (s *FeedService) Home(ctx context.Context, rawPage string) (*pkg.Page[model.Post], error) {
	return s.posts.ListAll(ctx, rawPage, pkg.PostsPerPage)
}

func (s *FeedService) Group(ctx context.Context, slug, rawPage string) (*GroupFeed, error) {
	group, err := s.groups.FindBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err)
	}
	page, err := s.posts.ListByGroup(ctx, group.ID, rawPage, pkg.PostsPerPage)
	if err != nil {
		return nil, err
	}
	return &GroupFeed{Group: group, Page: page}, nil
}

func (s *FeedService) Profile(ctx context.Context, viewer *model.User, username, rawPage string) (*ProfileFeed, error) {
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	page, err := s.posts.ListByAuthor(ctx, author.ID, rawPage, pkg.PostsPerPage)
	if err != nil {
		return nil, err
	}

	following, err := s.follows.IsFollowing(ctx, viewer, author.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileFeed{Author: author, Page: page, Following: following}, nil
}

// Follow 关注流，只包含 caller 关注的作者的帖子
func (s *FeedService) Follow(ctx context.Context, caller *model.User, rawPage string) (*pkg.Page[model.Post], error) {
	if err := decide(access.Authenticated(caller)); err != nil {
		return nil, err
	}
	return s.posts.ListFollowed(ctx, caller.ID, rawPage, pkg.PostsPerPage)
}
