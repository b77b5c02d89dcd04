package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"yatube/internal/access"
	"yatube/internal/form"
	"yatube/internal/model"
	"yatube/internal/repository/orm"
	"yatube/internal/storage"
)

type PostService struct {
	repo     *orm.PostRepository
	groups   *orm.GroupRepository
	comments *orm.CommentRepository
	blobs    storage.BlobStore
	log      *zap.Logger
}

func NewPostService(db *gorm.DB, blobs storage.BlobStore, log *zap.Logger) *PostService {
	return &PostService{
		repo:     &orm.PostRepository{DB: db},
		groups:   &orm.GroupRepository{DB: db},
		comments: &orm.CommentRepository{DB: db},
		blobs:    blobs,
		log:      log.Named("post"),
	}
}

// PostDetail is a single post with everything shown under it.
type PostDetail struct {
	Post        *model.Post
	Comments    []model.Comment
	AuthorPosts int64
}

// CreatePost 创建帖子，作者永远是当前调用者
func (s *PostService) CreatePost(ctx context.Context, caller *model.User, in *form.PostInput) (*model.Post, error) {
	if err := decide(access.Authenticated(caller)); err != nil {
		return nil, err
	}

	groupID, err := s.clean(ctx, in)
	if err != nil {
		return nil, err
	}

	var image string
	if in.Image != nil {
		if image, err = s.blobs.Save(ctx, in.Image); err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
	}

	post := &model.Post{
		Text:     in.Text,
		AuthorID: caller.ID,
		GroupID:  groupID,
		Image:    image,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		s.dropBlob(ctx, image)
		return nil, err
	}
	s.log.Info("post created", zap.Uint64("post_id", post.ID), zap.String("author", caller.Username))
	return s.repo.FindByID(ctx, post.ID)
}

// PostForEdit returns the post only when caller owns it.
func (s *PostService) PostForEdit(ctx context.Context, caller *model.User, postID uint64) (*model.Post, error) {
	if err := decide(access.Authenticated(caller)); err != nil {
		return nil, err
	}
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := decide(access.Owner(caller, post.AuthorID)); err != nil {
		return nil, err
	}
	return post, nil
}

// EditPost 只有作者能改；text/group 覆盖，image 只有上传了新图才替换
func (s *PostService) EditPost(ctx context.Context, caller *model.User, postID uint64, in *form.PostInput) (*model.Post, error) {
	post, err := s.PostForEdit(ctx, caller, postID)
	if err != nil {
		return nil, err
	}

	groupID, err := s.clean(ctx, in)
	if err != nil {
		return nil, err
	}

	image, uploaded := post.Image, ""
	if in.Image != nil {
		if uploaded, err = s.blobs.Save(ctx, in.Image); err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
		image = uploaded
	}

	if err := s.repo.UpdateContent(ctx, post.ID, in.Text, groupID, image); err != nil {
		s.dropBlob(ctx, uploaded)
		return nil, err
	}
	s.log.Info("post edited", zap.Uint64("post_id", post.ID))
	return s.repo.FindByID(ctx, post.ID)
}

// dropBlob 写库失败后清理刚上传的图片
func (s *PostService) dropBlob(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), ref); err != nil {
		s.log.Warn("orphan image left behind", zap.String("ref", ref), zap.Error(err))
	}
}

func (s *PostService) GetPost(ctx context.Context, postID uint64) (*PostDetail, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		return nil, notFound(err)
	}
	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Comments: comments, AuthorPosts: count}, nil
}

func (s *PostService) AddComment(ctx context.Context, caller *model.User, postID uint64, in *form.CommentInput) (*model.Comment, error) {
	if err := decide(access.Authenticated(caller)); err != nil {
		return nil, err
	}
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := invalid(form.Validate(in)); err != nil {
		return nil, err
	}

	c := &model.Comment{PostID: post.ID, AuthorID: caller.ID, Text: in.Text}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	c.Author = *caller
	return c, nil
}

// Groups are the choices offered by the post form.
func (s *PostService) Groups(ctx context.Context) ([]model.Group, error) {
	return s.groups.List(ctx)
}

// clean validates the post form and resolves the group reference.
func (s *PostService) clean(ctx context.Context, in *form.PostInput) (*uint64, error) {
	errs := form.Validate(in)

	groupID, ok := in.GroupID()
	switch {
	case !ok:
		errs.Add("group", form.MsgInvalidChoice)
	case groupID != nil:
		if _, err := s.groups.FindByID(ctx, *groupID); err != nil {
			if notFound(err) != ErrNotFound {
				return nil, err
			}
			errs.Add("group", form.MsgInvalidChoice)
		}
	}

	if err := form.ValidateImage(in.Image); err != nil {
		errs.Add("image", form.MsgInvalidImage)
	}
	return groupID, invalid(errs)
}
