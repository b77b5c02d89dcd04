package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"yatube/internal/form"
	"yatube/internal/model"
	"yatube/internal/service"
	"yatube/internal/storage"
	"yatube/internal/testutil"
)

func newPostService(t *testing.T) (*service.PostService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	blobs := storage.NewLocalStore(t.TempDir(), "/media/")
	return service.NewPostService(db, blobs, zap.NewNop()), db
}

func requireFields(t *testing.T, err error, fields ...string) {
	t.Helper()
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, f := range fields {
		assert.Contains(t, verr.Fields, f)
	}
}

func TestCreatePost(t *testing.T) {
	svc, db := newPostService(t)
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	group := testutil.Group(t, db, "cats")

	post, err := svc.CreatePost(ctx, author, &form.PostInput{
		Text:  "  hello world  ",
		Group: strconv.FormatUint(group.ID, 10),
		Image: testutil.Upload(t, "pic.gif", testutil.GIF),
	})
	require.NoError(t, err)

	assert.Equal(t, author.ID, post.AuthorID)
	assert.Equal(t, "leo", post.Author.Username)
	assert.Equal(t, "hello world", post.Text)
	require.NotNil(t, post.Group)
	assert.Equal(t, "cats", post.Group.Slug)
	assert.Regexp(t, `^posts/.+\.gif$`, post.Image)
	assert.False(t, post.CreatedAt.IsZero())
	assert.EqualValues(t, 1, testutil.Count(t, db, &model.Post{}))
}

// failPostWrites makes every insert/update on posts fail.
func failPostWrites(t *testing.T, db *gorm.DB) {
	t.Helper()
	fail := func(tx *gorm.DB) {
		if tx.Statement.Table == "posts" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_posts_create", fail))
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_posts_update", fail))
}

func storedImages(t *testing.T, root string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(root, "posts", "*"))
	require.NoError(t, err)
	return files
}

func TestFailedWriteRemovesUploadedImage(t *testing.T) {
	db := testutil.NewDB(t)
	root := t.TempDir()
	svc := service.NewPostService(db, storage.NewLocalStore(root, "/media/"), zap.NewNop())
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	post := testutil.Post(t, db, author, nil, "first", time.Now())
	require.NoError(t, os.MkdirAll(filepath.Join(root, "posts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "posts", "old.gif"), testutil.GIF, 0o644))
	require.NoError(t, db.Model(post).Update("image", "posts/old.gif").Error)

	failPostWrites(t, db)

	_, err := svc.CreatePost(ctx, author, &form.PostInput{
		Text:  "hello",
		Image: testutil.Upload(t, "pic.gif", testutil.GIF),
	})
	require.Error(t, err)

	_, err = svc.EditPost(ctx, author, post.ID, &form.PostInput{
		Text:  "second",
		Image: testutil.Upload(t, "new.gif", testutil.GIF),
	})
	require.Error(t, err)

	assert.Equal(t, []string{filepath.Join(root, "posts", "old.gif")}, storedImages(t, root))
	assert.EqualValues(t, 1, testutil.Count(t, db, &model.Post{}))
}

func TestCreatePost_Validation(t *testing.T) {
	svc, db := newPostService(t)
	ctx := context.Background()
	author := testutil.User(t, db, "leo")

	_, err := svc.CreatePost(ctx, author, &form.PostInput{Text: "   "})
	requireFields(t, err, "text")

	_, err = svc.CreatePost(ctx, author, &form.PostInput{Text: "x", Group: "999"})
	requireFields(t, err, "group")

	_, err = svc.CreatePost(ctx, author, &form.PostInput{Text: "x", Group: "abc"})
	requireFields(t, err, "group")

	_, err = svc.CreatePost(ctx, author, &form.PostInput{Text: "x", Image: testutil.Upload(t, "notes.gif", []byte("plain text, not an image"))})
	requireFields(t, err, "image")

	assert.EqualValues(t, 0, testutil.Count(t, db, &model.Post{}))
}

func TestEditPost_KeepsAuthorAndCreatedAt(t *testing.T) {
	svc, db := newPostService(t)
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	group := testutil.Group(t, db, "cats")
	created := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	post := testutil.Post(t, db, author, group, "first", created)
	require.NoError(t, db.Model(post).Update("image", "posts/old.gif").Error)

	edited, err := svc.EditPost(ctx, author, post.ID, &form.PostInput{Text: "second"})
	require.NoError(t, err)

	assert.Equal(t, "second", edited.Text)
	assert.Nil(t, edited.GroupID)
	assert.Equal(t, "posts/old.gif", edited.Image)
	assert.Equal(t, author.ID, edited.AuthorID)
	assert.True(t, created.Equal(edited.CreatedAt), "created_at changed: %v", edited.CreatedAt)
}

func TestEditPost_NonOwnerNeverMutates(t *testing.T) {
	svc, db := newPostService(t)
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	other := testutil.User(t, db, "max")
	group := testutil.Group(t, db, "cats")
	post := testutil.Post(t, db, author, group, "original", time.Now())

	var before model.Post
	require.NoError(t, db.First(&before, post.ID).Error)

	_, err := svc.EditPost(ctx, other, post.ID, &form.PostInput{
		Text:  "hijacked",
		Image: testutil.Upload(t, "pic.gif", testutil.GIF),
	})
	require.ErrorIs(t, err, service.ErrPermission)

	_, err = svc.PostForEdit(ctx, other, post.ID)
	require.ErrorIs(t, err, service.ErrPermission)

	var after model.Post
	require.NoError(t, db.First(&after, post.ID).Error)
	assert.Equal(t, before.Text, after.Text)
	assert.Equal(t, before.GroupID, after.GroupID)
	assert.Equal(t, before.Image, after.Image)
}

func TestEditPost_NotFound(t *testing.T) {
	svc, db := newPostService(t)
	author := testutil.User(t, db, "leo")

	_, err := svc.EditPost(context.Background(), author, 42, &form.PostInput{Text: "x"})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestAddComment(t *testing.T) {
	svc, db := newPostService(t)
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	reader := testutil.User(t, db, "max")
	post := testutil.Post(t, db, author, nil, "text", time.Now())

	_, err := svc.AddComment(ctx, reader, post.ID, &form.CommentInput{Text: "nice"})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, author, post.ID, &form.CommentInput{Text: "thanks"})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, reader, post.ID, &form.CommentInput{Text: " "})
	requireFields(t, err, "text")

	_, err = svc.AddComment(ctx, reader, 999, &form.CommentInput{Text: "lost"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	detail, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 2)
	assert.Equal(t, "nice", detail.Comments[0].Text)
	assert.Equal(t, "max", detail.Comments[0].Author.Username)
	assert.EqualValues(t, 1, detail.AuthorPosts)
}

func TestAnonymousMutationsWriteNothing(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	posts := service.NewPostService(db, storage.NewLocalStore(t.TempDir(), "/media/"), zap.NewNop())
	follows := service.NewFollowService(db, zap.NewNop())
	author := testutil.User(t, db, "leo")
	post := testutil.Post(t, db, author, nil, "text", time.Now())

	_, err := posts.CreatePost(ctx, nil, &form.PostInput{Text: "x"})
	assert.ErrorIs(t, err, service.ErrAuthRequired)
	_, err = posts.EditPost(ctx, nil, post.ID, &form.PostInput{Text: "x"})
	assert.ErrorIs(t, err, service.ErrAuthRequired)
	_, err = posts.AddComment(ctx, nil, post.ID, &form.CommentInput{Text: "x"})
	assert.ErrorIs(t, err, service.ErrAuthRequired)
	assert.ErrorIs(t, follows.Follow(ctx, nil, "leo"), service.ErrAuthRequired)
	assert.ErrorIs(t, follows.Unfollow(ctx, nil, "leo"), service.ErrAuthRequired)

	// 匿名检查先于其它检查
	_, err = posts.EditPost(ctx, nil, 999, &form.PostInput{})
	assert.ErrorIs(t, err, service.ErrAuthRequired)

	assert.EqualValues(t, 1, testutil.Count(t, db, &model.Post{}))
	assert.EqualValues(t, 0, testutil.Count(t, db, &model.Comment{}))
	assert.EqualValues(t, 0, testutil.Count(t, db, &model.Follow{}))
	assert.EqualValues(t, 0, testutil.Count(t, db, &model.SocialOutbox{}))
}

func TestReferentialActions(t *testing.T) {
	db := testutil.NewDB(t)
	author := testutil.User(t, db, "leo")
	reader := testutil.User(t, db, "max")
	group := testutil.Group(t, db, "cats")
	post := testutil.Post(t, db, author, group, "text", time.Now())
	require.NoError(t, db.Create(&model.Comment{PostID: post.ID, AuthorID: reader.ID, Text: "hi"}).Error)
	require.NoError(t, db.Create(&model.Follow{UserID: reader.ID, AuthorID: author.ID}).Error)

	// group 删除后帖子保留，group 置空
	require.NoError(t, db.Delete(group).Error)
	var p model.Post
	require.NoError(t, db.First(&p, post.ID).Error)
	assert.Nil(t, p.GroupID)

	// 作者删除后帖子、评论、关注全部级联删除
	require.NoError(t, db.Delete(author).Error)
	assert.EqualValues(t, 0, testutil.Count(t, db, &model.Post{}))
	assert.EqualValues(t, 0, testutil.Count(t, db, &model.Comment{}))
	assert.EqualValues(t, 0, testutil.Count(t, db, &model.Follow{}))
}
