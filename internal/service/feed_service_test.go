package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yatube/internal/pkg"
	"yatube/internal/service"
	"yatube/internal/testutil"
)

func TestHomeFeed_Pagination(t *testing.T) {
	db := testutil.NewDB(t)
	feeds := service.NewFeedService(db, service.NewFollowService(db, zap.NewNop()))
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	posts := testutil.Posts(t, db, author, nil, pkg.PostsPerPage+1)

	first, err := feeds.Home(ctx, "1")
	require.NoError(t, err)
	second, err := feeds.Home(ctx, "2")
	require.NoError(t, err)

	require.Len(t, first.Items, pkg.PostsPerPage)
	require.Len(t, second.Items, 1)
	assert.True(t, first.HasNext)
	assert.False(t, second.HasNext)
	assert.EqualValues(t, pkg.PostsPerPage+1, first.Total)

	// 两页合起来按时间倒序覆盖全部帖子
	seen := map[uint64]bool{}
	all := append(first.Items, second.Items...)
	for i, p := range all {
		assert.False(t, seen[p.ID], "post %d on both pages", p.ID)
		seen[p.ID] = true
		assert.Equal(t, posts[len(posts)-1-i].ID, p.ID)
		assert.Equal(t, "leo", p.Author.Username)
	}
	assert.Len(t, seen, len(posts))
}

func TestHomeFeed_PageParamDegrades(t *testing.T) {
	db := testutil.NewDB(t)
	feeds := service.NewFeedService(db, service.NewFollowService(db, zap.NewNop()))
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	testutil.Posts(t, db, author, nil, pkg.PostsPerPage+1)

	for raw, want := range map[string]int{"": 1, "abc": 1, "2": 2, "99": 2, "0": 2, "-1": 2, "99999999999999999999": 2} {
		page, err := feeds.Home(ctx, raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, page.Number, "page=%q", raw)
	}
}

func TestGroupFeed(t *testing.T) {
	db := testutil.NewDB(t)
	feeds := service.NewFeedService(db, service.NewFollowService(db, zap.NewNop()))
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	cats := testutil.Group(t, db, "cats")
	dogs := testutil.Group(t, db, "dogs")
	testutil.Posts(t, db, author, cats, 3)
	testutil.Posts(t, db, author, dogs, 2)
	testutil.Posts(t, db, author, nil, 1)

	feed, err := feeds.Group(ctx, "cats", "")
	require.NoError(t, err)
	assert.Equal(t, cats.ID, feed.Group.ID)
	require.Len(t, feed.Page.Items, 3)
	for _, p := range feed.Page.Items {
		require.NotNil(t, p.GroupID)
		assert.Equal(t, cats.ID, *p.GroupID)
	}

	_, err = feeds.Group(ctx, "birds", "")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestProfileFeed(t *testing.T) {
	db := testutil.NewDB(t)
	follows := service.NewFollowService(db, zap.NewNop())
	feeds := service.NewFeedService(db, follows)
	ctx := context.Background()
	author := testutil.User(t, db, "leo")
	reader := testutil.User(t, db, "max")
	testutil.Posts(t, db, author, nil, 2)
	testutil.Posts(t, db, reader, nil, 1)

	feed, err := feeds.Profile(ctx, nil, "leo", "")
	require.NoError(t, err)
	assert.Equal(t, author.ID, feed.Author.ID)
	assert.EqualValues(t, 2, feed.Page.Total)
	assert.False(t, feed.Following)

	require.NoError(t, follows.Follow(ctx, reader, "leo"))
	feed, err = feeds.Profile(ctx, reader, "leo", "")
	require.NoError(t, err)
	assert.True(t, feed.Following)

	_, err = feeds.Profile(ctx, reader, "nobody", "")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestFollowFeed(t *testing.T) {
	db := testutil.NewDB(t)
	follows := service.NewFollowService(db, zap.NewNop())
	feeds := service.NewFeedService(db, follows)
	ctx := context.Background()
	leo := testutil.User(t, db, "leo")
	maxi := testutil.User(t, db, "max")
	reader := testutil.User(t, db, "reader")
	testutil.Posts(t, db, leo, nil, 2)
	testutil.Posts(t, db, maxi, nil, 3)

	empty, err := feeds.Follow(ctx, reader, "")
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 1, empty.Number)
	assert.Equal(t, 1, empty.NumPages)

	require.NoError(t, follows.Follow(ctx, reader, "leo"))
	page, err := feeds.Follow(ctx, reader, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	for _, p := range page.Items {
		assert.Equal(t, leo.ID, p.AuthorID)
	}

	_, err = feeds.Follow(ctx, nil, "")
	assert.ErrorIs(t, err, service.ErrAuthRequired)
}
