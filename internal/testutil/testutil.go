// Package testutil builds in-memory stand-ins for MySQL and Redis plus a few fixtures.
package testutil

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"yatube/internal/model"
	"yatube/internal/repository/orm"
)

// Password is the plain-text password of every fixture user.
const Password = "s3cret-pass"

// NewDB opens a private in-memory SQLite database with foreign keys on and
// the schema migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: orm.NewLogger(zap.NewNop()),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 每个连接都是一个新的内存库，只能保留一个
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, orm.Migrate(db))
	return db
}

func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func User(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{Username: username, Email: username + "@example.com", Password: string(hash)}
	require.NoError(t, db.Create(u).Error)
	return u
}

func Group(t *testing.T, db *gorm.DB, slug string) *model.Group {
	t.Helper()
	g := &model.Group{Title: "Group " + slug, Slug: slug, Description: "about " + slug}
	require.NoError(t, db.Create(g).Error)
	return g
}

// Post inserts a post with an explicit creation time so ordering is deterministic.
func Post(t *testing.T, db *gorm.DB, author *model.User, group *model.Group, text string, createdAt time.Time) *model.Post {
	t.Helper()
	p := &model.Post{Text: text, AuthorID: author.ID, CreatedAt: createdAt}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// Posts inserts n posts by author, one minute apart, oldest first.
func Posts(t *testing.T, db *gorm.DB, author *model.User, group *model.Group, n int) []*model.Post {
	t.Helper()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	out := make([]*model.Post, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Post(t, db, author, group, "post "+string(rune('a'+i%26)), base.Add(time.Duration(i)*time.Minute)))
	}
	return out
}

// Count returns the number of rows of model m.
func Count(t *testing.T, db *gorm.DB, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.WithContext(context.Background()).Model(m).Count(&n).Error)
	return n
}

// GIF is the smallest valid image payload.
var GIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00,
	0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00, 0x00, 0x00,
	0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02,
	0x44, 0x01, 0x00, 0x3b,
}

// Upload wraps content into a multipart file header as a browser would send it.
func Upload(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["image"][0]
}
