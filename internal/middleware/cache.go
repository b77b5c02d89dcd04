package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	rds "yatube/internal/repository/redis"
)

// PageStore keeps rendered responses by key.
type PageStore interface {
	Get(ctx context.Context, key string) (*rds.CachedPage, bool, error)
	Set(ctx context.Context, key string, page *rds.CachedPage, ttl time.Duration) error
}

type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CachePage 缓存整页 GET 响应，ttl 内同一 URL 返回同一份内容（即使数据已变化）。
// 只缓存 200，store 出错时直接走 handler。
func CachePage(store PageStore, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		key := c.FullPath() + "?" + c.Request.URL.RawQuery
		ctx := c.Request.Context()

		page, ok, err := store.Get(ctx, key)
		if err != nil {
			log.Warn("page cache get", zap.String("key", key), zap.Error(err))
		}
		if ok {
			c.Header("X-Cache", "HIT")
			c.Data(page.Status, page.ContentType, page.Body)
			c.Abort()
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if w.Status() != http.StatusOK {
			return
		}
		entry := &rds.CachedPage{
			Status:      w.Status(),
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		}
		if err = store.Set(ctx, key, entry, ttl); err != nil {
			log.Warn("page cache set", zap.String("key", key), zap.Error(err))
		}
	}
}
