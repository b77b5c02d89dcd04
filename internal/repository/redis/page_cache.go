package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const PageCachePrefix = "cache:page:"

// CachedPage is one memoized response.
type CachedPage struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// PageCache 整页缓存，key 由路由和查询串组成，TTL 到期或 Invalidate 之前原样返回
type PageCache struct {
	Client *redis.Client
}

func NewPageCache(client *redis.Client) *PageCache {
	return &PageCache{Client: client}
}

// Get returns ok=false on a miss.
func (c *PageCache) Get(ctx context.Context, key string) (*CachedPage, bool, error) {
	raw, err := c.Client.Get(ctx, PageCachePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var page CachedPage
	if err := json.Unmarshal(raw, &page); err != nil {
		// 脏数据直接当作未命中
		_ = c.Client.Del(ctx, PageCachePrefix+key).Err()
		return nil, false, nil
	}
	return &page, true, nil
}

func (c *PageCache) Set(ctx context.Context, key string, page *CachedPage, ttl time.Duration) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, PageCachePrefix+key, raw, ttl).Err()
}

// Invalidate drops every cached page.
func (c *PageCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.Client.Scan(ctx, cursor, PageCachePrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.Client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
