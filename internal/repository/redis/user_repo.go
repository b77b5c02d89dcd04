package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
	ErrExtendFailed     = errors.New("token extend failed")
	ErrTokenDeleted     = errors.New("token delete failed")
)

const (
	UserTokenPrefix = "login:user:token"
	UserTokenExpire = 30 * time.Minute

	fieldAccess  = "access"
	fieldRefresh = "refresh"
)

// TokenRepository 保存每个用户当前会话的 access/refresh token，一个用户同时只有一个会话
type TokenRepository struct {
	Client *redis.Client
}

func NewTokenRepository(client *redis.Client) *TokenRepository {
	return &TokenRepository{Client: client}
}

func (r *TokenRepository) key(userID uint64) string {
	return fmt.Sprintf("%s:%d", UserTokenPrefix, userID)
}

// AddUserToken 覆盖该用户的会话，旧的 token 对立即失效
func (r *TokenRepository) AddUserToken(ctx context.Context, userID uint64, access, refresh string) error {
	key := r.key(userID)
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fieldAccess, access, fieldRefresh, refresh)
		pipe.Expire(ctx, key, UserTokenExpire)
		return nil
	})
	if err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *TokenRepository) GetUserToken(ctx context.Context, userID uint64) (string, error) {
	return r.get(ctx, userID, fieldAccess)
}

func (r *TokenRepository) GetRefreshToken(ctx context.Context, userID uint64) (string, error) {
	return r.get(ctx, userID, fieldRefresh)
}

func (r *TokenRepository) get(ctx context.Context, userID uint64, field string) (string, error) {
	token, err := r.Client.HGet(ctx, r.key(userID), field).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", ErrRedisUnavailable
	}
	return token, nil
}

func (r *TokenRepository) ExtendUserToken(ctx context.Context, userID uint64) error {
	if err := r.Client.Expire(ctx, r.key(userID), UserTokenExpire).Err(); err != nil {
		return ErrExtendFailed
	}
	return nil
}

func (r *TokenRepository) DeleteUserToken(ctx context.Context, userID uint64) error {
	if err := r.Client.Del(ctx, r.key(userID)).Err(); err != nil {
		return ErrTokenDeleted
	}
	return nil
}
