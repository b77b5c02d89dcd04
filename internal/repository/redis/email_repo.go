package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultEmailCodeTTL = 5 * time.Minute
	CodeResetPrefix     = "email:code:reset"

	// 两阶段键
	PendingSuffix   = "pending"
	ConfirmedSuffix = "confirmed"
)

var (
	ErrEmailNotFound       = errors.New("email not found")
	ErrEmailCodeDelFailed  = errors.New("email code delete failed")
	ErrCodePendingFailed   = errors.New("code pending failed")
	ErrCodeConfirmedFailed = errors.New("code confirmed failed")
)

// 取值+写入目标+设置 TTL+删除源，原子执行
var confirmScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then
  return 0
end
redis.call("SET", KEYS[2], val, "PX", ARGV[1])
redis.call("DEL", KEYS[1])
return 1
`)

// EmailRepository 重置密码验证码：先写 pending，邮件发出后转为 confirmed
type EmailRepository struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewEmailRepository(client *redis.Client) *EmailRepository {
	return &EmailRepository{Client: client, TTL: DefaultEmailCodeTTL}
}

func (e *EmailRepository) key(suffix, email string) string {
	return fmt.Sprintf("%s:%s:%s", CodeResetPrefix, suffix, email)
}

// ResetCodePending 写入重置验证码的 pending 键
func (e *EmailRepository) ResetCodePending(ctx context.Context, email, code string) error {
	if err := e.Client.Set(ctx, e.key(PendingSuffix, email), code, e.TTL).Err(); err != nil {
		return ErrCodePendingFailed
	}
	return nil
}

// ConfirmResetCode 将 pending 转为 confirmed（重置 TTL）
func (e *EmailRepository) ConfirmResetCode(ctx context.Context, email string) error {
	px := int64(e.TTL / time.Millisecond)
	ok, err := confirmScript.Run(ctx, e.Client,
		[]string{e.key(PendingSuffix, email), e.key(ConfirmedSuffix, email)}, px).Int()
	if err != nil || ok != 1 {
		return ErrCodeConfirmedFailed
	}
	return nil
}

// DeleteResetCodePending 删除 pending 键（幂等）
func (e *EmailRepository) DeleteResetCodePending(ctx context.Context, email string) error {
	if err := e.Client.Del(ctx, e.key(PendingSuffix, email)).Err(); err != nil {
		return ErrEmailCodeDelFailed
	}
	return nil
}

// GetResetConfirmed 获取 confirmed 的验证码（校验时使用）
func (e *EmailRepository) GetResetConfirmed(ctx context.Context, email string) (string, error) {
	val, err := e.Client.Get(ctx, e.key(ConfirmedSuffix, email)).Result()
	if err != nil {
		return "", ErrEmailNotFound
	}
	return val, nil
}

// DeleteResetConfirmed 校验通过后删除，验证码只能用一次
func (e *EmailRepository) DeleteResetConfirmed(ctx context.Context, email string) error {
	if err := e.Client.Del(ctx, e.key(ConfirmedSuffix, email)).Err(); err != nil {
		return ErrEmailCodeDelFailed
	}
	return nil
}
