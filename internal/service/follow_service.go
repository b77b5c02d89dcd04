package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"yatube/internal/access"
	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository/orm"
)

type FollowService struct {
	repo  *orm.FollowRepository
	users *orm.UserRepository
	log   *zap.Logger
}

func NewFollowService(db *gorm.DB, log *zap.Logger) *FollowService {
	return &FollowService{
		repo:  &orm.FollowRepository{DB: db},
		users: &orm.UserRepository{DB: db},
		log:   log.Named("follow"),
	}
}

// Follow 幂等：已关注或关注自己都直接返回 nil，不会产生新边
func (s *FollowService) Follow(ctx context.Context, caller *model.User, username string) error {
	if err := decide(access.Authenticated(caller)); err != nil {
		return err
	}
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return notFound(err)
	}
	if author.ID == caller.ID {
		return nil
	}
	created, err := s.repo.Follow(ctx, caller.ID, author.ID)
	if err != nil {
		return err
	}
	if created {
		s.log.Info("follow", zap.String("user", caller.Username), zap.String("author", author.Username))
	}
	return nil
}

// Unfollow 没有这条关注边时返回 ErrNotFound
func (s *FollowService) Unfollow(ctx context.Context, caller *model.User, username string) error {
	if err := decide(access.Authenticated(caller)); err != nil {
		return err
	}
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return notFound(err)
	}
	removed, err := s.repo.Unfollow(ctx, caller.ID, author.ID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}
	s.log.Info("unfollow", zap.String("user", caller.Username), zap.String("author", author.Username))
	return nil
}

// IsFollowing is false for anonymous callers.
func (s *FollowService) IsFollowing(ctx context.Context, caller *model.User, authorID uint64) (bool, error) {
	if access.Authenticated(caller) != access.Allow {
		return false, nil
	}
	return s.repo.IsFollowing(ctx, caller.ID, authorID)
}

// Sender delivers one outbox event.
type Sender func(ctx context.Context, ob *model.SocialOutbox) error

// OutboxRelayer outbox表相关服务
type OutboxRelayer struct {
	repo      *orm.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
	log       *zap.Logger
}

func NewOutboxRelayer(db *gorm.DB, sender Sender, log *zap.Logger) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      &orm.OutboxRepository{DB: db},
		batchSize: 200,
		interval:  time.Second,
		sender:    sender,
		log:       log.Named("outbox"),
	}
}

// Run outbox启动器，ctx 取消后退出
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.DrainOnce(ctx)
		}
	}
}

// DrainOnce 从数据库读取一批事件交给 sender，返回成功投递的条数
func (r *OutboxRelayer) DrainOnce(ctx context.Context) int {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		r.log.Error("outbox query", zap.Error(err))
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			r.log.Warn("outbox send", zap.Uint64("id", ob.ID), zap.Int("retry", ob.Retry), zap.Error(err))
			if err = r.repo.RetryUpdate(ctx, ob.ID); err != nil {
				r.log.Error("outbox retry update", zap.Uint64("id", ob.ID), zap.Error(err))
			}
			continue
		}
		if err = r.repo.SuccessUpdate(ctx, ob.ID); err != nil {
			r.log.Error("outbox success update", zap.Uint64("id", ob.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// LogSender 没配置 Kafka 时只打日志
func LogSender(log *zap.Logger) Sender {
	return func(ctx context.Context, ob *model.SocialOutbox) error {
		log.Info("outbox event",
			zap.String("type", ob.EventType),
			zap.Uint64("follower", ob.Follower),
			zap.Uint64("followee", ob.Followee),
			zap.String("payload", ob.Payload))
		return nil
	}
}

// KafkaSender 以关注者 id 作为 key，同一用户的事件落在同一分区保持顺序
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.SocialOutbox) error {
		return p.Send(ctx, pkg.MakeKeyFromID(ob.Follower), []byte(ob.Payload))
	}
}
