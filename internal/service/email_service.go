package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"yatube/internal/form"
	"yatube/internal/pkg"
	"yatube/internal/repository/orm"
	rds "yatube/internal/repository/redis"
)

// EmailService 重置密码验证码
type EmailService struct {
	users  *orm.UserRepository
	codes  *rds.EmailRepository
	tokens *rds.TokenRepository
	mailer pkg.Mailer
	log    *zap.Logger
}

func NewEmailService(db *gorm.DB, codes *rds.EmailRepository, tokens *rds.TokenRepository, mailer pkg.Mailer, log *zap.Logger) *EmailService {
	return &EmailService{
		users:  &orm.UserRepository{DB: db},
		codes:  codes,
		tokens: tokens,
		mailer: mailer,
		log:    log.Named("email"),
	}
}

// RequestPasswordReset 发送重置密码验证码。未注册的邮箱同样返回 nil，不暴露账号是否存在
func (s *EmailService) RequestPasswordReset(ctx context.Context, in *form.PasswordResetInput) error {
	if err := invalid(form.Validate(in)); err != nil {
		return err
	}
	if _, err := s.users.FindByEmail(ctx, in.Email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Info("password reset for unknown email")
			return nil
		}
		return err
	}

	code, err := pkg.RandDigits(pkg.ResetCodeLength)
	if err != nil {
		return err
	}
	// 先写入pending键
	if err = s.codes.ResetCodePending(ctx, in.Email, code); err != nil {
		return err
	}
	html := pkg.EmailCodeHTML("a password reset", code, s.codes.TTL)
	if err = s.mailer.Send(in.Email, "Password reset code", html); err != nil {
		_ = s.codes.DeleteResetCodePending(ctx, in.Email)
		return err
	}
	// 邮件发送后再将pending转为confirmed
	if err = s.codes.ConfirmResetCode(ctx, in.Email); err != nil {
		_ = s.codes.DeleteResetCodePending(ctx, in.Email)
		return err
	}
	return nil
}

// ConfirmPasswordReset 校验验证码（一次性），更新密码并注销该用户的会话
func (s *EmailService) ConfirmPasswordReset(ctx context.Context, in *form.PasswordResetConfirmInput) error {
	if err := invalid(form.Validate(in)); err != nil {
		return err
	}
	stored, err := s.codes.GetResetConfirmed(ctx, in.Email)
	if err != nil || stored != in.Code {
		return fieldError("code", form.MsgBadCode)
	}
	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fieldError("code", form.MsgBadCode)
		}
		return err
	}
	if err = s.codes.DeleteResetConfirmed(ctx, in.Email); err != nil {
		return err
	}

	if err = setPassword(ctx, s.users, user, in.NewPassword); err != nil {
		return err
	}
	s.log.Info("password reset", zap.Uint64("user", user.ID))
	return s.tokens.DeleteUserToken(ctx, user.ID)
}

// LogMailer 未配置 SMTP 时使用，邮件内容只写日志
type LogMailer struct {
	Log *zap.Logger
}

func (m LogMailer) Send(to, subject, htmlBody string) error {
	m.Log.Info("mail", zap.String("to", to), zap.String("subject", subject), zap.String("body", htmlBody))
	return nil
}
