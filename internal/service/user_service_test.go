package service_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"yatube/internal/form"
	"yatube/internal/pkg"
	rds "yatube/internal/repository/redis"
	"yatube/internal/service"
	"yatube/internal/testutil"
)

type authFixture struct {
	db     *gorm.DB
	users  *service.UserService
	emails *service.EmailService
	mail   *captureMailer
}

type captureMailer struct {
	to, body string
}

func (m *captureMailer) Send(to, _, body string) error {
	m.to, m.body = to, body
	return nil
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := testutil.NewDB(t)
	_, client := testutil.NewRedis(t)
	tokens := rds.NewTokenRepository(client)
	mail := &captureMailer{}
	return &authFixture{
		db:     db,
		users:  service.NewUserService(db, tokens, pkg.NewTokenIssuer("access-secret", "refresh-secret"), zap.NewNop()),
		emails: service.NewEmailService(db, rds.NewEmailRepository(client), tokens, mail, zap.NewNop()),
		mail:   mail,
	}
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.users.Register(ctx, &form.SignupInput{
		FirstName: "Leo", LastName: "Tolstoy", Username: "leo", Email: "leo@example.com", Password: "war-and-peace",
	})
	require.NoError(t, err)
	assert.Equal(t, "Leo Tolstoy", user.FullName())
	assert.NotEqual(t, "war-and-peace", user.Password)

	_, err = f.users.Register(ctx, &form.SignupInput{Username: "leo", Email: "leo@example.com", Password: "another-pass"})
	requireFields(t, err, "username", "email")

	_, err = f.users.Register(ctx, &form.SignupInput{Username: "bad name", Email: "nope", Password: "short"})
	requireFields(t, err, "username", "email", "password")
}

func TestLoginAuthenticateLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	leo := testutil.User(t, f.db, "leo")

	_, _, err := f.users.Login(ctx, &form.LoginInput{Username: "leo", Password: "wrong"})
	requireFields(t, err, form.NonField)

	user, pair, err := f.users.Login(ctx, &form.LoginInput{Username: "leo@example.com", Password: testutil.Password})
	require.NoError(t, err)
	assert.Equal(t, leo.ID, user.ID)

	got, err := f.users.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, leo.ID, got.ID)

	_, err = f.users.Authenticate(ctx, pair.RefreshToken)
	assert.Error(t, err)

	require.NoError(t, f.users.Logout(ctx, got))
	_, err = f.users.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, service.ErrSessionInvalid)

	_, err = f.users.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, service.ErrSessionInvalid)
}

func TestRefresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	testutil.User(t, f.db, "leo")

	_, pair, err := f.users.Login(ctx, &form.LoginInput{Username: "leo", Password: testutil.Password})
	require.NoError(t, err)

	next, err := f.users.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	_, err = f.users.Authenticate(ctx, next.AccessToken)
	require.NoError(t, err)

	_, err = f.users.Refresh(ctx, pair.AccessToken)
	assert.Error(t, err)

	// 已经换过的 refresh token 不能再用
	_, err = f.users.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, service.ErrSessionInvalid)
}

func TestRefresh_OnlyCurrentSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	testutil.User(t, f.db, "leo")
	login := &form.LoginInput{Username: "leo", Password: testutil.Password}

	_, old, err := f.users.Login(ctx, login)
	require.NoError(t, err)
	_, current, err := f.users.Login(ctx, login)
	require.NoError(t, err)
	require.NotEqual(t, old.RefreshToken, current.RefreshToken)

	_, err = f.users.Refresh(ctx, old.RefreshToken)
	assert.ErrorIs(t, err, service.ErrSessionInvalid)
	_, err = f.users.Authenticate(ctx, current.AccessToken)
	require.NoError(t, err)

	next, err := f.users.Refresh(ctx, current.RefreshToken)
	require.NoError(t, err)
	_, err = f.users.Authenticate(ctx, next.AccessToken)
	assert.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	leo := testutil.User(t, f.db, "leo")
	_, pair, err := f.users.Login(ctx, &form.LoginInput{Username: "leo", Password: testutil.Password})
	require.NoError(t, err)

	err = f.users.ChangePassword(ctx, leo, &form.PasswordChangeInput{OldPassword: "wrong", NewPassword: "brand-new-pass"})
	requireFields(t, err, "old_password")

	require.NoError(t, f.users.ChangePassword(ctx, leo, &form.PasswordChangeInput{OldPassword: testutil.Password, NewPassword: "brand-new-pass"}))
	_, err = f.users.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, service.ErrSessionInvalid)

	_, _, err = f.users.Login(ctx, &form.LoginInput{Username: "leo", Password: "brand-new-pass"})
	assert.NoError(t, err)

	assert.ErrorIs(t, f.users.ChangePassword(ctx, nil, &form.PasswordChangeInput{}), service.ErrAuthRequired)
}

var codeRe = regexp.MustCompile(`>(\d{6})<`)

func TestPasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	testutil.User(t, f.db, "leo")

	// 未注册邮箱不发信也不报错
	require.NoError(t, f.emails.RequestPasswordReset(ctx, &form.PasswordResetInput{Email: "ghost@example.com"}))
	assert.Empty(t, f.mail.to)

	require.NoError(t, f.emails.RequestPasswordReset(ctx, &form.PasswordResetInput{Email: "leo@example.com"}))
	assert.Equal(t, "leo@example.com", f.mail.to)
	m := codeRe.FindStringSubmatch(f.mail.body)
	require.Len(t, m, 2)
	code := m[1]

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err := f.emails.ConfirmPasswordReset(ctx, &form.PasswordResetConfirmInput{Email: "leo@example.com", Code: wrong, NewPassword: "reset-pass-1"})
	requireFields(t, err, "code")

	require.NoError(t, f.emails.ConfirmPasswordReset(ctx, &form.PasswordResetConfirmInput{Email: "leo@example.com", Code: code, NewPassword: "reset-pass-1"}))
	_, _, err = f.users.Login(ctx, &form.LoginInput{Username: "leo", Password: "reset-pass-1"})
	require.NoError(t, err)

	// 验证码只能用一次
	err = f.emails.ConfirmPasswordReset(ctx, &form.PasswordResetConfirmInput{Email: "leo@example.com", Code: code, NewPassword: "reset-pass-2"})
	requireFields(t, err, "code")
}
