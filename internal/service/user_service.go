package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"yatube/internal/access"
	"yatube/internal/form"
	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository/orm"
	rds "yatube/internal/repository/redis"
)

// ErrSessionInvalid is returned by Authenticate and Refresh for tokens that do
// not match the user's current session.
var ErrSessionInvalid = errors.New("session invalid")

type UserService struct {
	repo   *orm.UserRepository
	tokens *rds.TokenRepository
	issuer *pkg.TokenIssuer
	log    *zap.Logger
}

func NewUserService(db *gorm.DB, tokens *rds.TokenRepository, issuer *pkg.TokenIssuer, log *zap.Logger) *UserService {
	return &UserService{
		repo:   &orm.UserRepository{DB: db},
		tokens: tokens,
		issuer: issuer,
		log:    log.Named("user"),
	}
}

func (s *UserService) Register(ctx context.Context, in *form.SignupInput) (*model.User, error) {
	errs := form.Validate(in)
	if errs.Valid() {
		userTaken, emailTaken, err := s.repo.Exists(ctx, in.Username, in.Email)
		if err != nil {
			return nil, err
		}
		if userTaken {
			errs.Add("username", form.MsgUsernameTaken)
		}
		if emailTaken {
			errs.Add("email", form.MsgEmailTaken)
		}
	}
	if err := invalid(errs); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  string(hash),
	}
	if err = s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("signup", zap.String("username", user.Username))
	return user, nil
}

// Login 校验密码并签发 token，access token 写入 redis，旧会话随之失效
func (s *UserService) Login(ctx context.Context, in *form.LoginInput) (*model.User, *pkg.Pair, error) {
	if err := invalid(form.Validate(in)); err != nil {
		return nil, nil, err
	}
	user, err := s.repo.FindByLogin(ctx, in.Username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fieldError(form.NonField, form.MsgBadLogin)
	}
	if err != nil {
		return nil, nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return nil, nil, fieldError(form.NonField, form.MsgBadLogin)
	}

	pair, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *UserService) startSession(ctx context.Context, userID uint64) (*pkg.Pair, error) {
	pair, err := s.issuer.GeneratePair(userID)
	if err != nil {
		return nil, err
	}
	if err = s.tokens.AddUserToken(ctx, userID, pair.AccessToken, pair.RefreshToken); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *UserService) Logout(ctx context.Context, caller *model.User) error {
	if err := decide(access.Authenticated(caller)); err != nil {
		return err
	}
	return s.tokens.DeleteUserToken(ctx, caller.ID)
}

// Refresh 用 refresh token 换新的一对 token，只接受当前会话签发的那一个
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	stored, err := s.tokens.GetRefreshToken(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, rds.ErrTokenNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	if stored != refreshToken {
		return nil, ErrSessionInvalid
	}
	return s.startSession(ctx, claims.UserID)
}

// Authenticate resolves an access token to its user. The token must be the
// one stored for the user's current session; a hit extends that session.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.issuer.ParseAccess(accessToken)
	if err != nil {
		return nil, err
	}
	stored, err := s.tokens.GetUserToken(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, rds.ErrTokenNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	if stored != accessToken {
		return nil, ErrSessionInvalid
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	if err = s.tokens.ExtendUserToken(ctx, user.ID); err != nil {
		s.log.Warn("extend session", zap.Uint64("user", user.ID), zap.Error(err))
	}
	return user, nil
}

// ChangePassword 登录态修改密码，成功后注销当前会话
func (s *UserService) ChangePassword(ctx context.Context, caller *model.User, in *form.PasswordChangeInput) error {
	if err := decide(access.Authenticated(caller)); err != nil {
		return err
	}
	if err := invalid(form.Validate(in)); err != nil {
		return err
	}
	user, err := s.repo.FindByID(ctx, caller.ID)
	if err != nil {
		return notFound(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.OldPassword)) != nil {
		return fieldError("old_password", form.MsgOldPassword)
	}
	if err = setPassword(ctx, s.repo, user, in.NewPassword); err != nil {
		return err
	}
	return s.tokens.DeleteUserToken(ctx, user.ID)
}

func setPassword(ctx context.Context, repo *orm.UserRepository, user *model.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return repo.UpdatePassword(ctx, user, string(hash))
}
