package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/form"
	"yatube/internal/middleware"
	"yatube/internal/pkg"
	"yatube/internal/service"
)

const (
	signupForm         = "signup"
	loginForm          = "login"
	passwordChangeForm = "password_change"
	passwordResetForm  = "password_reset"
	resetConfirmForm   = "password_reset_confirm"
)

type UserHandler struct {
	users  *service.UserService
	emails *service.EmailService
	secure bool
	log    *zap.Logger
}

// NewUserHandler secure marks the session cookie Secure (production).
func NewUserHandler(users *service.UserService, emails *service.EmailService, secure bool, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, emails: emails, secure: secure, log: log}
}

// Signup 注册接口
func (h *UserHandler) Signup(c *gin.Context) {
	var in form.SignupInput
	if err := c.ShouldBind(&in); err != nil {
		badRequest(c, signupForm)
		return
	}
	if _, err := h.users.Register(c.Request.Context(), &in); err != nil {
		fail(c, h.log, err, signupForm, "")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// LoginForm 描述登录表单
func (h *UserHandler) LoginForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"form": gin.H{
		"name":   loginForm,
		"action": middleware.LoginURL,
		"fields": []formField{
			{Name: "username", Type: "text", Required: true},
			{Name: "password", Type: "password", Required: true},
			{Name: "next", Type: "hidden", Value: c.Query("next")},
		},
	}})
}

// Login 登录接口，token 同时写入 cookie，然后跳转到 next
func (h *UserHandler) Login(c *gin.Context) {
	var in form.LoginInput
	if err := c.ShouldBind(&in); err != nil {
		badRequest(c, loginForm)
		return
	}
	if in.Next == "" {
		in.Next = c.Query("next")
	}
	_, pair, err := h.users.Login(c.Request.Context(), &in)
	if err != nil {
		fail(c, h.log, err, loginForm, "")
		return
	}
	h.setSession(c, pair.AccessToken)
	c.Header("X-Refresh-Token", pair.RefreshToken)
	c.Redirect(http.StatusFound, safeNext(in.Next))
}

func (h *UserHandler) Logout(c *gin.Context) {
	if user := middleware.CurrentUser(c); user != nil {
		if err := h.users.Logout(c.Request.Context(), user); err != nil {
			fail(c, h.log, err, "", "")
			return
		}
	}
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"msg": "logged out"})
}

// TokenRefresh 刷新 token 接口
func (h *UserHandler) TokenRefresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" form:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	pair, err := h.users.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired refresh token"})
		return
	}
	h.setSession(c, pair.AccessToken)
	c.JSON(http.StatusOK, pair)
}

// PasswordChange 登录态修改密码，成功后需要重新登录
func (h *UserHandler) PasswordChange(c *gin.Context) {
	var in form.PasswordChangeInput
	if err := c.ShouldBind(&in); err != nil {
		badRequest(c, passwordChangeForm)
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), middleware.CurrentUser(c), &in); err != nil {
		fail(c, h.log, err, passwordChangeForm, "")
		return
	}
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"msg": "password changed"})
}

// PasswordReset 发送重置密码验证码
func (h *UserHandler) PasswordReset(c *gin.Context) {
	var in form.PasswordResetInput
	if err := c.ShouldBind(&in); err != nil {
		badRequest(c, passwordResetForm)
		return
	}
	if err := h.emails.RequestPasswordReset(c.Request.Context(), &in); err != nil {
		fail(c, h.log, err, passwordResetForm, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "if the address is registered, a code has been sent"})
}

// PasswordResetConfirm 校验验证码并设置新密码
func (h *UserHandler) PasswordResetConfirm(c *gin.Context) {
	var in form.PasswordResetConfirmInput
	if err := c.ShouldBind(&in); err != nil {
		badRequest(c, resetConfirmForm)
		return
	}
	if err := h.emails.ConfirmPasswordReset(c.Request.Context(), &in); err != nil {
		fail(c, h.log, err, resetConfirmForm, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "password has been reset"})
}

func (h *UserHandler) setSession(c *gin.Context, accessToken string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, accessToken, int(pkg.AccessTTL.Seconds()), "/", "", h.secure, true)
}

// safeNext 只允许站内相对路径，防止开放重定向
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
