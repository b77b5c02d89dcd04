package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"yatube/internal/model"
)

const (
	ContextUserKey    = "user"
	AccessTokenCookie = "access_token"
	LoginURL          = "/auth/login/"
)

// Authenticator resolves an access token into the user owning the current session.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)
}

// Identify 尽力解析调用者身份：token 缺失或无效时按匿名用户继续处理
func Identify(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		user, err := auth.Authenticate(c.Request.Context(), token)
		if err == nil {
			// 注入当前用户
			c.Set(ContextUserKey, user)
		}
		c.Next()
	}
}

// LoginRequired redirects anonymous callers to the login page, carrying the
// requested path in ?next=.
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginRedirect(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the identified caller or nil for anonymous requests.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

func LoginRedirect(next string) string {
	return LoginURL + "?next=" + url.QueryEscape(next)
}

// token 优先取 Authorization: Bearer，其次取 cookie
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if v, err := c.Cookie(AccessTokenCookie); err == nil {
		return v
	}
	return ""
}
