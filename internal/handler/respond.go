package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/middleware"
	"yatube/internal/service"
)

// fail 把 service 层错误映射为 HTTP 响应。
// readOnly 是权限不足时的跳转地址，为空时按 403 处理。
func fail(c *gin.Context, log *zap.Logger, err error, formName, readOnly string) {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrAuthRequired):
		c.Redirect(http.StatusFound, middleware.LoginRedirect(c.Request.URL.RequestURI()))
	case errors.Is(err, service.ErrPermission):
		if readOnly == "" {
			c.JSON(http.StatusForbidden, gin.H{"msg": "forbidden"})
			return
		}
		c.Redirect(http.StatusFound, readOnly)
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"form": formName, "errors": verr.Fields})
	case errors.Is(err, service.ErrNotFound):
		notFound(c)
	default:
		log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "internal error"})
	}
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"msg": "not found"})
}

// NoRoute renders the same body as any other missing resource.
func NoRoute(c *gin.Context) {
	notFound(c)
}

func badRequest(c *gin.Context, formName string) {
	c.JSON(http.StatusBadRequest, gin.H{"form": formName, "msg": "invalid params"})
}

// postID 解析路径里的帖子 id，非法 id 与不存在的帖子一样返回 404
func postID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		notFound(c)
		return 0, false
	}
	return id, true
}

func postURL(id uint64) string {
	return fmt.Sprintf("/posts/%d/", id)
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}
