package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/middleware"
	"yatube/internal/service"
)

type FollowHandler struct {
	svc *service.FollowService
	log *zap.Logger
}

func NewFollowHandler(svc *service.FollowService, log *zap.Logger) *FollowHandler {
	return &FollowHandler{svc: svc, log: log}
}

// Follow 关注，完成后回到作者主页
func (h *FollowHandler) Follow(c *gin.Context) {
	username := c.Param("username")
	if err := h.svc.Follow(c.Request.Context(), middleware.CurrentUser(c), username); err != nil {
		fail(c, h.log, err, "", "")
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

// Unfollow 取消关注
func (h *FollowHandler) Unfollow(c *gin.Context) {
	username := c.Param("username")
	if err := h.svc.Unfollow(c.Request.Context(), middleware.CurrentUser(c), username); err != nil {
		fail(c, h.log, err, "", "")
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}
