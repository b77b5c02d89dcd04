package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/middleware"
	"yatube/internal/service"
	"yatube/internal/storage"
)

type FeedHandler struct {
	svc   *service.FeedService
	blobs storage.BlobStore
	log   *zap.Logger
}

func NewFeedHandler(svc *service.FeedService, blobs storage.BlobStore, log *zap.Logger) *FeedHandler {
	return &FeedHandler{svc: svc, blobs: blobs, log: log}
}

// Index 首页，所有帖子
func (h *FeedHandler) Index(c *gin.Context) {
	page, err := h.svc.Home(c.Request.Context(), c.Query("page"))
	if err != nil {
		fail(c, h.log, err, "", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": newPageView(page, h.blobs)})
}

// GroupPosts 分组下的帖子
func (h *FeedHandler) GroupPosts(c *gin.Context) {
	feed, err := h.svc.Group(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		fail(c, h.log, err, "", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"group": newGroupView(feed.Group),
		"page":  newPageView(feed.Page, h.blobs),
	})
}

// Profile 用户主页
func (h *FeedHandler) Profile(c *gin.Context) {
	viewer := middleware.CurrentUser(c)
	feed, err := h.svc.Profile(c.Request.Context(), viewer, c.Param("username"), c.Query("page"))
	if err != nil {
		fail(c, h.log, err, "", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"author":      newUserView(feed.Author),
		"post_count":  feed.Page.Total,
		"following":   feed.Following,
		"is_own_page": viewer != nil && viewer.ID == feed.Author.ID,
		"page":        newPageView(feed.Page, h.blobs),
	})
}

// FollowIndex 关注作者的帖子
func (h *FeedHandler) FollowIndex(c *gin.Context) {
	page, err := h.svc.Follow(c.Request.Context(), middleware.CurrentUser(c), c.Query("page"))
	if err != nil {
		fail(c, h.log, err, "", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": newPageView(page, h.blobs)})
}
