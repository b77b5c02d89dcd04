package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/form"
	"yatube/internal/middleware"
	"yatube/internal/model"
	"yatube/internal/service"
	"yatube/internal/storage"
)

const (
	postForm    = "post"
	commentForm = "comment"
)

type PostHandler struct {
	svc   *service.PostService
	blobs storage.BlobStore
	log   *zap.Logger
}

func NewPostHandler(svc *service.PostService, blobs storage.BlobStore, log *zap.Logger) *PostHandler {
	return &PostHandler{svc: svc, blobs: blobs, log: log}
}

// Detail 帖子详情，附带评论和评论表单
func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	detail, err := h.svc.GetPost(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err, "", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"post":         newPostView(detail.Post, h.blobs),
		"author_posts": detail.AuthorPosts,
		"comments":     newCommentViews(detail.Comments),
		"form": gin.H{
			"name":   commentForm,
			"action": postURL(id) + "comment/",
			"fields": []formField{{Name: "text", Type: "textarea", Required: true}},
		},
	})
}

// AddComment 发表评论
func (h *PostHandler) AddComment(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	var in form.CommentInput
	if err := c.ShouldBind(&in); err != nil {
		badRequest(c, commentForm)
		return
	}
	if _, err := h.svc.AddComment(c.Request.Context(), middleware.CurrentUser(c), id, &in); err != nil {
		fail(c, h.log, err, commentForm, "")
		return
	}
	c.Redirect(http.StatusFound, postURL(id))
}

// CreateForm 新建帖子表单
func (h *PostHandler) CreateForm(c *gin.Context) {
	fields, err := h.postFields(c, nil)
	if err != nil {
		fail(c, h.log, err, postForm, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": gin.H{"name": postForm, "action": "/create/", "fields": fields}})
}

// Create 创建帖子，成功后跳转到作者主页
func (h *PostHandler) Create(c *gin.Context) {
	in, ok := h.bindPost(c)
	if !ok {
		return
	}
	post, err := h.svc.CreatePost(c.Request.Context(), middleware.CurrentUser(c), in)
	if err != nil {
		fail(c, h.log, err, postForm, "")
		return
	}
	c.Redirect(http.StatusFound, profileURL(post.Author.Username))
}

// EditForm 编辑表单，非作者跳转到帖子详情
func (h *PostHandler) EditForm(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	post, err := h.svc.PostForEdit(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		fail(c, h.log, err, postForm, postURL(id))
		return
	}
	fields, err := h.postFields(c, post)
	if err != nil {
		fail(c, h.log, err, postForm, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"form":    gin.H{"name": postForm, "action": postURL(id) + "edit/", "fields": fields},
		"is_edit": true,
		"post":    newPostView(post, h.blobs),
	})
}

// Edit 编辑帖子
func (h *PostHandler) Edit(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	// 先确认归属，非作者不看请求体直接跳回详情页
	if _, err := h.svc.PostForEdit(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		fail(c, h.log, err, postForm, postURL(id))
		return
	}
	in, ok := h.bindPost(c)
	if !ok {
		return
	}
	if _, err := h.svc.EditPost(c.Request.Context(), middleware.CurrentUser(c), id, in); err != nil {
		fail(c, h.log, err, postForm, postURL(id))
		return
	}
	c.Redirect(http.StatusFound, postURL(id))
}

func (h *PostHandler) bindPost(c *gin.Context) (*form.PostInput, bool) {
	var in form.PostInput
	if err := c.ShouldBind(&in); err != nil {
		badRequest(c, postForm)
		return nil, false
	}
	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		in.Image = fh
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		badRequest(c, postForm)
		return nil, false
	}
	return &in, true
}

func (h *PostHandler) postFields(c *gin.Context, post *model.Post) ([]formField, error) {
	groups, err := h.svc.Groups(c.Request.Context())
	if err != nil {
		return nil, err
	}
	choices := make([]choice, 0, len(groups))
	for _, g := range groups {
		choices = append(choices, choice{Value: strconv.FormatUint(g.ID, 10), Label: g.Title})
	}
	text, group := formField{Name: "text", Type: "textarea", Required: true}, formField{Name: "group", Type: "select", Choices: choices}
	if post != nil {
		text.Value = post.Text
		if post.GroupID != nil {
			group.Value = strconv.FormatUint(*post.GroupID, 10)
		}
	}
	return []formField{text, group, {Name: "image", Type: "file"}}, nil
}
