package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/handler"
	"yatube/internal/middleware"
	"yatube/internal/service"
	"yatube/internal/storage"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Users   *service.UserService
	Emails  *service.EmailService
	Posts   *service.PostService
	Feeds   *service.FeedService
	Follows *service.FollowService
	Blobs   storage.BlobStore

	PageStore middleware.PageStore
	HomeTTL   time.Duration

	// MediaURL/MediaRoot serve locally stored uploads; empty MediaRoot disables it.
	MediaURL  string
	MediaRoot string

	AllowedOrigins []string
	SecureCookies  bool
	Log            *zap.Logger
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(d.Log))

	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(middleware.Identify(d.Users))

	if d.MediaRoot != "" && d.MediaURL != "" {
		r.Static(d.MediaURL, d.MediaRoot)
	}
	r.NoRoute(handler.NoRoute)

	feed := handler.NewFeedHandler(d.Feeds, d.Blobs, d.Log)
	post := handler.NewPostHandler(d.Posts, d.Blobs, d.Log)
	follow := handler.NewFollowHandler(d.Follows, d.Log)
	user := handler.NewUserHandler(d.Users, d.Emails, d.SecureCookies, d.Log)

	// 首页缓存，其它列表不缓存
	r.GET("/", middleware.CachePage(d.PageStore, d.HomeTTL, d.Log), feed.Index)
	r.GET("/group/:slug/", feed.GroupPosts)
	r.GET("/profile/:username/", feed.Profile)
	r.GET("/posts/:id/", post.Detail)

	// 登录态接口
	authed := r.Group("/")
	authed.Use(middleware.LoginRequired())
	{
		authed.GET("/follow/", feed.FollowIndex)
		authed.GET("/create/", post.CreateForm)
		authed.POST("/create/", post.Create)
		authed.GET("/posts/:id/edit/", post.EditForm)
		authed.POST("/posts/:id/edit/", post.Edit)
		authed.POST("/posts/:id/comment/", post.AddComment)
		authed.POST("/profile/:username/follow/", follow.Follow)
		authed.POST("/profile/:username/unfollow/", follow.Unfollow)
	}

	// 用户相关接口
	auth := r.Group("/auth")
	{
		auth.POST("/signup/", user.Signup)
		auth.GET("/login/", user.LoginForm)
		auth.POST("/login/", user.Login)
		auth.POST("/logout/", user.Logout)
		auth.POST("/token/refresh/", user.TokenRefresh)
		auth.POST("/password_change/", middleware.LoginRequired(), user.PasswordChange)
		auth.POST("/password_reset/", user.PasswordReset)
		auth.POST("/password_reset/confirm/", user.PasswordResetConfirm)
	}

	about := r.Group("/about")
	{
		about.GET("/author/", handler.AboutAuthor)
		about.GET("/tech/", handler.AboutTech)
	}

	return r
}
