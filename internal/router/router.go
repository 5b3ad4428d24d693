package router

import (
	"net/http"

	"newsapp/internal/handlers"
	"newsapp/internal/metrics"
	"newsapp/internal/middleware"
	"newsapp/internal/models"
	"newsapp/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const sessionName = "newsapp_session"

// Services 路由依赖的全部服务
type Services struct {
	Users      *services.UserService
	Content    *services.ContentService
	Ranking    *services.RankingService
	Votes      *services.VoteService
	Comments   *services.CommentService
	Moderation *services.ModerationService
	Feeds      *services.RSSFetcher
	Captcha    *services.CaptchaService
}

// Options 引擎级配置
type Options struct {
	Log           zerolog.Logger
	SessionSecret string
	SecureCookie  bool
	StaticDir     string // 为空时不挂载静态文件
	Renderer      render.HTMLRender
	Limiter       *middleware.RateLimiter
}

// New builds the engine with middleware, templates and every route.
func New(opts Options, s Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(opts.Log))
	r.Use(metrics.Middleware())

	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		Secure:   opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(middleware.LoadUser(s.Users))
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Middleware())
	}

	r.HTMLRender = opts.Renderer
	if opts.StaticDir != "" {
		r.Static("/static", opts.StaticDir)
	}

	RegisterRoutes(r, s)
	return r
}

func RegisterRoutes(r *gin.Engine, s Services) {
	// Handlers
	newsHandler := handlers.NewNewsHandler(s.Content, s.Comments, s.Votes)
	submissionHandler := handlers.NewSubmissionHandler(s.Content, s.Ranking, s.Votes, s.Comments, s.Moderation)
	voteHandler := handlers.NewVoteHandler(s.Votes, s.Content, s.Comments)
	commentHandler := handlers.NewCommentHandler(s.Comments, s.Votes)
	authHandler := handlers.NewAuthHandler(s.Users, s.Captcha)
	userHandler := handlers.NewUserHandler(s.Users, s.Ranking, s.Votes)
	siteHandler := handlers.NewSiteHandler(s.Content)
	adminHandler := handlers.NewAdminHandler(s.Content, s.Moderation, s.Votes, s.Feeds)

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 公共路由 (Public Routes)
	r.GET("/", newsHandler.List)
	r.GET("/about", newsHandler.About)
	r.GET("/articles/:id", newsHandler.Article)
	r.GET("/submissions", submissionHandler.List) // ?range=day|week|month|year|all
	r.GET("/submissions/new", submissionHandler.ListNew)
	r.GET("/submissions/:id", submissionHandler.Detail)
	r.GET("/sites", siteHandler.List)
	r.GET("/sites/:id", siteHandler.Show)
	r.GET("/users/:username", userHandler.Profile)
	r.GET("/users/:username/submissions", userHandler.Submissions)

	// 登录页同时承担注册表单
	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)
	r.GET("/forgot", authHandler.ShowForgot)
	r.POST("/forgot", authHandler.Forgot)
	r.GET("/reset", authHandler.ShowReset)
	r.POST("/reset", authHandler.Reset)

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/submit", submissionHandler.ShowCreate)
		authorized.POST("/submit", submissionHandler.Create)
		authorized.DELETE("/submissions/:id", submissionHandler.Delete)
		authorized.POST("/submissions/:id/delete", submissionHandler.Delete) // 无 JS 时的表单删除
		authorized.POST("/submissions/:id/report", submissionHandler.Report)
		authorized.POST("/submissions/:id/vote", voteHandler.Upvote)
		authorized.POST("/submissions/:id/downvote", voteHandler.Downvote)

		// 评论
		authorized.POST("/submissions/:id/comments", commentHandler.Add(models.TargetSubmission))
		authorized.POST("/articles/:id/comments", commentHandler.Add(models.TargetArticle))
		authorized.GET("/comments/:id/edit", commentHandler.EditForm)
		authorized.POST("/comments/:id/edit", commentHandler.Edit)
		authorized.DELETE("/comments/:id", commentHandler.Delete)
		authorized.POST("/comments/:id/delete", commentHandler.Delete)
		authorized.POST("/comments/:id/vote", voteHandler.VoteComment)

		// 个人设置
		authorized.GET("/profile", userHandler.ShowSettings)
		authorized.POST("/profile", userHandler.UpdateSettings)
		authorized.POST("/profile/delete", userHandler.DeleteAccount)
	}

	// 管理路由 (Staff Routes)
	admin := r.Group("/admin")
	admin.Use(middleware.StaffRequired())
	{
		admin.GET("", adminHandler.Dashboard)
		admin.GET("/submissions/:id/reports", adminHandler.Reports)
		admin.POST("/submissions/:id/moderate", adminHandler.Moderate)
		admin.POST("/submissions/:id/recount", adminHandler.Recount)
		admin.POST("/sites", adminHandler.CreateSite)
		admin.POST("/sites/:id/refresh", adminHandler.RefreshSite)
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.RenderError(c, http.StatusNotFound, "The page you are looking for does not exist.")
	})
}
