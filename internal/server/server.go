package server

import (
	"net/http"
	"strings"

	"github.com/iceymoss/go-blog/internal/cache"
	"github.com/iceymoss/go-blog/internal/conf"
	"github.com/iceymoss/go-blog/internal/handler"
	"github.com/iceymoss/go-blog/internal/middleware"
	"github.com/iceymoss/go-blog/internal/render"
	"github.com/iceymoss/go-blog/internal/repo"
	zLog "github.com/iceymoss/go-blog/pkg/logger"
	"github.com/iceymoss/go-blog/pkg/sensitive"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	engine *gin.Engine
	warmer *cache.Warmer
}

// NewServer 组装整个服务：仓储、缓存、页面渲染和路由
// 存储和缓存客户端由进程入口构造后注入，这里不持有全局连接
func NewServer(cfg *conf.Config, gdb *gorm.DB, rdb *redis.Client) (*Server, error) {
	articles := repo.NewArticleRepo(gdb)
	comments := repo.NewCommentRepo(gdb)
	users := repo.NewUserRepo(gdb)
	articleCache := cache.NewArticleCache(rdb, cfg.Cache.ListTTL, cfg.Cache.DetailTTL)
	auth := middleware.NewAuth(cfg.JWT.Secret, cfg.JWT.TTL)

	// 词库可选，加载失败只是少了评论筛查，不影响启动
	var screen handler.CommentScreener
	if cfg.Sensitive.Dict != "" {
		w, err := sensitive.NewWord(cfg.Sensitive.Dict)
		if err != nil {
			zLog.Warn("load sensitive dict failed, skip comment screening",
				zap.String("dict", cfg.Sensitive.Dict), zap.Error(err))
		} else {
			screen = w
		}
	}

	articlesAPI := handler.NewArticles(articles, comments, articleCache, screen)
	authAPI := handler.NewAuth(users, auth)
	aiAPI := handler.NewAI(cfg.AI.APIKey, cfg.AI.Model)
	adminAPI := handler.NewAdmin(cfg.Mysql, cfg.Backup.Dir)

	renderer, err := render.NewRenderer()
	if err != nil {
		return nil, err
	}
	pages := render.NewPages(renderer, articles, comments)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	api := router.Group("/api", middleware.RateLimit(rdb, cfg.RateLimit.Window, cfg.RateLimit.Max))
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/register", authAPI.Register)
		authGroup.POST("/login", authAPI.Login)
		authGroup.GET("/me", auth.Authenticate(), authAPI.Me)

		arts := api.Group("/articles")
		arts.GET("", articlesAPI.List)
		arts.GET("/admin", auth.Authenticate(), auth.RequireAdmin(), articlesAPI.ListAdmin)
		arts.GET("/tags", articlesAPI.Tags)
		arts.GET("/:id", articlesAPI.Detail)
		arts.GET("/:id/comments", articlesAPI.ListComments)
		arts.POST("/:id/comments", articlesAPI.AddComment)
		arts.POST("", auth.Authenticate(), auth.RequireAdmin(), articlesAPI.Create)
		arts.PUT("/:id", auth.Authenticate(), auth.RequireAdmin(), articlesAPI.Update)
		arts.DELETE("/:id", auth.Authenticate(), auth.RequireAdmin(), articlesAPI.Delete)

		api.POST("/ai/generate", auth.Authenticate(), auth.RequireAdmin(), aiAPI.Generate)
		api.POST("/admin/backup", auth.Authenticate(), auth.RequireAdmin(), adminAPI.Backup)
	}

	// 页面路由，取数失败降级渲染而不是 500
	router.GET("/", pages.Home)
	router.GET("/article/:id", pages.Detail)
	router.GET("/admin", pages.Admin)

	router.Static("/public", "./public")

	router.NoRoute(func(c *gin.Context) {
		// API 404 保持 JSON，防止返回 HTML 页面
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API not found"})
			return
		}
		c.Redirect(http.StatusFound, "/")
	})

	srv := &Server{engine: router}
	if cfg.Cache.WarmEnable {
		srv.warmer = cache.NewWarmer(articleCache, articles, cfg.Cache.WarmCron)
	}
	return srv, nil
}

func (s *Server) Run(addr string) error {
	if s.warmer != nil {
		if err := s.warmer.Start(); err != nil {
			zLog.Error("start cache warmer failed", zap.Error(err))
		}
		defer s.warmer.Stop()
	}
	return s.engine.Run(addr)
}
