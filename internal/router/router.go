// Package router 组装 gin 引擎：模板、中间件和全部路由。
package router

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/config"
	"yatube/internal/api/admin"
	"yatube/internal/api/forms"
	"yatube/internal/api/posts"
	"yatube/internal/api/user"
	"yatube/internal/cache"
	"yatube/internal/errors"
	"yatube/internal/metrics"
	"yatube/internal/middleware"
	"yatube/internal/service"
	"yatube/internal/storage"
	"yatube/internal/util"
)

// Deps 路由需要的服务
type Deps struct {
	Config  config.Config
	Users   service.UserServiceInterface
	Posts   service.PostServiceInterface
	Follows service.FollowServiceInterface
	Pages   cache.Store
	Storage storage.Storage
	Metrics *metrics.Registry
}

// mediaCORS 上传文件允许前端跨域读取
func mediaCORS(cfg config.Config) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendURL}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	corsConfig.ExposeHeaders = []string{"Content-Length", "Content-Type"}
	return cors.New(corsConfig)
}

func New(d Deps) (*gin.Engine, error) {
	if err := forms.Setup(); err != nil {
		return nil, err
	}
	cfg := d.Config

	r := gin.New()
	r.Use(middleware.RequestLogger(d.Metrics))
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(middleware.NewErrorMonitor(d.Metrics)))
	r.Use(middleware.CurrentUser(d.Users, cfg.SessionCookie))

	r.SetFuncMap(TemplateFuncs(d.Storage))
	r.LoadHTMLGlob(filepath.Join(cfg.TemplatesDir, "*", "*.html"))

	indexCache := middleware.CachePage(d.Pages, cfg.PageCacheTTL, d.Metrics)
	posts.NewPostHandler(d.Posts, d.Follows, d.Metrics).RegisterRoutes(r, indexCache)

	limiter := middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	user.NewAuthHandler(d.Users, cfg.SessionCookie, secureCookie(cfg)).
		RegisterRoutes(r, middleware.RateLimit(limiter, d.Metrics))

	admin.NewAdminHandler(d.Pages, d.Metrics).RegisterRoutes(r)

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	if cfg.StaticDir != "" {
		r.Static("/static", cfg.StaticDir)
	}
	if local, ok := d.Storage.(*storage.LocalStorage); ok {
		media := r.Group("/media", mediaCORS(cfg))
		media.Static("/", local.BasePath())
	}

	r.NoRoute(errors.NotFound)

	if cfg.Debug {
		for _, route := range r.Routes() {
			util.Logger.Debug("路由",
				zap.String("method", route.Method),
				zap.String("path", route.Path),
				zap.String("handler", route.Handler))
		}
	}
	return r, nil
}

func secureCookie(cfg config.Config) bool {
	return strings.HasPrefix(cfg.BackendURL, "https://")
}
