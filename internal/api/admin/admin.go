package admin

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/cache"
	"yatube/internal/errors"
	"yatube/internal/metrics"
	"yatube/internal/middleware"
	"yatube/internal/urls"
	"yatube/internal/util"
)

// AdminHandler 管理员操作
type AdminHandler struct {
	pages   cache.Store
	metrics *metrics.Registry
}

// NewAdminHandler 创建一个新的 AdminHandler 实例
func NewAdminHandler(pages cache.Store, m *metrics.Registry) *AdminHandler {
	return &AdminHandler{pages: pages, metrics: m}
}

// ClearCache 清空页面缓存，写操作不会自动清空缓存
func (h *AdminHandler) ClearCache(c *gin.Context) {
	if err := h.pages.Clear(c.Request.Context()); err != nil {
		util.Logger.Error("清空页面缓存失败", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrCache, "清空页面缓存失败", err))
		return
	}

	if h.metrics != nil {
		h.metrics.CacheClears.Inc()
	}
	util.Logger.Info("页面缓存已清空", zap.Int("user_id", c.GetInt(middleware.ContextUserIDKey)))
	errors.HandleSuccess(c, nil, "页面缓存已清空")
}

// RegisterRoutes 管理员路由需要登录且角色为 admin
func (h *AdminHandler) RegisterRoutes(r gin.IRouter) {
	group := r.Group("", middleware.LoginRequired(), middleware.AdminMiddleware())
	group.POST(urls.Path("admin:cache_clear"), h.ClearCache)
}
