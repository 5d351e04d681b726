package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/errors"
	"yatube/internal/util"
)

// AdminMiddleware 确保只有管理员可以访问某些路由，需放在 LoginRequired 之后
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := UserFrom(c)
		if user == nil {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要认证"))
			return
		}

		if !user.IsAdmin() {
			util.Logger.Warn("非管理员访问",
				zap.Int("user_id", user.ID),
				zap.String("path", c.Request.URL.Path))
			errors.HandleError(c, errors.New(errors.ErrForbidden, "需要管理员权限"))
			return
		}

		util.Logger.Info("管理员验证通过", zap.Int("user_id", user.ID))
		c.Next()
	}
}
