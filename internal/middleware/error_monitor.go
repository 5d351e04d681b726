package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/errors"
	"yatube/internal/metrics"
	"yatube/internal/util"
)

type ErrorMonitor struct {
	errorCounts map[errors.ErrorCode]int
	mu          sync.RWMutex
	metrics     *metrics.Registry
}

// NewErrorMonitor m 可以为 nil，此时只在内存中计数
func NewErrorMonitor(m *metrics.Registry) *ErrorMonitor {
	return &ErrorMonitor{
		errorCounts: make(map[errors.ErrorCode]int),
		metrics:     m,
	}
}

func (m *ErrorMonitor) RecordError(err error) {
	code := errors.CodeOf(err)
	m.mu.Lock()
	m.errorCounts[code]++
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.RecordError(int(code))
	}
}

func (m *ErrorMonitor) GetErrorCounts() map[errors.ErrorCode]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[errors.ErrorCode]int)
	for code, count := range m.errorCounts {
		counts[code] = count
	}
	return counts
}

func ErrorMonitorMiddleware(monitor *ErrorMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, e := range c.Errors {
			monitor.RecordError(e.Err)

			fields := []zap.Field{
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.String("request_id", c.GetString(ContextRequestIDKey)),
			}
			if appErr, ok := errors.As(e.Err); ok {
				fields = append(fields,
					zap.Int("error_code", int(appErr.Code)),
					zap.String("error_message", appErr.Message),
					zap.Error(appErr.Err))
			} else {
				fields = append(fields, zap.Error(e.Err))
			}

			if errors.StatusOf(e.Err) >= 500 {
				util.Logger.Error("请求处理错误", fields...)
			} else {
				util.Logger.Info("请求处理错误", fields...)
			}
		}
	}
}
