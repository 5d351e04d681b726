package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"yatube/internal/errors"
	"yatube/internal/metrics"
	"yatube/internal/util"
)

// IPRateLimiter 按客户端 IP 分别限流
type IPRateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

func (l *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[ip]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, exists := l.limiters[ip]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.limiters[ip] = limiter
	return limiter
}

func (l *IPRateLimiter) Allow(ip string) bool {
	return l.getLimiter(ip).Allow()
}

// RateLimit 只限制 POST 请求，GET 页面不受影响
func RateLimit(limiter *IPRateLimiter, m *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if !limiter.Allow(ip) {
			util.Logger.Warn("请求过于频繁", zap.String("client_ip", ip), zap.String("path", c.Request.URL.Path))
			if m != nil {
				m.RateLimited.WithLabelValues(c.FullPath()).Inc()
			}
			errors.HandleError(c, errors.New(errors.ErrTooManyRequests, "请求过于频繁，请稍后再试"))
			return
		}
		c.Next()
	}
}
