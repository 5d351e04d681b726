package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/cache"
	"yatube/internal/metrics"
	"yatube/internal/util"
)

const (
	CacheHeader     = "X-Cache"
	pageCachePrefix = "page:"
)

// cachedPage 缓存中保存的完整响应
type cachedPage struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bodyRecorder 在写给客户端的同时保留一份响应内容
type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// PageCacheKey 不同登录用户看到的页头不同，因此键中包含用户ID
func PageCacheKey(c *gin.Context) string {
	viewer := "anon"
	if user := UserFrom(c); user != nil {
		viewer = strconv.Itoa(user.ID)
	}
	return pageCachePrefix + c.Request.Method + ":" + c.Request.URL.RequestURI() + ":" + viewer
}

// CachePage 缓存整页 GET 响应 ttl 时长；写操作不会使缓存失效，只能显式清空
func CachePage(store cache.Store, ttl time.Duration, m *metrics.Registry) gin.HandlerFunc {
	record := func(result string) {
		if m != nil {
			m.RecordCache(result)
		}
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := PageCacheKey(c)

		raw, ok, err := store.Get(ctx, key)
		if err != nil {
			record("error")
			util.Logger.Warn("读取页面缓存失败", zap.String("key", key), zap.Error(err))
		}
		if ok {
			var page cachedPage
			if err := json.Unmarshal(raw, &page); err == nil {
				record("hit")
				c.Header(CacheHeader, "HIT")
				c.Data(page.Status, page.ContentType, page.Body)
				c.Abort()
				return
			}
			util.Logger.Warn("页面缓存内容损坏", zap.String("key", key))
		}
		record("miss")

		recorder := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder
		c.Header(CacheHeader, "MISS")

		c.Next()

		if recorder.Status() != http.StatusOK || c.IsAborted() || len(c.Errors) > 0 {
			return
		}

		payload, err := json.Marshal(cachedPage{
			Status:      recorder.Status(),
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		})
		if err != nil {
			return
		}
		if err := store.Set(ctx, key, payload, ttl); err != nil {
			util.Logger.Warn("写入页面缓存失败", zap.String("key", key), zap.Error(err))
		}
	}
}
