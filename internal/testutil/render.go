// Package testutil 提供 HTTP 处理器测试用的辅助工具。
package testutil

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

// Call 一次模板渲染
type Call struct {
	Name string
	Data gin.H
}

// Render 记录渲染过的模板名和上下文，响应体只包含模板名
type Render struct {
	mu    sync.Mutex
	calls []Call
}

func NewRender() *Render {
	return &Render{}
}

func (r *Render) Instance(name string, data interface{}) render.Render {
	h, _ := data.(gin.H)
	r.mu.Lock()
	r.calls = append(r.calls, Call{Name: name, Data: h})
	r.mu.Unlock()
	return render.Data{
		ContentType: "text/html; charset=utf-8",
		Data:        []byte(name),
	}
}

// Last 返回最近一次渲染，没有渲染过时 Name 为空
func (r *Render) Last() Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return Call{}
	}
	return r.calls[len(r.calls)-1]
}

func (r *Render) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// NewEngine 返回测试模式下使用记录渲染器的 gin 引擎
func NewEngine() (*gin.Engine, *Render) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rec := NewRender()
	r.HTMLRender = rec
	return r, rec
}
