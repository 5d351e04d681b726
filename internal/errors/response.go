package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SuccessResponse 定义成功响应结构
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// 错误码与HTTP状态码映射
var errorStatusMap = map[ErrorCode]int{
	// 系统错误 (1000-1999)
	ErrInternal: http.StatusInternalServerError,
	ErrDatabase: http.StatusInternalServerError,
	ErrCache:    http.StatusInternalServerError,
	ErrTimeout:  http.StatusRequestTimeout,
	ErrStorage:  http.StatusInternalServerError,

	// 认证错误 (2000-2999)
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrForbidden:          http.StatusForbidden,
	ErrInvalidToken:       http.StatusUnauthorized,
	ErrTokenExpired:       http.StatusUnauthorized,
	ErrInvalidCredentials: http.StatusUnauthorized,
	ErrTooManyRequests:    http.StatusTooManyRequests,

	// 请求错误 (3000-3999)
	ErrBadRequest:       http.StatusBadRequest,
	ErrValidation:       http.StatusBadRequest,
	ErrResourceNotFound: http.StatusNotFound,
	ErrResourceExists:   http.StatusConflict,
	ErrResourceConflict: http.StatusConflict,

	// 业务错误 (4000-4999)
	ErrUserNotFound:  http.StatusNotFound,
	ErrUserExists:    http.StatusConflict,
	ErrWeakPassword:  http.StatusBadRequest,
	ErrPostNotFound:  http.StatusNotFound,
	ErrGroupNotFound: http.StatusNotFound,
	ErrInvalidImage:  http.StatusBadRequest,
}

// 错误页模板，其余状态码统一使用 core/500.html
var errorTemplates = map[int]string{
	http.StatusNotFound:  "core/404.html",
	http.StatusForbidden: "core/403.html",
}

// StatusOf 返回错误对应的HTTP状态码
func StatusOf(err error) int {
	if appErr, ok := As(err); ok {
		if status := errorStatusMap[appErr.Code]; status != 0 {
			return status
		}
	}
	return http.StatusInternalServerError
}

// TemplateFor 返回状态码对应的错误页模板
func TemplateFor(status int) string {
	if name, ok := errorTemplates[status]; ok {
		return name
	}
	return "core/500.html"
}

// HandleError 统一处理错误响应：记录到 gin 上下文并渲染错误页
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := StatusOf(err)
	message := http.StatusText(status)
	if appErr, ok := As(err); ok && status < http.StatusInternalServerError {
		message = appErr.Message
	}

	data := gin.H{
		"path":    c.Request.URL.Path,
		"status":  status,
		"message": message,
	}
	// 错误页同样显示登录用户的导航
	if user, ok := c.Get("user"); ok {
		data["current_user"] = user
	}
	c.HTML(status, TemplateFor(status), data)
	c.Abort()
}

// NotFound 渲染自定义 404 页面
func NotFound(c *gin.Context) {
	HandleError(c, New(ErrResourceNotFound, "页面不存在"))
}

// HandleSuccess 统一处理成功响应
func HandleSuccess(c *gin.Context, data interface{}, message string) {
	resp := SuccessResponse{
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	}
	c.JSON(http.StatusOK, resp)
}
