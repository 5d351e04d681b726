package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/api/forms"
	"yatube/internal/errors"
	"yatube/internal/middleware"
	"yatube/internal/model"
	"yatube/internal/service"
	"yatube/internal/urls"
	"yatube/internal/util"
)

type SignupForm struct {
	FirstName string `form:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" binding:"max=150"`
	Username  string `form:"username" binding:"required,max=150,username"`
	Email     string `form:"email" binding:"required,email"`
	Password1 string `form:"password1" binding:"required"`
	Password2 string `form:"password2" binding:"required,eqfield=Password1"`
}

type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// AuthHandler 处理与认证相关的HTTP请求
type AuthHandler struct {
	userService  service.UserServiceInterface
	cookieName   string
	secureCookie bool
}

// NewAuthHandler 创建一个新的 AuthHandler 实例，secureCookie 为 true 时会话 Cookie 只通过 HTTPS 发送
func NewAuthHandler(userService service.UserServiceInterface, cookieName string, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		cookieName:   cookieName,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) render(c *gin.Context, name string, data gin.H) {
	if _, ok := data["current_user"]; !ok {
		data["current_user"] = middleware.UserFrom(c)
	}
	c.HTML(http.StatusOK, name, data)
}

// fieldError 把服务层错误放到对应字段，无法对应时返回 false
func fieldError(form *forms.Form, err error, fields map[errors.ErrorCode]string) bool {
	appErr, ok := errors.As(err)
	if !ok {
		return false
	}
	field, ok := fields[appErr.Code]
	if !ok {
		return false
	}
	form.AddError(field, appErr.Message)
	return true
}

// Signup 处理用户注册，成功后跳转到首页
func (h *AuthHandler) Signup(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		h.render(c, "users/signup.html", gin.H{"form": forms.New(&SignupForm{})})
		return
	}

	form := forms.Bind(c, &SignupForm{})
	if !form.Valid() {
		util.Logger.Info("注册失败，无效的请求数据", zap.Any("errors", form.Errors))
		h.render(c, "users/signup.html", gin.H{"form": form})
		return
	}

	values := form.Values.(*SignupForm)
	user := &model.User{
		Username:  values.Username,
		Email:     values.Email,
		FirstName: values.FirstName,
		LastName:  values.LastName,
	}
	if err := h.userService.Register(c.Request.Context(), user, values.Password1); err != nil {
		if fieldError(form, err, map[errors.ErrorCode]string{
			errors.ErrUserExists:   "username",
			errors.ErrWeakPassword: "password1",
		}) {
			util.Logger.Info("注册失败", zap.String("username", user.Username), zap.Error(err))
			h.render(c, "users/signup.html", gin.H{"form": form})
			return
		}
		util.Logger.Error("注册失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	c.Redirect(http.StatusFound, urls.MustReverse("posts:index"))
}

func nextParam(c *gin.Context) string {
	if next := c.PostForm("next"); next != "" {
		return next
	}
	return c.Query("next")
}

// Login 校验用户名和密码，把会话令牌写入 HttpOnly Cookie 后跳转到 next
func (h *AuthHandler) Login(c *gin.Context) {
	next := nextParam(c)
	if c.Request.Method != http.MethodPost {
		h.render(c, "users/login.html", gin.H{"form": forms.New(&LoginForm{}), "next": next})
		return
	}

	form := forms.Bind(c, &LoginForm{})
	if !form.Valid() {
		h.render(c, "users/login.html", gin.H{"form": form, "next": next})
		return
	}

	values := form.Values.(*LoginForm)
	_, token, err := h.userService.Login(c.Request.Context(), values.Username, values.Password)
	if err != nil {
		if fieldError(form, err, map[errors.ErrorCode]string{errors.ErrInvalidCredentials: forms.NonFieldErrors}) {
			h.render(c, "users/login.html", gin.H{"form": form, "next": next})
			return
		}
		errors.HandleError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, int(util.SessionTTL.Seconds()), "/", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, urls.SafeNext(next, urls.MustReverse("posts:index")))
}

// Logout 撤销当前令牌并清除 Cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	h.userService.Logout(c.GetString(middleware.ContextTokenKey))

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secureCookie, true)
	h.render(c, "users/logged_out.html", gin.H{"current_user": (*model.User)(nil)})
}

func getPost(r gin.IRoutes, path string, handler gin.HandlerFunc) {
	r.GET(path, handler)
	r.POST(path, handler)
}

// RegisterRoutes 注册认证相关路由，limit 只作用于登录、注册和找回密码
func (h *AuthHandler) RegisterRoutes(r gin.IRouter, limit gin.HandlerFunc) {
	limited := r.Group("")
	if limit != nil {
		limited.Use(limit)
	}
	getPost(limited, urls.Path("users:signup"), h.Signup)
	getPost(limited, urls.Path("users:login"), h.Login)
	getPost(limited, urls.Path("users:password_reset"), h.PasswordReset)
	getPost(r, urls.Path("users:logout"), h.Logout)

	r.GET(urls.Path("users:password_reset_done"), h.PasswordResetDone)
	getPost(r, urls.Path("users:password_reset_confirm"), h.PasswordResetConfirm)
	r.GET(urls.Path("users:password_reset_complete"), h.PasswordResetComplete)

	auth := r.Group("", middleware.LoginRequired())
	getPost(auth, urls.Path("users:password_change"), h.PasswordChange)
	auth.GET(urls.Path("users:password_change_done"), h.PasswordChangeDone)
}
