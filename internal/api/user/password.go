package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/api/forms"
	"yatube/internal/errors"
	"yatube/internal/middleware"
	"yatube/internal/urls"
	"yatube/internal/util"
)

type PasswordChangeForm struct {
	OldPassword  string `form:"old_password" binding:"required"`
	NewPassword1 string `form:"new_password1" binding:"required"`
	NewPassword2 string `form:"new_password2" binding:"required,eqfield=NewPassword1"`
}

type PasswordResetForm struct {
	Email string `form:"email" binding:"required,email"`
}

type SetPasswordForm struct {
	NewPassword1 string `form:"new_password1" binding:"required"`
	NewPassword2 string `form:"new_password2" binding:"required,eqfield=NewPassword1"`
}

// PasswordChange 校验旧密码后修改密码
func (h *AuthHandler) PasswordChange(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		h.render(c, "users/password_change_form.html", gin.H{"form": forms.New(&PasswordChangeForm{})})
		return
	}

	form := forms.Bind(c, &PasswordChangeForm{})
	if !form.Valid() {
		h.render(c, "users/password_change_form.html", gin.H{"form": form})
		return
	}

	user := middleware.UserFrom(c)
	values := form.Values.(*PasswordChangeForm)
	if err := h.userService.ChangePassword(c.Request.Context(), user.ID, values.OldPassword, values.NewPassword1); err != nil {
		if fieldError(form, err, map[errors.ErrorCode]string{
			errors.ErrInvalidCredentials: "old_password",
			errors.ErrWeakPassword:       "new_password1",
		}) {
			h.render(c, "users/password_change_form.html", gin.H{"form": form})
			return
		}
		util.Logger.Error("修改密码失败", zap.Int("user_id", user.ID), zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	util.Logger.Info("密码修改成功", zap.Int("user_id", user.ID))
	c.Redirect(http.StatusFound, urls.MustReverse("users:password_change_done"))
}

func (h *AuthHandler) PasswordChangeDone(c *gin.Context) {
	h.render(c, "users/password_change_done.html", gin.H{})
}

// PasswordReset 发送重置邮件；邮箱未注册时同样跳转到完成页
func (h *AuthHandler) PasswordReset(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		h.render(c, "users/password_reset_form.html", gin.H{"form": forms.New(&PasswordResetForm{})})
		return
	}

	form := forms.Bind(c, &PasswordResetForm{})
	if !form.Valid() {
		h.render(c, "users/password_reset_form.html", gin.H{"form": form})
		return
	}

	values := form.Values.(*PasswordResetForm)
	if err := h.userService.RequestPasswordReset(c.Request.Context(), values.Email); err != nil {
		util.Logger.Error("请求密码重置失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	c.Redirect(http.StatusFound, urls.MustReverse("users:password_reset_done"))
}

func (h *AuthHandler) PasswordResetDone(c *gin.Context) {
	h.render(c, "users/password_reset_done.html", gin.H{})
}

// PasswordResetConfirm 链接无效时页面显示 validlink=false
func (h *AuthHandler) PasswordResetConfirm(c *gin.Context) {
	ctx := c.Request.Context()
	token := c.Param("token")

	if _, err := h.userService.CheckResetToken(ctx, token); err != nil {
		if !errors.IsCode(err, errors.ErrInvalidToken) {
			errors.HandleError(c, err)
			return
		}
		h.render(c, "users/password_reset_confirm.html", gin.H{"validlink": false})
		return
	}

	if c.Request.Method != http.MethodPost {
		h.render(c, "users/password_reset_confirm.html", gin.H{
			"validlink": true,
			"form":      forms.New(&SetPasswordForm{}),
		})
		return
	}

	form := forms.Bind(c, &SetPasswordForm{})
	if form.Valid() {
		values := form.Values.(*SetPasswordForm)
		err := h.userService.ResetPassword(ctx, token, values.NewPassword1)
		if err == nil {
			c.Redirect(http.StatusFound, urls.MustReverse("users:password_reset_complete"))
			return
		}
		if !fieldError(form, err, map[errors.ErrorCode]string{errors.ErrWeakPassword: "new_password1"}) {
			errors.HandleError(c, err)
			return
		}
	}

	h.render(c, "users/password_reset_confirm.html", gin.H{
		"validlink": true,
		"form":      form,
	})
}

func (h *AuthHandler) PasswordResetComplete(c *gin.Context) {
	h.render(c, "users/password_reset_complete.html", gin.H{})
}
