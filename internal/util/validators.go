package util

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// ValidateUsername 用户名只能包含字母、数字和 @/./+/-/_
func ValidateUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}

// ValidateSlug 校验分组 slug
func ValidateSlug(fl validator.FieldLevel) bool {
	return slugPattern.MatchString(fl.Field().String())
}

// RegisterValidators 注册自定义验证器
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("username", ValidateUsername); err != nil {
		return err
	}
	return v.RegisterValidation("slug", ValidateSlug)
}

// IsPasswordStrong 至少8位，且同时包含大写、小写、数字和符号
func IsPasswordStrong(password string) bool {
	var (
		hasUpper   = false
		hasLower   = false
		hasNumber  = false
		hasSpecial = false
	)
	if len([]rune(password)) < 8 {
		return false
	}
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
