// Package forms 处理 HTML 表单的绑定、校验错误和回显。
package forms

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"yatube/internal/util"
)

// NonFieldErrors 不属于任何字段的错误
const NonFieldErrors = "__all__"

// Form 模板中使用的表单：Values 为绑定的结构体，Errors 为字段错误
type Form struct {
	Values interface{}
	Errors map[string]string
}

func New(values interface{}) *Form {
	return &Form{Values: values, Errors: map[string]string{}}
}

func (f *Form) Valid() bool {
	return len(f.Errors) == 0
}

// AddError 同一字段只保留第一条错误
func (f *Form) AddError(field, message string) {
	if _, exists := f.Errors[field]; !exists {
		f.Errors[field] = message
	}
}

func (f *Form) Error(field string) string {
	return f.Errors[field]
}

func (f *Form) HasError(field string) bool {
	_, ok := f.Errors[field]
	return ok
}

var setupOnce sync.Once

// Setup 让校验错误使用 form 标签作为字段名，并注册自定义验证器
func Setup() error {
	var err error
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("不支持的验证器引擎: %T", binding.Validator.Engine())
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		err = util.RegisterValidators(v)
	})
	return err
}

// Bind 绑定请求表单到 values，返回带有字段错误的 Form
func Bind(c *gin.Context, values interface{}) *Form {
	form := New(values)
	if err := c.ShouldBind(values); err != nil {
		form.addBindError(err)
	}
	return form
}

func (f *Form) addBindError(err error) {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		f.AddError(NonFieldErrors, "无法解析表单数据")
		return
	}
	for _, fe := range verrs {
		f.AddError(fe.Field(), Message(fe))
	}
}

// Message 把验证标签翻译为提示信息
func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "此字段为必填项"
	case "email":
		return "请输入有效的邮箱地址"
	case "eqfield":
		return "两次输入的密码不一致"
	case "username":
		return "用户名只能包含字母、数字和 @/./+/-/_"
	case "slug":
		return "只能包含字母、数字、连字符和下划线"
	case "max":
		return fmt.Sprintf("最多 %s 个字符", fe.Param())
	case "min":
		return fmt.Sprintf("至少 %s 个字符", fe.Param())
	}
	return "输入的值无效"
}
