// Package urls 按名称反向解析路由地址。
package urls

import (
	"fmt"
	"net/url"
	"strings"
)

// Routes 路由名称到 gin 路径模板的映射
var Routes = map[string]string{
	"posts:index":            "/",
	"posts:group_list":       "/group/:slug/",
	"posts:profile":          "/profile/:username/",
	"posts:post_detail":      "/posts/:post_id/",
	"posts:post_create":      "/create/",
	"posts:post_edit":        "/posts/:post_id/edit/",
	"posts:add_comment":      "/posts/:post_id/comment/",
	"posts:follow_index":     "/follow/",
	"posts:profile_follow":   "/profile/:username/follow/",
	"posts:profile_unfollow": "/profile/:username/unfollow/",

	"users:signup":                  "/auth/signup/",
	"users:login":                   "/auth/login/",
	"users:logout":                  "/auth/logout/",
	"users:password_change":         "/auth/password_change/",
	"users:password_change_done":    "/auth/password_change/done/",
	"users:password_reset":          "/auth/password_reset/",
	"users:password_reset_done":     "/auth/password_reset/done/",
	"users:password_reset_confirm":  "/auth/reset/:token/",
	"users:password_reset_complete": "/auth/reset/done/",

	"admin:cache_clear": "/admin/cache/clear/",
}

// Path 返回路由模板，名称不存在时 panic
func Path(name string) string {
	pattern, ok := Routes[name]
	if !ok {
		panic("urls: unknown route " + name)
	}
	return pattern
}

// Reverse 依次用 args 替换模板中的 :参数
func Reverse(name string, args ...interface{}) (string, error) {
	pattern, ok := Routes[name]
	if !ok {
		return "", fmt.Errorf("未知的路由名称: %s", name)
	}

	segments := strings.Split(pattern, "/")
	next := 0
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		if next >= len(args) {
			return "", fmt.Errorf("路由 %s 缺少参数 %s", name, seg)
		}
		segments[i] = url.PathEscape(fmt.Sprint(args[next]))
		next++
	}
	if next != len(args) {
		return "", fmt.Errorf("路由 %s 参数过多", name)
	}
	return strings.Join(segments, "/"), nil
}

// MustReverse 用于路由名称和参数在编译期就确定的场景
func MustReverse(name string, args ...interface{}) string {
	path, err := Reverse(name, args...)
	if err != nil {
		panic(err)
	}
	return path
}

// WithNext 生成带 ?next= 的登录地址
func WithNext(name, next string) string {
	return MustReverse(name) + "?next=" + url.QueryEscape(next)
}

// SafeNext 只接受站内的相对地址，防止开放重定向
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
