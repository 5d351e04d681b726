package router

import (
	"html/template"
	"strings"
	"time"

	"yatube/internal/storage"
	"yatube/internal/urls"
)

// TemplateFuncs 模板中可用的函数
func TemplateFuncs(store storage.Storage) template.FuncMap {
	return template.FuncMap{
		"url": urls.Reverse,
		"media": func(key string) string {
			if key == "" || store == nil {
				return ""
			}
			return store.URL(key)
		},
		"truncatewords": TruncateWords,
		"linebreaksbr":  LinebreaksBR,
		"date": func(layout string, t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format(layout)
		},
	}
}

// TruncateWords 保留前 n 个单词，截断时以 … 结尾
func TruncateWords(n int, s string) string {
	words := strings.Fields(s)
	if n < 1 || len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + " …"
}

// LinebreaksBR 转义文本并把换行替换为 <br>
func LinebreaksBR(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
