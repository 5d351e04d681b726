package util

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// CleanFilename 只保留上传文件名的最后一段
func CleanFilename(originalFilename string) string {
	name := filepath.Base(strings.ReplaceAll(originalFilename, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}

// GenerateUniqueFilename 生成唯一的文件名
func GenerateUniqueFilename(originalFilename string) string {
	name := CleanFilename(originalFilename)
	ext := filepath.Ext(name)
	base := name[:len(name)-len(ext)]

	return base + "_" + uuid.NewString()[:8] + ext
}
