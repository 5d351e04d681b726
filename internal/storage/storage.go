// Package storage 保存帖子图片等上传文件。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"yatube/config"
	"yatube/internal/util"
)

// PostImageDir 帖子图片的存储目录
const PostImageDir = "posts"

// ErrNotImage 上传的文件不是图片
var ErrNotImage = errors.New("上传的文件不是有效的图片")

// Storage 上传后返回存储键（例如 posts/small.gif），URL 把存储键转换成可访问地址
type Storage interface {
	UploadFile(ctx context.Context, file *multipart.FileHeader, key string) (string, error)
	URL(key string) string
}

// New 根据配置选择存储后端
func New(cfg config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case "", "local":
		return NewLocalStorage(cfg.LocalStoragePath, strings.TrimRight(cfg.BackendURL, "/")+"/media/")
	case "s3":
		return NewS3Client(cfg.S3Region, cfg.S3Bucket)
	case "gcs":
		return NewGCSClient(cfg.GCSProjectID, cfg.GCSBucketName, cfg.GCSCredentialsFile)
	default:
		return nil, fmt.Errorf("不支持的存储后端: %s", cfg.StorageBackend)
	}
}

// ImageKey 帖子图片的存储键 posts/<文件名>
func ImageKey(filename string) string {
	return path.Join(PostImageDir, util.CleanFilename(filename))
}

// DetectImage 根据文件内容判断是否为图片，返回识别出的 MIME 类型
func DetectImage(file *multipart.FileHeader) (string, error) {
	f, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("读取上传文件失败: %w", err)
	}
	if n == 0 {
		return "", ErrNotImage
	}

	contentType := http.DetectContentType(head[:n])
	if !strings.HasPrefix(contentType, "image/") {
		return contentType, ErrNotImage
	}
	return contentType, nil
}
