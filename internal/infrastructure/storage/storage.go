// Package storage 提供视频媒体文件的存储后端：本地目录、Google Cloud Storage 与 MinIO。
// 对象名由存储层生成（uuid + 原始扩展名），调用方只需保存返回的 Object.Name。
package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrObjectNotFound 表示对象不存在。
	ErrObjectNotFound = errors.New("media object not found")
	// ErrInvalidObjectName 表示对象名包含路径分隔符或为空。
	ErrInvalidObjectName = errors.New("invalid media object name")
)

// Object 描述一次成功写入的媒体对象。
type Object struct {
	Name        string
	URL         string
	ContentType string
	Size        int64
}

// Backend 是各存储实现共享的方法集合。
type Backend interface {
	Store(ctx context.Context, data []byte, suggestedName string) (Object, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// newObjectName 生成全局唯一的对象名，保留建议文件名的扩展名。
func newObjectName(suggestedName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(suggestedName)))
	if len(ext) > 16 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return uuid.NewString() + ext
}

var videoContentTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

// ContentType 根据扩展名推断媒体类型，未知时返回 application/octet-stream。
func ContentType(name string) string {
	if ct, ok := videoContentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func validateObjectName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrInvalidObjectName
	}
	return nil
}

func joinURL(base, name string) string {
	if base == "" {
		return name
	}
	return strings.TrimRight(base, "/") + "/" + name
}
