package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-services-videos/internal/conf"
)

// HandlerType 决定请求使用哪一档超时。
type HandlerType int

const (
	// HandlerTypeDefault 未归类的请求。
	HandlerTypeDefault HandlerType = iota
	// HandlerTypeCommand 修改视频状态的请求。
	HandlerTypeCommand
	// HandlerTypeQuery 只读请求。
	HandlerTypeQuery
	// HandlerTypeUpload 携带媒体文件的上传请求。
	HandlerTypeUpload
)

// HandlerTimeouts 是各档请求的超时；零值表示沿用回退值。
type HandlerTimeouts struct {
	Default time.Duration
	Command time.Duration
	Query   time.Duration
	Upload  time.Duration
}

const (
	fallbackTimeout       = 5 * time.Second
	fallbackUploadTimeout = 2 * time.Minute

	headerUserID    = "x-md-global-user-id"
	headerRequestID = "x-md-request-id"
)

// NewHandlerTimeouts 从 handlers 配置节点读取超时。
func NewHandlerTimeouts(c *conf.Handlers) HandlerTimeouts {
	if c == nil {
		return HandlerTimeouts{}
	}
	return HandlerTimeouts{
		Command: c.CommandTimeout.Std(),
		Query:   c.QueryTimeout.Std(),
		Upload:  c.UploadTimeout.Std(),
	}
}

// BaseHandler 为视频 Handler 提供超时与调用方信息解析。
type BaseHandler struct {
	timeouts HandlerTimeouts
}

// NewBaseHandler 补齐缺省档位：Default 取首个已配置的命令/查询超时，
// Command 与 Query 缺省时回落到 Default，Upload 单独回落到两分钟。
func NewBaseHandler(timeouts HandlerTimeouts) *BaseHandler {
	timeouts.Default = firstPositive(timeouts.Default, timeouts.Command, timeouts.Query, fallbackTimeout)
	timeouts.Command = firstPositive(timeouts.Command, timeouts.Default)
	timeouts.Query = firstPositive(timeouts.Query, timeouts.Default)
	timeouts.Upload = firstPositive(timeouts.Upload, fallbackUploadTimeout)
	return &BaseHandler{timeouts: timeouts}
}

func firstPositive(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

// Timeouts 返回生效的超时策略。
func (h *BaseHandler) Timeouts() HandlerTimeouts {
	if h == nil {
		return HandlerTimeouts{}
	}
	return h.timeouts
}

// WithTimeout 按请求类别为 ctx 绑定超时。
func (h *BaseHandler) WithTimeout(ctx context.Context, kind HandlerType) (context.Context, context.CancelFunc) {
	if h == nil {
		return context.WithTimeout(ctx, fallbackTimeout)
	}
	timeout := h.timeouts.Default
	switch kind {
	case HandlerTypeCommand:
		timeout = h.timeouts.Command
	case HandlerTypeQuery:
		timeout = h.timeouts.Query
	case HandlerTypeUpload:
		timeout = h.timeouts.Upload
	}
	return context.WithTimeout(ctx, timeout)
}

// ExtractMetadata 读取网关透传的 x-md-* 请求头。
func (h *BaseHandler) ExtractMetadata(header http.Header) HandlerMetadata {
	return HandlerMetadata{
		UserID:    strings.TrimSpace(header.Get(headerUserID)),
		RequestID: strings.TrimSpace(header.Get(headerRequestID)),
	}
}

type handlerMetadataKey struct{}

// HandlerMetadata 是一次请求的调用方与追踪信息。
type HandlerMetadata struct {
	UserID    string
	RequestID string
}

// IsZero 判断 Metadata 是否为空。
func (m HandlerMetadata) IsZero() bool {
	return m == HandlerMetadata{}
}

// InjectHandlerMetadata 将非空 Metadata 写入 ctx。
func InjectHandlerMetadata(ctx context.Context, meta HandlerMetadata) context.Context {
	if meta.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, handlerMetadataKey{}, meta)
}

// HandlerMetadataFromContext 读取 InjectHandlerMetadata 写入的值。
func HandlerMetadataFromContext(ctx context.Context) (HandlerMetadata, bool) {
	meta, ok := ctx.Value(handlerMetadataKey{}).(HandlerMetadata)
	return meta, ok
}
