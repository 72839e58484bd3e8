package services

import (
	"context"
	"fmt"
	"io"

	"github.com/bionicotaku/lingo-services-videos/internal/infrastructure/storage"
	"github.com/bionicotaku/lingo-services-videos/internal/models/events"
	"github.com/bionicotaku/lingo-services-videos/internal/models/po"
	"github.com/bionicotaku/lingo-services-videos/internal/repositories"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// 错误原因（kratos errors reason），HTTP 层据此映射状态码。
const (
	ReasonVideoNotFound  = "VIDEO_NOT_FOUND"
	ReasonVideoInvalid   = "VIDEO_INVALID"
	ReasonStorageFailure = "STORAGE_FAILURE"
	ReasonQueryTimeout   = "QUERY_TIMEOUT"
	ReasonMediaNotFound  = "MEDIA_NOT_FOUND"
)

// ErrVideoNotFound 是当视频未找到时返回的哨兵错误。
var ErrVideoNotFound = errors.NotFound(ReasonVideoNotFound, "video not found")

// ErrMediaNotFound 表示视频记录存在但媒体对象缺失。
var ErrMediaNotFound = errors.NotFound(ReasonMediaNotFound, "media not found")

// VideoRepo 定义视频聚合的持久化与查询行为。
type VideoRepo interface {
	Save(ctx context.Context, video *po.Video) (*po.Video, error)
	FindByID(ctx context.Context, id int64) (*po.Video, error)
	DeleteByID(ctx context.Context, id int64) error
	FindAll(ctx context.Context) ([]*po.Video, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)

	List(ctx context.Context, filter repositories.VideoFilter) ([]*po.Video, error)
	Random(ctx context.Context) (*po.Video, error)
	DistinctGenres(ctx context.Context) ([]string, error)
	CountByCategory(ctx context.Context, category string) (int64, error)

	IncrementViews(ctx context.Context, id int64) error
	ResetViews(ctx context.Context) (int64, error)
	UpdateStatusByCategory(ctx context.Context, category string, status po.AvailabilityStatus) (int64, error)
	DeleteByCategory(ctx context.Context, category string) ([]string, error)
}

// MediaStore 定义媒体文件存储协作者。
type MediaStore interface {
	Store(ctx context.Context, data []byte, suggestedName string) (storage.Object, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// EventPublisher 定义领域事件发布行为。
type EventPublisher interface {
	Publish(ctx context.Context, event *events.DomainEvent) error
}

// NopEventPublisher 在未启用事件发布时丢弃事件。
type NopEventPublisher struct{}

// Publish 实现 EventPublisher。
func (NopEventPublisher) Publish(context.Context, *events.DomainEvent) error { return nil }

func invalidArgument(format string, args ...any) error {
	return errors.BadRequest(ReasonVideoInvalid, fmt.Sprintf(format, args...))
}

// translateRepoError 将仓储/存储错误映射为对外的 kratos 错误。
// 已是 kratos 错误（如校验失败）的原样返回。
func translateRepoError(ctx context.Context, logger *log.Helper, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrVideoNotFound) {
		return ErrVideoNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		logger.WithContext(ctx).Warnf("%s timeout", op)
		return errors.GatewayTimeout(ReasonQueryTimeout, op+" timeout")
	}
	if se := new(errors.Error); errors.As(err, &se) {
		return se
	}
	logger.WithContext(ctx).Errorf("%s failed: err=%v", op, err)
	return errors.InternalServer(ReasonStorageFailure, "failed to "+op).WithCause(fmt.Errorf("%s: %w", op, err))
}
