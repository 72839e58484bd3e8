// Package events 定义视频生命周期领域事件及其消息编码。
package events

import (
	"errors"
	"time"

	"github.com/bionicotaku/lingo-services-videos/internal/models/po"

	"github.com/google/uuid"
)

// Kind 标识领域事件类型。
type Kind int

// 领域事件类型常量。
const (
	// KindUnknown 表示未识别的事件类型。
	KindUnknown Kind = iota
	// KindVideoCreated 表示视频创建事件。
	KindVideoCreated
	// KindVideoUpdated 表示视频更新事件。
	KindVideoUpdated
	// KindVideoDeleted 表示视频删除事件。
	KindVideoDeleted
)

const (
	// AggregateTypeVideo 标识视频聚合类型，供 Pub/Sub attributes 使用。
	AggregateTypeVideo = "video"
	// SchemaVersionV1 描述事件载荷的当前 schema 版本。
	SchemaVersionV1 = "v1"
)

// ErrNilVideo 在构建事件时视频实体为空。
var ErrNilVideo = errors.New("event builder: video is nil")

func (k Kind) String() string {
	switch k {
	case KindVideoCreated:
		return "video.created"
	case KindVideoUpdated:
		return "video.updated"
	case KindVideoDeleted:
		return "video.deleted"
	default:
		return "video.unknown"
	}
}

// DomainEvent 表示领域层生成的标准事件。
type DomainEvent struct {
	EventID       uuid.UUID
	Kind          Kind
	AggregateID   int64
	AggregateType string
	Version       int64
	OccurredAt    time.Time
	Payload       any
}

// VideoSnapshot 是 created/updated 事件携带的视频状态。
type VideoSnapshot struct {
	VideoID            int64    `json:"video_id"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	VideoURL           string   `json:"video_url,omitempty"`
	UploadedBy         string   `json:"uploaded_by,omitempty"`
	DurationSeconds    int32    `json:"duration_seconds"`
	IsPublic           bool     `json:"is_public"`
	Category           string   `json:"category,omitempty"`
	Genre              string   `json:"genre,omitempty"`
	AvailabilityStatus string   `json:"availability_status"`
	Featured           bool     `json:"featured"`
	Tags               []string `json:"tags,omitempty"`
	Views              int64    `json:"views"`
	Rating             float64  `json:"rating"`
	LikeCount          int      `json:"like_count"`
	DislikeCount       int      `json:"dislike_count"`
}

// VideoDeleted 描述视频删除事件的载荷。
type VideoDeleted struct {
	VideoID   int64     `json:"video_id"`
	FileName  string    `json:"file_name,omitempty"`
	DeletedAt time.Time `json:"deleted_at"`
}

// NewVideoCreatedEvent 基于持久化实体构建 video.created 事件。
func NewVideoCreatedEvent(video *po.Video, occurredAt time.Time) (*DomainEvent, error) {
	return newSnapshotEvent(KindVideoCreated, video, occurredAt)
}

// NewVideoUpdatedEvent 基于持久化实体构建 video.updated 事件。
func NewVideoUpdatedEvent(video *po.Video, occurredAt time.Time) (*DomainEvent, error) {
	return newSnapshotEvent(KindVideoUpdated, video, occurredAt)
}

// NewVideoDeletedEvent 构建 video.deleted 事件。
func NewVideoDeletedEvent(videoID int64, fileName string, occurredAt time.Time) *DomainEvent {
	occurredAt = normalizeTime(occurredAt)
	return &DomainEvent{
		EventID:       uuid.New(),
		Kind:          KindVideoDeleted,
		AggregateID:   videoID,
		AggregateType: AggregateTypeVideo,
		Version:       VersionFromTime(occurredAt),
		OccurredAt:    occurredAt,
		Payload: VideoDeleted{
			VideoID:   videoID,
			FileName:  fileName,
			DeletedAt: occurredAt,
		},
	}
}

func newSnapshotEvent(kind Kind, video *po.Video, occurredAt time.Time) (*DomainEvent, error) {
	if video == nil {
		return nil, ErrNilVideo
	}
	occurredAt = normalizeTime(occurredAt)
	return &DomainEvent{
		EventID:       uuid.New(),
		Kind:          kind,
		AggregateID:   video.ID,
		AggregateType: AggregateTypeVideo,
		Version:       VersionFromTime(video.UpdatedAt),
		OccurredAt:    occurredAt,
		Payload: VideoSnapshot{
			VideoID:            video.ID,
			Title:              video.Title,
			Description:        video.Description,
			VideoURL:           video.VideoURL,
			UploadedBy:         video.UploadedBy,
			DurationSeconds:    video.DurationSeconds,
			IsPublic:           video.IsPublic,
			Category:           video.Category,
			Genre:              video.Genre,
			AvailabilityStatus: string(video.AvailabilityStatus),
			Featured:           video.Featured,
			Tags:               append([]string(nil), video.Tags...),
			Views:              video.Views,
			Rating:             video.Rating,
			LikeCount:          len(video.Likes),
			DislikeCount:       len(video.Dislikes),
		},
	}, nil
}

func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC()
}
