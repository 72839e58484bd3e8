package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-services-videos/internal/models/events"
	"github.com/bionicotaku/lingo-services-videos/internal/models/po"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"
)

const (
	// MinRating 与 MaxRating 限定单个用户评分的闭区间。
	MinRating = 0.0
	MaxRating = 5.0

	mediaDeleteConcurrency = 4
)

// UploadVideoInput 表示上传视频（媒体文件 + 元数据）的输入。
type UploadVideoInput struct {
	Content         []byte
	FileName        string
	Title           string
	Description     string
	UploadedBy      string
	DurationSeconds int32
	Tags            []string
	IsPublic        *bool // nil 表示公开
	Category        string
	Genre           string
}

// CreateVideoInput 表示仅创建元数据记录的输入，媒体地址由调用方提供。
type CreateVideoInput struct {
	Title           string
	Description     string
	VideoURL        string
	ThumbnailURL    string
	UploadedBy      string
	DurationSeconds int32
	IsPublic        *bool // nil 表示公开
	Category        string
	Genre           string
	Language        string
	Director        string
	ReleaseYear     int32
	ReleaseDate     *time.Time
	Featured        bool
	Tags            []string
	Actors          []string
}

// UpdateVideoInput 表示更新视频时覆盖的字段。
type UpdateVideoInput struct {
	ID              int64
	Title           string
	Description     string
	VideoURL        string
	DurationSeconds int32
	ReleaseDate     *time.Time
}

// VideoCommandService 封装 Video 写模型用例。
type VideoCommandService struct {
	repo       VideoRepo
	media      MediaStore
	publisher  EventPublisher
	engagement metric.Int64Counter
	now        func() time.Time
	log        *log.Helper
}

// NewVideoCommandService 构造一个 Video 写模型服务。
func NewVideoCommandService(repo VideoRepo, media MediaStore, publisher EventPublisher, meter metric.Meter, logger log.Logger) *VideoCommandService {
	helper := log.NewHelper(logger)
	if publisher == nil {
		publisher = NopEventPublisher{}
	}
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("videos.services")
	}
	counter, err := meter.Int64Counter(
		"videos_engagement_total",
		metric.WithDescription("Engagement actions recorded on videos"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		helper.Warnf("create engagement counter: %v", err)
	}
	return &VideoCommandService{
		repo:       repo,
		media:      media,
		publisher:  publisher,
		engagement: counter,
		now:        time.Now,
		log:        helper,
	}
}

// UploadVideo 保存媒体文件并创建视频记录。记录保存失败时删除已写入的媒体文件。
func (s *VideoCommandService) UploadVideo(ctx context.Context, input UploadVideoInput) (*po.Video, error) {
	if len(input.Content) == 0 {
		return nil, invalidArgument("upload content is empty")
	}
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if input.DurationSeconds < 0 {
		return nil, invalidArgument("duration must be non-negative")
	}

	obj, err := s.media.Store(ctx, input.Content, input.FileName)
	if err != nil {
		s.log.WithContext(ctx).Errorf("store media failed: file=%s err=%v", input.FileName, err)
		return nil, errors.InternalServer(ReasonStorageFailure, "failed to store media").WithCause(err)
	}

	video := &po.Video{
		Title:              strings.TrimSpace(input.Title),
		Description:        input.Description,
		VideoURL:           obj.URL,
		FileName:           obj.Name,
		UploadedBy:         input.UploadedBy,
		UploadedAt:         s.now().UTC(),
		DurationSeconds:    input.DurationSeconds,
		IsPublic:           visibility(input.IsPublic),
		Category:           strings.TrimSpace(input.Category),
		Genre:              strings.TrimSpace(input.Genre),
		AvailabilityStatus: po.AvailabilityAvailable,
	}
	video.SetTags(input.Tags)

	saved, err := s.repo.Save(ctx, video)
	if err != nil {
		if delErr := s.media.Delete(ctx, obj.Name); delErr != nil {
			s.log.WithContext(ctx).Errorf("compensating media delete failed: file=%s err=%v", obj.Name, delErr)
		}
		return nil, translateRepoError(ctx, s.log, "upload video", err)
	}

	s.publishCreated(ctx, saved)
	s.log.WithContext(ctx).Infof("UploadVideo: video_id=%d file=%s size=%d", saved.ID, obj.Name, obj.Size)
	return saved, nil
}

// CreateVideo 仅创建元数据记录。
func (s *VideoCommandService) CreateVideo(ctx context.Context, input CreateVideoInput) (*po.Video, error) {
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if input.DurationSeconds < 0 {
		return nil, invalidArgument("duration must be non-negative")
	}

	video := &po.Video{
		Title:              strings.TrimSpace(input.Title),
		Description:        input.Description,
		VideoURL:           input.VideoURL,
		ThumbnailURL:       input.ThumbnailURL,
		UploadedBy:         input.UploadedBy,
		UploadedAt:         s.now().UTC(),
		DurationSeconds:    input.DurationSeconds,
		IsPublic:           visibility(input.IsPublic),
		Category:           strings.TrimSpace(input.Category),
		Genre:              strings.TrimSpace(input.Genre),
		Language:           strings.TrimSpace(input.Language),
		Director:           strings.TrimSpace(input.Director),
		ReleaseYear:        input.ReleaseYear,
		ReleaseDate:        input.ReleaseDate,
		Featured:           input.Featured,
		AvailabilityStatus: po.AvailabilityAvailable,
	}
	if video.ReleaseDate != nil && video.ReleaseYear == 0 {
		video.ReleaseYear = int32(video.ReleaseDate.Year())
	}
	video.SetTags(input.Tags)
	video.SetActors(input.Actors)

	saved, err := s.repo.Save(ctx, video)
	if err != nil {
		return nil, translateRepoError(ctx, s.log, "create video", err)
	}

	s.publishCreated(ctx, saved)
	s.log.WithContext(ctx).Infof("CreateVideo: video_id=%d title=%s", saved.ID, saved.Title)
	return saved, nil
}

// UpdateVideo 覆盖标题、描述、播放地址、时长与发行日期。
func (s *VideoCommandService) UpdateVideo(ctx context.Context, input UpdateVideoInput) (*po.Video, error) {
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if input.DurationSeconds < 0 {
		return nil, invalidArgument("duration must be non-negative")
	}
	return s.mutate(ctx, "update video", input.ID, func(v *po.Video) error {
		v.Title = strings.TrimSpace(input.Title)
		v.Description = input.Description
		v.VideoURL = input.VideoURL
		v.DurationSeconds = input.DurationSeconds
		v.ReleaseDate = input.ReleaseDate
		if input.ReleaseDate != nil {
			v.ReleaseYear = int32(input.ReleaseDate.Year())
		}
		return nil
	})
}

// DeleteVideo 删除视频记录，随后尽力删除媒体文件；媒体删除失败仅记录日志。
func (s *VideoCommandService) DeleteVideo(ctx context.Context, id int64) error {
	video, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return translateRepoError(ctx, s.log, "delete video", err)
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return translateRepoError(ctx, s.log, "delete video", err)
	}
	s.deleteMedia(ctx, video.FileName)

	s.publish(ctx, events.NewVideoDeletedEvent(id, video.FileName, s.now()))
	s.log.WithContext(ctx).Infof("DeleteVideo: video_id=%d", id)
	return nil
}

// LikeVideo 记录点赞，并保证用户不同时出现在点踩集合中。
func (s *VideoCommandService) LikeVideo(ctx context.Context, id, userID int64) (*po.Video, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	video, err := s.mutate(ctx, "like video", id, func(v *po.Video) error {
		v.AddLike(userID)
		return nil
	})
	if err == nil {
		s.recordEngagement(ctx, "like")
	}
	return video, err
}

// DislikeVideo 记录点踩，并保证用户不同时出现在点赞集合中。
func (s *VideoCommandService) DislikeVideo(ctx context.Context, id, userID int64) (*po.Video, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	video, err := s.mutate(ctx, "dislike video", id, func(v *po.Video) error {
		v.AddDislike(userID)
		return nil
	})
	if err == nil {
		s.recordEngagement(ctx, "dislike")
	}
	return video, err
}

// MarkAsWatched 记录用户观看；重复调用幂等。
func (s *VideoCommandService) MarkAsWatched(ctx context.Context, id, userID int64) (*po.Video, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	video, err := s.mutate(ctx, "mark watched", id, func(v *po.Video) error {
		v.MarkWatched(userID)
		return nil
	})
	if err == nil {
		s.recordEngagement(ctx, "watch")
	}
	return video, err
}

// AddRating 写入或覆盖用户评分并重算聚合评分。
func (s *VideoCommandService) AddRating(ctx context.Context, id, userID int64, value float64) (*po.Video, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if math.IsNaN(value) || value < MinRating || value > MaxRating {
		return nil, invalidArgument("rating must be between %.0f and %.0f", MinRating, MaxRating)
	}
	video, err := s.mutate(ctx, "add rating", id, func(v *po.Video) error {
		v.AddRating(userID, value)
		return nil
	})
	if err == nil {
		s.recordEngagement(ctx, "rate")
	}
	return video, err
}

// AddComment 追加评论并返回带主键的评论。
func (s *VideoCommandService) AddComment(ctx context.Context, id, userID int64, body string) (*po.Comment, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, invalidArgument("comment body is required")
	}
	video, err := s.mutate(ctx, "add comment", id, func(v *po.Video) error {
		v.AddComment(po.Comment{UserID: userID, Body: body, CreatedAt: s.now().UTC()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordEngagement(ctx, "comment")
	comment := video.Comments[len(video.Comments)-1]
	return &comment, nil
}

// IncrementViews 播放次数加一，返回最新记录。
func (s *VideoCommandService) IncrementViews(ctx context.Context, id int64) (*po.Video, error) {
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		return nil, translateRepoError(ctx, s.log, "increment views", err)
	}
	video, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(ctx, s.log, "increment views", err)
	}
	s.recordEngagement(ctx, "view")
	return video, nil
}

// ResetViews 将全部视频的播放次数归零。
func (s *VideoCommandService) ResetViews(ctx context.Context) (int64, error) {
	n, err := s.repo.ResetViews(ctx)
	if err != nil {
		return 0, translateRepoError(ctx, s.log, "reset views", err)
	}
	s.log.WithContext(ctx).Infof("ResetViews: rows=%d", n)
	return n, nil
}

// AssignCategory 设置视频分类。
func (s *VideoCommandService) AssignCategory(ctx context.Context, id int64, category string) (*po.Video, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, invalidArgument("category is required")
	}
	return s.mutate(ctx, "assign category", id, func(v *po.Video) error {
		v.Category = category
		return nil
	})
}

// RemoveCategory 清空视频分类。
func (s *VideoCommandService) RemoveCategory(ctx context.Context, id int64) (*po.Video, error) {
	return s.mutate(ctx, "remove category", id, func(v *po.Video) error {
		v.Category = ""
		return nil
	})
}

// SetFeatured 设置或取消推荐位标记。
func (s *VideoCommandService) SetFeatured(ctx context.Context, id int64, featured bool) (*po.Video, error) {
	return s.mutate(ctx, "set featured", id, func(v *po.Video) error {
		v.Featured = featured
		return nil
	})
}

// UpdateStatusByCategory 批量修改分类下视频的可用状态。
func (s *VideoCommandService) UpdateStatusByCategory(ctx context.Context, category, status string) (int64, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return 0, invalidArgument("category is required")
	}
	parsed := po.AvailabilityStatus(strings.ToLower(strings.TrimSpace(status)))
	if !parsed.Valid() {
		return 0, invalidArgument("invalid availability status: %s", status)
	}
	n, err := s.repo.UpdateStatusByCategory(ctx, category, parsed)
	if err != nil {
		return 0, translateRepoError(ctx, s.log, "update status by category", err)
	}
	s.log.WithContext(ctx).Infof("UpdateStatusByCategory: category=%s status=%s rows=%d", category, parsed, n)
	return n, nil
}

// DeleteByCategory 删除分类下全部视频，并发尽力删除其媒体文件。
func (s *VideoCommandService) DeleteByCategory(ctx context.Context, category string) (int64, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return 0, invalidArgument("category is required")
	}
	names, err := s.repo.DeleteByCategory(ctx, category)
	if err != nil {
		return 0, translateRepoError(ctx, s.log, "delete by category", err)
	}

	var g errgroup.Group
	g.SetLimit(mediaDeleteConcurrency)
	for _, name := range names {
		g.Go(func() error {
			s.deleteMedia(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	s.log.WithContext(ctx).Infof("DeleteByCategory: category=%s rows=%d", category, len(names))
	return int64(len(names)), nil
}

// mutate 加载聚合、应用变更并保存，成功后发布 video.updated。
func (s *VideoCommandService) mutate(ctx context.Context, op string, id int64, apply func(v *po.Video) error) (*po.Video, error) {
	video, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(ctx, s.log, op, err)
	}
	if err := apply(video); err != nil {
		return nil, err
	}
	saved, err := s.repo.Save(ctx, video)
	if err != nil {
		return nil, translateRepoError(ctx, s.log, op, err)
	}

	evt, err := events.NewVideoUpdatedEvent(saved, s.now())
	if err != nil {
		s.log.WithContext(ctx).Warnf("build video updated event: op=%s video_id=%d err=%v", op, id, err)
	} else {
		s.publish(ctx, evt)
	}
	s.log.WithContext(ctx).Debugf("%s: video_id=%d", op, id)
	return saved, nil
}

// visibility 未显式指定时视频默认公开，与表默认值一致。
func visibility(public *bool) bool {
	if public == nil {
		return true
	}
	return *public
}

func (s *VideoCommandService) deleteMedia(ctx context.Context, name string) {
	if name == "" || s.media == nil {
		return
	}
	if err := s.media.Delete(ctx, name); err != nil {
		s.log.WithContext(ctx).Warnf("delete media failed: file=%s err=%v", name, err)
	}
}

func (s *VideoCommandService) publishCreated(ctx context.Context, video *po.Video) {
	evt, err := events.NewVideoCreatedEvent(video, s.now())
	if err != nil {
		s.log.WithContext(ctx).Warnf("build video created event: %v", err)
		return
	}
	s.publish(ctx, evt)
}

// publish 发布失败不影响已提交的写操作，仅记录日志。
func (s *VideoCommandService) publish(ctx context.Context, evt *events.DomainEvent) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.WithContext(ctx).Warnf("publish event failed: type=%s video_id=%d err=%v", evt.Kind, evt.AggregateID, err)
	}
}

func (s *VideoCommandService) recordEngagement(ctx context.Context, action string) {
	if s.engagement == nil {
		return
	}
	s.engagement.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return invalidArgument("title is required")
	}
	return nil
}

func validateUserID(userID int64) error {
	if userID <= 0 {
		return invalidArgument("user_id must be positive")
	}
	return nil
}
