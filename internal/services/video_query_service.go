package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/bionicotaku/lingo-services-videos/internal/infrastructure/storage"
	"github.com/bionicotaku/lingo-services-videos/internal/models/po"
	"github.com/bionicotaku/lingo-services-videos/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	// DefaultTopN 是热门/最新/推荐列表未指定数量时的默认条数。
	DefaultTopN = 10
	// MaxTopN 是单次列表请求允许的最大条数。
	MaxTopN = 100
)

// VideoQueryService 封装视频只读用例。
type VideoQueryService struct {
	repo   VideoRepo
	media  MediaStore
	ranker Ranker
	log    *log.Helper
}

// NewVideoQueryService 构造视频查询服务；ranker 为空时使用 RatingRanker。
func NewVideoQueryService(repo VideoRepo, media MediaStore, ranker Ranker, logger log.Logger) *VideoQueryService {
	if ranker == nil {
		ranker = RatingRanker{}
	}
	return &VideoQueryService{
		repo:   repo,
		media:  media,
		ranker: ranker,
		log:    log.NewHelper(logger),
	}
}

// ListVideos 返回全部视频（id 升序）。
func (s *VideoQueryService) ListVideos(ctx context.Context) ([]*po.Video, error) {
	videos, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, translateRepoError(ctx, s.log, "list videos", err)
	}
	return videos, nil
}

// GetVideo 查询视频详情。
func (s *VideoQueryService) GetVideo(ctx context.Context, id int64) (*po.Video, error) {
	video, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(ctx, s.log, "get video", err)
	}
	return video, nil
}

// Filter 执行任意组合条件查询。
func (s *VideoQueryService) Filter(ctx context.Context, filter repositories.VideoFilter) ([]*po.Video, error) {
	if filter.Limit < 0 {
		return nil, invalidArgument("limit must be non-negative")
	}
	if filter.AvailabilityStatus != "" && !filter.AvailabilityStatus.Valid() {
		return nil, invalidArgument("invalid availability status: %s", filter.AvailabilityStatus)
	}
	if err := checkRange(filter.ReleaseYearFrom, filter.ReleaseYearTo, "release year"); err != nil {
		return nil, err
	}
	if err := checkRange(filter.DurationFrom, filter.DurationTo, "duration"); err != nil {
		return nil, err
	}
	if err := checkRange(filter.ViewsFrom, filter.ViewsTo, "views"); err != nil {
		return nil, err
	}
	videos, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, translateRepoError(ctx, s.log, "filter videos", err)
	}
	return videos, nil
}

// SearchByTitle 按标题子串（忽略大小写）检索；无结果返回空切片。
func (s *VideoQueryService) SearchByTitle(ctx context.Context, title string) ([]*po.Video, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return []*po.Video{}, nil
	}
	return s.Filter(ctx, repositories.VideoFilter{TitleContains: title})
}

// ListByGenre 按类型精确匹配。
func (s *VideoQueryService) ListByGenre(ctx context.Context, genre string) ([]*po.Video, error) {
	return s.Filter(ctx, repositories.VideoFilter{Genre: strings.TrimSpace(genre)})
}

// ListByCategory 按分类精确匹配。
func (s *VideoQueryService) ListByCategory(ctx context.Context, category string) ([]*po.Video, error) {
	return s.Filter(ctx, repositories.VideoFilter{Category: strings.TrimSpace(category)})
}

// ListByLanguage 按语言精确匹配。
func (s *VideoQueryService) ListByLanguage(ctx context.Context, language string) ([]*po.Video, error) {
	return s.Filter(ctx, repositories.VideoFilter{Language: strings.TrimSpace(language)})
}

// ListByDirector 按导演精确匹配。
func (s *VideoQueryService) ListByDirector(ctx context.Context, director string) ([]*po.Video, error) {
	return s.Filter(ctx, repositories.VideoFilter{Director: strings.TrimSpace(director)})
}

// ListByActor 返回演员列表中包含 actor 的视频。
func (s *VideoQueryService) ListByActor(ctx context.Context, actor string) ([]*po.Video, error) {
	return s.Filter(ctx, repositories.VideoFilter{Actor: strings.TrimSpace(actor)})
}

// ListByTags 返回带有任一标签的视频。
func (s *VideoQueryService) ListByTags(ctx context.Context, tags []string) ([]*po.Video, error) {
	return s.Filter(ctx, repositories.VideoFilter{Tags: tags})
}

// ListByReleaseYear 按发行年份匹配。
func (s *VideoQueryService) ListByReleaseYear(ctx context.Context, year int32) ([]*po.Video, error) {
	return s.Filter(ctx, repositories.VideoFilter{ReleaseYear: &year})
}

// ListByReleaseYearRange 按发行年份闭区间匹配。
func (s *VideoQueryService) ListByReleaseYearRange(ctx context.Context, from, to int32) ([]*po.Video, error) {
	return s.Filter(ctx, repositories.VideoFilter{ReleaseYearFrom: &from, ReleaseYearTo: &to})
}

// ListByMinRating 返回聚合评分不低于阈值的视频。
func (s *VideoQueryService) ListByMinRating(ctx context.Context, min float64) ([]*po.Video, error) {
	return s.Filter(ctx, repositories.VideoFilter{MinRating: &min})
}

// ListByDurationAbove 返回时长严格大于阈值的视频。
func (s *VideoQueryService) ListByDurationAbove(ctx context.Context, seconds int32) ([]*po.Video, error) {
	return s.Filter(ctx, repositories.VideoFilter{DurationAbove: &seconds})
}

// ListByDurationRange 按时长闭区间匹配。
func (s *VideoQueryService) ListByDurationRange(ctx context.Context, from, to int32) ([]*po.Video, error) {
	return s.Filter(ctx, repositories.VideoFilter{DurationFrom: &from, DurationTo: &to})
}

// ListByViewRange 按播放次数闭区间匹配。
func (s *VideoQueryService) ListByViewRange(ctx context.Context, from, to int64) ([]*po.Video, error) {
	return s.Filter(ctx, repositories.VideoFilter{ViewsFrom: &from, ViewsTo: &to})
}

// Popular 返回播放次数最高的 n 条视频，同播放量按 id 升序。
func (s *VideoQueryService) Popular(ctx context.Context, n int) ([]*po.Video, error) {
	return s.Filter(ctx, repositories.VideoFilter{Order: repositories.OrderViewsDesc, Limit: clampTopN(n)})
}

// Recent 返回上传时间最新的 n 条视频，同时间按 id 升序。
func (s *VideoQueryService) Recent(ctx context.Context, n int) ([]*po.Video, error) {
	return s.Filter(ctx, repositories.VideoFilter{Order: repositories.OrderRecentDesc, Limit: clampTopN(n)})
}

// Random 随机返回一条视频；目录为空时返回 NotFound。
func (s *VideoQueryService) Random(ctx context.Context) (*po.Video, error) {
	video, err := s.repo.Random(ctx)
	if err != nil {
		return nil, translateRepoError(ctx, s.log, "random video", err)
	}
	return video, nil
}

// Genres 返回去重后的类型列表。
func (s *VideoQueryService) Genres(ctx context.Context) ([]string, error) {
	genres, err := s.repo.DistinctGenres(ctx)
	if err != nil {
		return nil, translateRepoError(ctx, s.log, "list genres", err)
	}
	return genres, nil
}

// CountByCategory 统计分类下视频数量。
func (s *VideoQueryService) CountByCategory(ctx context.Context, category string) (int64, error) {
	n, err := s.repo.CountByCategory(ctx, strings.TrimSpace(category))
	if err != nil {
		return 0, translateRepoError(ctx, s.log, "count by category", err)
	}
	return n, nil
}

// CountVideos 返回视频总数。
func (s *VideoQueryService) CountVideos(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, translateRepoError(ctx, s.log, "count videos", err)
	}
	return n, nil
}

// VideoExists 判断视频是否存在。
func (s *VideoQueryService) VideoExists(ctx context.Context, id int64) (bool, error) {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, translateRepoError(ctx, s.log, "video exists", err)
	}
	return ok, nil
}

// WatchedBy 返回用户观看过的视频。
func (s *VideoQueryService) WatchedBy(ctx context.Context, userID int64) ([]*po.Video, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	return s.Filter(ctx, repositories.VideoFilter{WatchedBy: &userID})
}

// Recommended 返回用户未观看过的视频，按 Ranker 排序后截取前 n 条。
func (s *VideoQueryService) Recommended(ctx context.Context, userID int64, n int) ([]*po.Video, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	unwatched, err := s.repo.List(ctx, repositories.VideoFilter{NotWatchedBy: &userID})
	if err != nil {
		return nil, translateRepoError(ctx, s.log, "recommended videos", err)
	}

	ranked := s.ranker.Rank(userID, unwatched)
	if limit := clampTopN(n); len(ranked) > limit {
		ranked = ranked[:limit]
	}
	s.log.WithContext(ctx).Debugf("Recommended: user_id=%d candidates=%d returned=%d", userID, len(unwatched), len(ranked))
	return ranked, nil
}

// MediaContent 是打开的媒体流及其元信息。
type MediaContent struct {
	Body        io.ReadCloser
	FileName    string
	ContentType string
}

// OpenMedia 打开视频对应的媒体文件，调用方负责关闭 Body。
func (s *VideoQueryService) OpenMedia(ctx context.Context, id int64) (*MediaContent, error) {
	video, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(ctx, s.log, "open media", err)
	}
	if video.FileName == "" || s.media == nil {
		return nil, ErrMediaNotFound
	}
	body, err := s.media.Open(ctx, video.FileName)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, translateRepoError(ctx, s.log, "open media", err)
	}
	return &MediaContent{
		Body:        body,
		FileName:    video.FileName,
		ContentType: storage.ContentType(video.FileName),
	}, nil
}

func clampTopN(n int) int {
	if n <= 0 {
		return DefaultTopN
	}
	if n > MaxTopN {
		return MaxTopN
	}
	return n
}

func checkRange[T int32 | int64](from, to *T, field string) error {
	if from != nil && to != nil && *from > *to {
		return invalidArgument("%s range is inverted", field)
	}
	return nil
}
