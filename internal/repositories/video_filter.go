package repositories

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-services-videos/internal/models/po"
)

// ErrVideoNotFound 表示指定 ID 的视频不存在。
var ErrVideoNotFound = errors.New("video not found")

// VideoOrder 指定列表查询的排序方式，所有排序最终以 id 升序打破平局。
type VideoOrder int

const (
	// OrderIDAsc 按 id 升序（默认）。
	OrderIDAsc VideoOrder = iota
	// OrderViewsDesc 按播放次数降序。
	OrderViewsDesc
	// OrderRecentDesc 按上传时间降序。
	OrderRecentDesc
	// OrderRatingDesc 按聚合评分降序。
	OrderRatingDesc
	// OrderDurationDesc 按时长降序。
	OrderDurationDesc
)

// VideoFilter 描述一次列表查询的全部条件，零值字段表示不过滤。
// 文本条件忽略大小写；区间条件两端闭合。
type VideoFilter struct {
	TitleContains      string
	Genre              string
	Category           string
	Categories         []string
	Language           string
	Director           string
	Actor              string
	Tags               []string // 命中任意一个即可
	UploadedBy         string
	ReleaseYear        *int32
	ReleaseYearFrom    *int32
	ReleaseYearTo      *int32
	MinRating          *float64
	MinUserRating      *float64 // 任一用户评分 >= 阈值
	DurationAbove      *int32   // 严格大于
	DurationFrom       *int32
	DurationTo         *int32
	ViewsFrom          *int64
	ViewsTo            *int64
	UploadedFrom       *time.Time
	UploadedTo         *time.Time
	AvailabilityStatus po.AvailabilityStatus
	Featured           *bool
	PublicOnly         bool
	WatchedBy          *int64
	NotWatchedBy       *int64

	Order VideoOrder
	Limit int
}

// Match 判断视频是否满足过滤条件，供内存存储与测试使用。
func (f VideoFilter) Match(v *po.Video) bool {
	if f.TitleContains != "" && !strings.Contains(strings.ToLower(v.Title), strings.ToLower(f.TitleContains)) {
		return false
	}
	if f.Genre != "" && !strings.EqualFold(v.Genre, f.Genre) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(v.Category, f.Category) {
		return false
	}
	if len(f.Categories) > 0 && !containsFold(f.Categories, v.Category) {
		return false
	}
	if f.Language != "" && !strings.EqualFold(v.Language, f.Language) {
		return false
	}
	if f.Director != "" && !strings.EqualFold(v.Director, f.Director) {
		return false
	}
	if f.Actor != "" && !containsFold(v.Actors, f.Actor) {
		return false
	}
	if len(f.Tags) > 0 && !slices.ContainsFunc(f.Tags, func(tag string) bool { return containsFold(v.Tags, tag) }) {
		return false
	}
	if f.UploadedBy != "" && !strings.EqualFold(v.UploadedBy, f.UploadedBy) {
		return false
	}
	if f.ReleaseYear != nil && v.ReleaseYear != *f.ReleaseYear {
		return false
	}
	if !inRange(v.ReleaseYear, f.ReleaseYearFrom, f.ReleaseYearTo) {
		return false
	}
	if f.MinRating != nil && v.Rating < *f.MinRating {
		return false
	}
	if f.MinUserRating != nil && !anyRatingAtLeast(v.UserRatings, *f.MinUserRating) {
		return false
	}
	if f.DurationAbove != nil && v.DurationSeconds <= *f.DurationAbove {
		return false
	}
	if !inRange(v.DurationSeconds, f.DurationFrom, f.DurationTo) {
		return false
	}
	if !inRange(v.Views, f.ViewsFrom, f.ViewsTo) {
		return false
	}
	if f.UploadedFrom != nil && v.UploadedAt.Before(*f.UploadedFrom) {
		return false
	}
	if f.UploadedTo != nil && v.UploadedAt.After(*f.UploadedTo) {
		return false
	}
	if f.AvailabilityStatus != "" && !strings.EqualFold(string(v.AvailabilityStatus), string(f.AvailabilityStatus)) {
		return false
	}
	if f.Featured != nil && v.Featured != *f.Featured {
		return false
	}
	if f.PublicOnly && !v.IsPublic {
		return false
	}
	if f.WatchedBy != nil && !v.WatchedBy(*f.WatchedBy) {
		return false
	}
	if f.NotWatchedBy != nil && v.WatchedBy(*f.NotWatchedBy) {
		return false
	}
	return true
}

// SortVideos 按过滤器指定的排序方式原地排序，并截断到 Limit。
func (f VideoFilter) SortVideos(videos []*po.Video) []*po.Video {
	slices.SortStableFunc(videos, func(a, b *po.Video) int {
		var c int
		switch f.Order {
		case OrderViewsDesc:
			c = cmp.Compare(b.Views, a.Views)
		case OrderRecentDesc:
			c = b.UploadedAt.Compare(a.UploadedAt)
		case OrderRatingDesc:
			c = cmp.Compare(b.Rating, a.Rating)
		case OrderDurationDesc:
			c = cmp.Compare(b.DurationSeconds, a.DurationSeconds)
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if f.Limit > 0 && len(videos) > f.Limit {
		videos = videos[:f.Limit]
	}
	return videos
}

func containsFold(values []string, target string) bool {
	return slices.ContainsFunc(values, func(v string) bool { return strings.EqualFold(v, target) })
}

func anyRatingAtLeast(ratings map[int64]float64, threshold float64) bool {
	for _, r := range ratings {
		if r >= threshold {
			return true
		}
	}
	return false
}

func inRange[T cmp.Ordered](value T, from, to *T) bool {
	if from != nil && value < *from {
		return false
	}
	if to != nil && value > *to {
		return false
	}
	return true
}
