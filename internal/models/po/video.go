// Package po 定义面向持久化的数据对象（Persistent Objects），由 Repository 层使用。
// Video 是唯一的聚合根，其子集合（标签、演员、点赞、点踩、评分、评论、观看记录）
// 均由聚合独占持有，随聚合一起加载、保存与删除。
package po

import (
	"slices"
	"strings"
	"time"
)

// AvailabilityStatus 表示视频的上架可用状态。
type AvailabilityStatus string

// 可用状态常量定义
const (
	AvailabilityAvailable   AvailabilityStatus = "available"   // 对外可见
	AvailabilityUnavailable AvailabilityStatus = "unavailable" // 暂时下架
	AvailabilityArchived    AvailabilityStatus = "archived"    // 归档
)

// Valid 判断状态是否为已知枚举值。
func (s AvailabilityStatus) Valid() bool {
	switch s {
	case AvailabilityAvailable, AvailabilityUnavailable, AvailabilityArchived:
		return true
	default:
		return false
	}
}

// Comment 表示挂在视频下的一条评论，随视频级联删除。
type Comment struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

// Video 表示 catalog.videos 表及其子表组成的聚合。
type Video struct {
	// ============================================
	// 基础层字段
	// ============================================
	ID              int64     `db:"id"`               // 主键（BIGSERIAL，首次保存后分配）
	Title           string    `db:"title"`            // 标题（必填）
	Description     string    `db:"description"`      // 描述
	VideoURL        string    `db:"video_url"`        // 播放地址
	ThumbnailURL    string    `db:"thumbnail_url"`    // 缩略图地址
	FileName        string    `db:"file_name"`        // 媒体存储中的对象名
	UploadedBy      string    `db:"uploaded_by"`      // 上传者标识
	UploadedAt      time.Time `db:"uploaded_at"`      // 上传时间
	DurationSeconds int32     `db:"duration_seconds"` // 时长（秒，>=0）
	IsPublic        bool      `db:"is_public"`        // 是否公开

	// ============================================
	// 编目属性
	// ============================================
	Category           string             `db:"category"`
	Genre              string             `db:"genre"`
	Language           string             `db:"language"`
	Director           string             `db:"director"`
	ReleaseYear        int32              `db:"release_year"`
	ReleaseDate        *time.Time         `db:"release_date"`
	AvailabilityStatus AvailabilityStatus `db:"availability_status"`
	Featured           bool               `db:"featured"`
	Actors             []string           // catalog.video_actors

	// ============================================
	// 互动数据
	// ============================================
	Views       int64             `db:"views"`  // 播放次数，仅在批量重置时归零
	Rating      float64           `db:"rating"` // UserRatings 的算术平均
	Tags        []string          // catalog.video_tags，有序去重
	Likes       []int64           // catalog.video_likes，升序集合
	Dislikes    []int64           // catalog.video_dislikes，升序集合
	UserRatings map[int64]float64 // catalog.video_ratings
	Watchers    []int64           // catalog.video_watches，升序集合
	Comments    []Comment         // catalog.video_comments

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// AddView 播放次数加一。
func (v *Video) AddView() {
	v.Views++
}

// AddLike 记录用户点赞，同时从点踩集合中移除该用户。
// 返回集合是否发生变化。
func (v *Video) AddLike(userID int64) bool {
	var changed bool
	v.Likes, changed = insertID(v.Likes, userID)
	var removed bool
	v.Dislikes, removed = removeID(v.Dislikes, userID)
	return changed || removed
}

// AddDislike 记录用户点踩，同时从点赞集合中移除该用户。
func (v *Video) AddDislike(userID int64) bool {
	var changed bool
	v.Dislikes, changed = insertID(v.Dislikes, userID)
	var removed bool
	v.Likes, removed = removeID(v.Likes, userID)
	return changed || removed
}

// LikedBy 判断用户是否在点赞集合中。
func (v *Video) LikedBy(userID int64) bool {
	_, found := slices.BinarySearch(v.Likes, userID)
	return found
}

// DislikedBy 判断用户是否在点踩集合中。
func (v *Video) DislikedBy(userID int64) bool {
	_, found := slices.BinarySearch(v.Dislikes, userID)
	return found
}

// MarkWatched 记录用户已观看，重复调用无副作用。
func (v *Video) MarkWatched(userID int64) bool {
	var changed bool
	v.Watchers, changed = insertID(v.Watchers, userID)
	return changed
}

// WatchedBy 判断用户是否观看过。
func (v *Video) WatchedBy(userID int64) bool {
	_, found := slices.BinarySearch(v.Watchers, userID)
	return found
}

// AddRating 写入（或覆盖）用户评分并同步重算聚合评分。
func (v *Video) AddRating(userID int64, value float64) {
	if v.UserRatings == nil {
		v.UserRatings = make(map[int64]float64)
	}
	v.UserRatings[userID] = value
	v.RecalculateRating()
}

// RecalculateRating 将 Rating 重置为 UserRatings 的算术平均，空集合时为 0。
func (v *Video) RecalculateRating() {
	if len(v.UserRatings) == 0 {
		v.Rating = 0
		return
	}
	var total float64
	for _, r := range v.UserRatings {
		total += r
	}
	v.Rating = total / float64(len(v.UserRatings))
}

// AddComment 追加评论。ID 为 0 的评论在保存时由存储分配主键。
func (v *Video) AddComment(c Comment) {
	v.Comments = append(v.Comments, c)
}

// SetTags 规范化并覆盖标签：去除首尾空白、丢弃空串、忽略大小写去重并保持原始顺序。
func (v *Video) SetTags(tags []string) {
	v.Tags = normalizeList(tags)
}

// SetActors 规范化并覆盖演员列表，规则同 SetTags。
func (v *Video) SetActors(actors []string) {
	v.Actors = normalizeList(actors)
}

// Clone 返回聚合的深拷贝。
func (v *Video) Clone() *Video {
	if v == nil {
		return nil
	}
	out := *v
	out.Actors = slices.Clone(v.Actors)
	out.Tags = slices.Clone(v.Tags)
	out.Likes = slices.Clone(v.Likes)
	out.Dislikes = slices.Clone(v.Dislikes)
	out.Watchers = slices.Clone(v.Watchers)
	out.Comments = slices.Clone(v.Comments)
	if v.ReleaseDate != nil {
		d := *v.ReleaseDate
		out.ReleaseDate = &d
	}
	if v.UserRatings != nil {
		out.UserRatings = make(map[int64]float64, len(v.UserRatings))
		for k, r := range v.UserRatings {
			out.UserRatings[k] = r
		}
	}
	return &out
}

func insertID(ids []int64, id int64) ([]int64, bool) {
	idx, found := slices.BinarySearch(ids, id)
	if found {
		return ids, false
	}
	return slices.Insert(ids, idx, id), true
}

func removeID(ids []int64, id int64) ([]int64, bool) {
	idx, found := slices.BinarySearch(ids, id)
	if !found {
		return ids, false
	}
	return slices.Delete(ids, idx, idx+1), true
}

func normalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, value)
	}
	return out
}
