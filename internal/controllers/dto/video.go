// Package dto 提供控制器层的请求解析与响应构造工具。
// 单独的 dto 层可以隔离协议对象与业务用例之间的转换逻辑。
package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-services-videos/internal/models/po"
	"github.com/bionicotaku/lingo-services-videos/internal/services"
)

// CreateVideoRequest 是 POST /api/videos 的 JSON 请求体。
type CreateVideoRequest struct {
	Title           string   `json:"title" validate:"required,max=500"`
	Description     string   `json:"description" validate:"max=10000"`
	VideoURL        string   `json:"video_url" validate:"omitempty,max=2048"`
	ThumbnailURL    string   `json:"thumbnail_url" validate:"omitempty,max=2048"`
	UploadedBy      string   `json:"uploaded_by" validate:"max=255"`
	DurationSeconds int32    `json:"duration_seconds" validate:"gte=0"`
	IsPublic        *bool    `json:"is_public,omitempty"`
	Category        string   `json:"category" validate:"max=255"`
	Genre           string   `json:"genre" validate:"max=255"`
	Language        string   `json:"language" validate:"max=64"`
	Director        string   `json:"director" validate:"max=255"`
	ReleaseYear     int32    `json:"release_year" validate:"gte=0,lte=9999"`
	ReleaseDate     string   `json:"release_date" validate:"omitempty,datetime=2006-01-02"`
	Featured        bool     `json:"featured"`
	Tags            []string `json:"tags" validate:"max=64,dive,max=128"`
	Actors          []string `json:"actors" validate:"max=128,dive,max=255"`
}

// UpdateVideoRequest 是 PUT /api/videos/{id} 的 JSON 请求体。
type UpdateVideoRequest struct {
	Title           string `json:"title" validate:"required,max=500"`
	Description     string `json:"description" validate:"max=10000"`
	VideoURL        string `json:"video_url" validate:"omitempty,max=2048"`
	DurationSeconds int32  `json:"duration_seconds" validate:"gte=0"`
	ReleaseDate     string `json:"release_date" validate:"omitempty,datetime=2006-01-02"`
}

// RatingRequest 是 POST /api/videos/{id}/ratings 的请求体。
type RatingRequest struct {
	UserID int64   `json:"user_id"`
	Value  float64 `json:"value" validate:"gte=0,lte=5"`
}

// CommentRequest 是 POST /api/videos/{id}/comments 的请求体。
type CommentRequest struct {
	UserID int64  `json:"user_id"`
	Body   string `json:"body" validate:"required,max=5000"`
}

// CategoryRequest 是 PUT /api/videos/{id}/category 的请求体。
type CategoryRequest struct {
	Category string `json:"category" validate:"required,max=255"`
}

// StatusRequest 是 PUT /api/videos/admin/categories/{category}/status 的请求体。
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available unavailable archived"`
}

// ToCreateVideoInput 将请求体映射为服务层输入。
func ToCreateVideoInput(req CreateVideoRequest) (services.CreateVideoInput, error) {
	releaseDate, err := parseDate(req.ReleaseDate)
	if err != nil {
		return services.CreateVideoInput{}, err
	}
	return services.CreateVideoInput{
		Title:           req.Title,
		Description:     req.Description,
		VideoURL:        req.VideoURL,
		ThumbnailURL:    req.ThumbnailURL,
		UploadedBy:      req.UploadedBy,
		DurationSeconds: req.DurationSeconds,
		IsPublic:        req.IsPublic,
		Category:        req.Category,
		Genre:           req.Genre,
		Language:        req.Language,
		Director:        req.Director,
		ReleaseYear:     req.ReleaseYear,
		ReleaseDate:     releaseDate,
		Featured:        req.Featured,
		Tags:            req.Tags,
		Actors:          req.Actors,
	}, nil
}

// ToUpdateVideoInput 将请求体映射为服务层输入。
func ToUpdateVideoInput(id int64, req UpdateVideoRequest) (services.UpdateVideoInput, error) {
	releaseDate, err := parseDate(req.ReleaseDate)
	if err != nil {
		return services.UpdateVideoInput{}, err
	}
	return services.UpdateVideoInput{
		ID:              id,
		Title:           req.Title,
		Description:     req.Description,
		VideoURL:        req.VideoURL,
		DurationSeconds: req.DurationSeconds,
		ReleaseDate:     releaseDate,
	}, nil
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid release_date: %w", err)
	}
	return &t, nil
}

// VideoResponse 是视频的对外 JSON 表示。
type VideoResponse struct {
	ID                 int64             `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	VideoURL           string            `json:"video_url"`
	ThumbnailURL       string            `json:"thumbnail_url,omitempty"`
	FileName           string            `json:"file_name,omitempty"`
	UploadedBy         string            `json:"uploaded_by,omitempty"`
	UploadedAt         string            `json:"uploaded_at"`
	DurationSeconds    int32             `json:"duration_seconds"`
	IsPublic           bool              `json:"is_public"`
	Category           string            `json:"category,omitempty"`
	Genre              string            `json:"genre,omitempty"`
	Language           string            `json:"language,omitempty"`
	Director           string            `json:"director,omitempty"`
	ReleaseYear        int32             `json:"release_year,omitempty"`
	ReleaseDate        string            `json:"release_date,omitempty"`
	AvailabilityStatus string            `json:"availability_status"`
	Featured           bool              `json:"featured"`
	Actors             []string          `json:"actors"`
	Tags               []string          `json:"tags"`
	Views              int64             `json:"views"`
	Rating             float64           `json:"rating"`
	Likes              []int64           `json:"likes"`
	Dislikes           []int64           `json:"dislikes"`
	UserRatings        map[int64]float64 `json:"user_ratings"`
	Watchers           []int64           `json:"watched_by"`
	Comments           []CommentResponse `json:"comments"`
	CreatedAt          string            `json:"created_at,omitempty"`
	UpdatedAt          string            `json:"updated_at,omitempty"`
}

// CommentResponse 是评论的对外 JSON 表示。
type CommentResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

// CountResponse 包装计数类结果。
type CountResponse struct {
	Count int64 `json:"count"`
}

// AffectedResponse 包装批量操作影响的行数。
type AffectedResponse struct {
	Affected int64 `json:"affected"`
}

// NewVideoResponse 将聚合转换为响应体。集合字段始终输出数组/对象而非 null。
func NewVideoResponse(v *po.Video) VideoResponse {
	if v == nil {
		return VideoResponse{}
	}
	resp := VideoResponse{
		ID:                 v.ID,
		Title:              v.Title,
		Description:        v.Description,
		VideoURL:           v.VideoURL,
		ThumbnailURL:       v.ThumbnailURL,
		FileName:           v.FileName,
		UploadedBy:         v.UploadedBy,
		UploadedAt:         FormatTime(v.UploadedAt),
		DurationSeconds:    v.DurationSeconds,
		IsPublic:           v.IsPublic,
		Category:           v.Category,
		Genre:              v.Genre,
		Language:           v.Language,
		Director:           v.Director,
		ReleaseYear:        v.ReleaseYear,
		AvailabilityStatus: string(v.AvailabilityStatus),
		Featured:           v.Featured,
		Actors:             nonNil(v.Actors),
		Tags:               nonNil(v.Tags),
		Views:              v.Views,
		Rating:             v.Rating,
		Likes:              nonNil(v.Likes),
		Dislikes:           nonNil(v.Dislikes),
		UserRatings:        v.UserRatings,
		Watchers:           nonNil(v.Watchers),
		Comments:           make([]CommentResponse, 0, len(v.Comments)),
		CreatedAt:          FormatTime(v.CreatedAt),
		UpdatedAt:          FormatTime(v.UpdatedAt),
	}
	if resp.UserRatings == nil {
		resp.UserRatings = map[int64]float64{}
	}
	if v.ReleaseDate != nil {
		resp.ReleaseDate = v.ReleaseDate.Format(time.DateOnly)
	}
	for _, c := range v.Comments {
		resp.Comments = append(resp.Comments, NewCommentResponse(&c))
	}
	return resp
}

// NewVideoList 转换视频列表，空列表输出 []。
func NewVideoList(videos []*po.Video) []VideoResponse {
	out := make([]VideoResponse, 0, len(videos))
	for _, v := range videos {
		out = append(out, NewVideoResponse(v))
	}
	return out
}

// NewCommentResponse 转换单条评论。
func NewCommentResponse(c *po.Comment) CommentResponse {
	if c == nil {
		return CommentResponse{}
	}
	return CommentResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Body:      c.Body,
		CreatedAt: FormatTime(c.CreatedAt),
	}
}

// FormatTime 以 RFC3339 输出 UTC 时间，零值返回空串。
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
