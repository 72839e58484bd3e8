package dto

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-services-videos/internal/models/po"
	"github.com/bionicotaku/lingo-services-videos/internal/repositories"
)

// ParseVideoID 解析路径中的视频 id。
func ParseVideoID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid video id %q", raw)
	}
	return id, nil
}

// ParseUserID 解析用户 id；空串返回 0。
func ParseUserID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user_id %q", raw)
	}
	return id, nil
}

// ParseLimit 解析 limit 查询参数；缺省返回 0，由服务层取默认值。
func ParseLimit(values url.Values) (int, error) {
	raw := strings.TrimSpace(values.Get("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return n, nil
}

// ParseYear 解析年份。
func ParseYear(raw string) (int32, error) {
	year, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil || year < 0 {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return int32(year), nil
}

// ParseFilter 将 /api/videos/filter 的查询参数转换为 VideoFilter。
// 支持的参数：title, genre, category, language, director, actor, tags（逗号分隔）,
// uploaded_by, year, year_from, year_to, min_rating, min_user_rating,
// duration_above, duration_from, duration_to, views_from, views_to,
// uploaded_from, uploaded_to（RFC3339）, status, featured, public_only,
// watched_by, not_watched_by, order（views|recent|rating|duration）, limit。
func ParseFilter(values url.Values) (repositories.VideoFilter, error) {
	f := repositories.VideoFilter{
		TitleContains:      strings.TrimSpace(values.Get("title")),
		Genre:              strings.TrimSpace(values.Get("genre")),
		Category:           strings.TrimSpace(values.Get("category")),
		Language:           strings.TrimSpace(values.Get("language")),
		Director:           strings.TrimSpace(values.Get("director")),
		Actor:              strings.TrimSpace(values.Get("actor")),
		UploadedBy:         strings.TrimSpace(values.Get("uploaded_by")),
		AvailabilityStatus: po.AvailabilityStatus(strings.ToLower(strings.TrimSpace(values.Get("status")))),
		Tags:               splitList(values["tags"]),
	}

	var err error
	p := parser{values: values}
	f.ReleaseYear = p.i32("year")
	f.ReleaseYearFrom = p.i32("year_from")
	f.ReleaseYearTo = p.i32("year_to")
	f.MinRating = p.f64("min_rating")
	f.MinUserRating = p.f64("min_user_rating")
	f.DurationAbove = p.i32("duration_above")
	f.DurationFrom = p.i32("duration_from")
	f.DurationTo = p.i32("duration_to")
	f.ViewsFrom = p.i64("views_from")
	f.ViewsTo = p.i64("views_to")
	f.UploadedFrom = p.ts("uploaded_from")
	f.UploadedTo = p.ts("uploaded_to")
	f.Featured = p.flag("featured")
	f.WatchedBy = p.i64("watched_by")
	f.NotWatchedBy = p.i64("not_watched_by")
	if public := p.flag("public_only"); public != nil {
		f.PublicOnly = *public
	}
	if p.err != nil {
		return repositories.VideoFilter{}, p.err
	}

	if f.Order, err = parseOrder(values.Get("order")); err != nil {
		return repositories.VideoFilter{}, err
	}
	if f.Limit, err = ParseLimit(values); err != nil {
		return repositories.VideoFilter{}, err
	}
	return f, nil
}

func parseOrder(raw string) (repositories.VideoOrder, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "id":
		return repositories.OrderIDAsc, nil
	case "views":
		return repositories.OrderViewsDesc, nil
	case "recent":
		return repositories.OrderRecentDesc, nil
	case "rating":
		return repositories.OrderRatingDesc, nil
	case "duration":
		return repositories.OrderDurationDesc, nil
	default:
		return 0, fmt.Errorf("invalid order %q", raw)
	}
}

func splitList(raw []string) []string {
	var out []string
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parser 累积第一个解析错误，避免逐字段判断。
type parser struct {
	values url.Values
	err    error
}

func (p *parser) raw(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v := strings.TrimSpace(p.values.Get(key))
	return v, v != ""
}

func (p *parser) fail(key, raw string) {
	p.err = fmt.Errorf("invalid %s %q", key, raw)
}

func (p *parser) i32(key string) *int32 {
	raw, ok := p.raw(key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		p.fail(key, raw)
		return nil
	}
	v := int32(n)
	return &v
}

func (p *parser) i64(key string) *int64 {
	raw, ok := p.raw(key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		p.fail(key, raw)
		return nil
	}
	return &n
}

func (p *parser) f64(key string) *float64 {
	raw, ok := p.raw(key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw)
		return nil
	}
	return &n
}

func (p *parser) flag(key string) *bool {
	raw, ok := p.raw(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw)
		return nil
	}
	return &b
}

func (p *parser) ts(key string) *time.Time {
	raw, ok := p.raw(key)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		p.fail(key, raw)
		return nil
	}
	return &t
}
