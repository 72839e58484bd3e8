package repositories

import (
	"strings"
	"time"

	"github.com/bionicotaku/lingo-services-videos/internal/models/po"

	"github.com/jackc/pgx/v5/pgtype"
)

func timestamptzFromTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}

func dateFromTime(t *time.Time) pgtype.Date {
	if t == nil || t.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{
		Time:  time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
		Valid: true,
	}
}

func availabilityOrDefault(status po.AvailabilityStatus) po.AvailabilityStatus {
	if status == "" {
		return po.AvailabilityAvailable
	}
	return status
}

// pgx 将 nil slice 编码为 NULL，ANY(NULL) 不命中任何行，因此统一转换为空数组。
func nonNilInt64s(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(strings.TrimSpace(v)))
	}
	return out
}

// likePattern 构造大小写无关的包含匹配模式，并转义 LIKE 元字符。
func likePattern(value string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + escaper.Replace(strings.ToLower(value)) + "%"
}
