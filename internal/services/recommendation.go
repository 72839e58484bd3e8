package services

import (
	"cmp"
	"slices"

	"github.com/bionicotaku/lingo-services-videos/internal/models/po"
)

// Ranker 对推荐候选集排序，返回新切片，不修改入参。
type Ranker interface {
	Rank(userID int64, candidates []*po.Video) []*po.Video
}

// RatingRanker 按聚合评分降序、播放次数降序、id 升序排序。
type RatingRanker struct{}

// NewRatingRanker 返回默认排序器。
func NewRatingRanker() RatingRanker { return RatingRanker{} }

// Rank 实现 Ranker。
func (RatingRanker) Rank(_ int64, candidates []*po.Video) []*po.Video {
	out := slices.Clone(candidates)
	slices.SortStableFunc(out, func(a, b *po.Video) int {
		if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Views, a.Views); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
