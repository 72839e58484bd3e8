package repositories_test

import (
	"context"
	"io"
	"testing"

	"github.com/bionicotaku/lingo-services-videos/internal/models/po"
	"github.com/bionicotaku/lingo-services-videos/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
)

func TestMemoryVideoRepository(t *testing.T) {
	repo := repositories.NewMemoryVideoRepository(log.NewStdLogger(io.Discard))
	runVideoRepositorySuite(t, repo)
}

func TestMemoryVideoRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryVideoRepository(log.NewStdLogger(io.Discard))

	saved, err := repo.Save(ctx, &po.Video{Title: "A", Tags: []string{"x"}})
	require.NoError(t, err)
	saved.Tags[0] = "mutated"
	saved.AddLike(1)

	stored, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, stored.Tags)
	require.Empty(t, stored.Likes)
}

func TestVideoFilter_SortVideosBreaksTiesByID(t *testing.T) {
	videos := []*po.Video{{ID: 3, Views: 1}, {ID: 1, Views: 1}, {ID: 2, Views: 5}}
	out := repositories.VideoFilter{Order: repositories.OrderViewsDesc, Limit: 2}.SortVideos(videos)
	require.Len(t, out, 2)
	require.Equal(t, int64(2), out[0].ID)
	require.Equal(t, int64(1), out[1].ID)
}

func TestVideoFilter_Match(t *testing.T) {
	v := &po.Video{
		Title:    "Learning Go",
		Genre:    "Education",
		Tags:     []string{"go", "backend"},
		Actors:   []string{"Gopher"},
		IsPublic: true,
		Watchers: []int64{4},
	}
	yes := int64(4)
	no := int64(5)

	require.True(t, repositories.VideoFilter{TitleContains: "learning"}.Match(v))
	require.True(t, repositories.VideoFilter{Genre: "education"}.Match(v))
	require.True(t, repositories.VideoFilter{Tags: []string{"rust", "BACKEND"}}.Match(v))
	require.False(t, repositories.VideoFilter{Tags: []string{"rust"}}.Match(v))
	require.True(t, repositories.VideoFilter{Actor: "gopher", PublicOnly: true}.Match(v))
	require.True(t, repositories.VideoFilter{WatchedBy: &yes}.Match(v))
	require.False(t, repositories.VideoFilter{WatchedBy: &no}.Match(v))
	require.False(t, repositories.VideoFilter{NotWatchedBy: &yes}.Match(v))
}
