package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-videos/internal/models/po"
	"github.com/bionicotaku/lingo-services-videos/internal/repositories"

	"github.com/stretchr/testify/require"
)

// videoStore 是两个仓储实现共享的方法集。
type videoStore interface {
	Save(ctx context.Context, video *po.Video) (*po.Video, error)
	FindByID(ctx context.Context, id int64) (*po.Video, error)
	DeleteByID(ctx context.Context, id int64) error
	FindAll(ctx context.Context) ([]*po.Video, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, filter repositories.VideoFilter) ([]*po.Video, error)
	Random(ctx context.Context) (*po.Video, error)
	DistinctGenres(ctx context.Context) ([]string, error)
	CountByCategory(ctx context.Context, category string) (int64, error)
	IncrementViews(ctx context.Context, id int64) error
	ResetViews(ctx context.Context) (int64, error)
	UpdateStatusByCategory(ctx context.Context, category string, status po.AvailabilityStatus) (int64, error)
	DeleteByCategory(ctx context.Context, category string) ([]string, error)
}

// runVideoRepositorySuite 对空仓储执行同一组行为断言。
func runVideoRepositorySuite(t *testing.T, repo videoStore) {
	ctx := context.Background()

	_, err := repo.Random(ctx)
	require.True(t, errors.Is(err, repositories.ErrVideoNotFound))

	release := time.Date(2010, 7, 16, 0, 0, 0, 0, time.UTC)
	video := &po.Video{
		Title:           "Inception",
		Description:     "dreams",
		VideoURL:        "/media/inception.mp4",
		FileName:        "inception.mp4",
		UploadedBy:      "alice",
		DurationSeconds: 8880,
		IsPublic:        true,
		Category:        "film",
		Genre:           "scifi",
		Language:        "en",
		Director:        "Nolan",
		ReleaseYear:     2010,
		ReleaseDate:     &release,
	}
	video.SetTags([]string{"dream", "heist"})
	video.SetActors([]string{"DiCaprio", "Page"})
	video.AddRating(1, 4)
	video.AddRating(2, 2)
	video.AddLike(7)
	video.AddDislike(8)
	video.MarkWatched(9)
	video.AddComment(po.Comment{UserID: 3, Body: "great"})

	saved, err := repo.Save(ctx, video)
	require.NoError(t, err)
	require.NotZero(t, saved.ID)
	require.False(t, saved.UploadedAt.IsZero())
	require.Equal(t, po.AvailabilityAvailable, saved.AvailabilityStatus)
	require.Len(t, saved.Comments, 1)
	require.NotZero(t, saved.Comments[0].ID)

	loaded, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, "Inception", loaded.Title)
	require.Equal(t, []string{"dream", "heist"}, loaded.Tags)
	require.Equal(t, []string{"DiCaprio", "Page"}, loaded.Actors)
	require.Equal(t, []int64{7}, loaded.Likes)
	require.Equal(t, []int64{8}, loaded.Dislikes)
	require.Equal(t, []int64{9}, loaded.Watchers)
	require.Equal(t, map[int64]float64{1: 4, 2: 2}, loaded.UserRatings)
	require.InDelta(t, 3.0, loaded.Rating, 1e-9)
	require.NotNil(t, loaded.ReleaseDate)
	require.Equal(t, release.Format(time.DateOnly), loaded.ReleaseDate.Format(time.DateOnly))

	loaded.AddLike(8)
	loaded.SetTags([]string{"heist"})
	loaded.AddComment(po.Comment{UserID: 4, Body: "again"})
	updated, err := repo.Save(ctx, loaded)
	require.NoError(t, err)
	require.Equal(t, saved.ID, updated.ID)
	require.Equal(t, []int64{7, 8}, updated.Likes)
	require.Empty(t, updated.Dislikes)
	require.Equal(t, []string{"heist"}, updated.Tags)
	require.Len(t, updated.Comments, 2)

	_, err = repo.Save(ctx, &po.Video{ID: 999999, Title: "ghost"})
	require.True(t, errors.Is(err, repositories.ErrVideoNotFound))

	other, err := repo.Save(ctx, &po.Video{Title: "Playtime", Category: "film", Genre: "comedy", Views: 3})
	require.NoError(t, err)
	third, err := repo.Save(ctx, &po.Video{Title: "Lecture", Category: "edu", FileName: "lecture.mp4"})
	require.NoError(t, err)

	require.NoError(t, repo.IncrementViews(ctx, saved.ID))
	require.True(t, errors.Is(repo.IncrementViews(ctx, 999999), repositories.ErrVideoNotFound))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, saved.ID, all[0].ID)

	popular, err := repo.List(ctx, repositories.VideoFilter{Order: repositories.OrderViewsDesc, Limit: 1})
	require.NoError(t, err)
	require.Len(t, popular, 1)
	require.Equal(t, other.ID, popular[0].ID)

	byTitle, err := repo.List(ctx, repositories.VideoFilter{TitleContains: "INCEP"})
	require.NoError(t, err)
	require.Len(t, byTitle, 1)

	byActor, err := repo.List(ctx, repositories.VideoFilter{Actor: "dicaprio"})
	require.NoError(t, err)
	require.Len(t, byActor, 1)

	watcher := int64(9)
	watched, err := repo.List(ctx, repositories.VideoFilter{WatchedBy: &watcher})
	require.NoError(t, err)
	require.Len(t, watched, 1)
	unwatched, err := repo.List(ctx, repositories.VideoFilter{NotWatchedBy: &watcher})
	require.NoError(t, err)
	require.Len(t, unwatched, 2)

	minRating := 2.5
	rated, err := repo.List(ctx, repositories.VideoFilter{MinRating: &minRating})
	require.NoError(t, err)
	require.Len(t, rated, 1)

	empty, err := repo.List(ctx, repositories.VideoFilter{Genre: "western"})
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	genres, err := repo.DistinctGenres(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"comedy", "scifi"}, genres)

	films, err := repo.CountByCategory(ctx, "film")
	require.NoError(t, err)
	require.Equal(t, int64(2), films)

	random, err := repo.Random(ctx)
	require.NoError(t, err)
	require.Contains(t, []int64{saved.ID, other.ID, third.ID}, random.ID)

	rows, err := repo.UpdateStatusByCategory(ctx, "film", po.AvailabilityArchived)
	require.NoError(t, err)
	require.Equal(t, int64(2), rows)
	archived, err := repo.List(ctx, repositories.VideoFilter{AvailabilityStatus: po.AvailabilityArchived})
	require.NoError(t, err)
	require.Len(t, archived, 2)

	reset, err := repo.ResetViews(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), reset)
	viewsTo := int64(0)
	zero, err := repo.List(ctx, repositories.VideoFilter{ViewsTo: &viewsTo})
	require.NoError(t, err)
	require.Len(t, zero, 3)

	names, err := repo.DeleteByCategory(ctx, "edu")
	require.NoError(t, err)
	require.Equal(t, []string{"lecture.mp4"}, names)

	require.NoError(t, repo.DeleteByID(ctx, saved.ID))
	exists, err := repo.Exists(ctx, saved.ID)
	require.NoError(t, err)
	require.False(t, exists)
	_, err = repo.FindByID(ctx, saved.ID)
	require.True(t, errors.Is(err, repositories.ErrVideoNotFound))

	remaining, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), remaining)
}
