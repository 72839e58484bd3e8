package po_test

import (
	"testing"

	"github.com/bionicotaku/lingo-services-videos/internal/models/po"

	"github.com/stretchr/testify/require"
)

func TestVideo_LikeDislikeAreMutuallyExclusive(t *testing.T) {
	v := &po.Video{}

	require.True(t, v.AddLike(7))
	require.False(t, v.AddLike(7))
	require.True(t, v.LikedBy(7))

	require.True(t, v.AddDislike(7))
	require.False(t, v.LikedBy(7))
	require.True(t, v.DislikedBy(7))
	require.Empty(t, v.Likes)
	require.Equal(t, []int64{7}, v.Dislikes)
}

func TestVideo_SetsStaySorted(t *testing.T) {
	v := &po.Video{}
	for _, id := range []int64{9, 3, 5, 3} {
		v.AddLike(id)
		v.MarkWatched(id)
	}
	require.Equal(t, []int64{3, 5, 9}, v.Likes)
	require.Equal(t, []int64{3, 5, 9}, v.Watchers)
	require.True(t, v.WatchedBy(5))
	require.False(t, v.WatchedBy(4))
}

func TestVideo_RatingIsMeanOfUserRatings(t *testing.T) {
	v := &po.Video{}
	v.RecalculateRating()
	require.Zero(t, v.Rating)

	v.AddRating(1, 4)
	v.AddRating(2, 2)
	require.InDelta(t, 3.0, v.Rating, 1e-9)

	v.AddRating(2, 5)
	require.InDelta(t, 4.5, v.Rating, 1e-9)
	require.Len(t, v.UserRatings, 2)
}

func TestVideo_SetTagsNormalizes(t *testing.T) {
	v := &po.Video{}
	v.SetTags([]string{" Go ", "go", "", "backend", "GO"})
	require.Equal(t, []string{"Go", "backend"}, v.Tags)

	v.SetTags(nil)
	require.Nil(t, v.Tags)
}

func TestVideo_CloneIsDeep(t *testing.T) {
	v := &po.Video{ID: 1, Tags: []string{"a"}, Likes: []int64{1}}
	v.AddRating(1, 3)
	v.AddComment(po.Comment{UserID: 1, Body: "hi"})

	c := v.Clone()
	c.Tags[0] = "b"
	c.Likes[0] = 2
	c.UserRatings[1] = 5
	c.Comments[0].Body = "changed"

	require.Equal(t, "a", v.Tags[0])
	require.Equal(t, int64(1), v.Likes[0])
	require.Equal(t, 3.0, v.UserRatings[1])
	require.Equal(t, "hi", v.Comments[0].Body)
	require.Nil(t, (*po.Video)(nil).Clone())
}

func TestAvailabilityStatus_Valid(t *testing.T) {
	require.True(t, po.AvailabilityAvailable.Valid())
	require.True(t, po.AvailabilityArchived.Valid())
	require.False(t, po.AvailabilityStatus("deleted").Valid())
}
