package dto_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-videos/internal/controllers/dto"
	"github.com/bionicotaku/lingo-services-videos/internal/models/po"
	"github.com/bionicotaku/lingo-services-videos/internal/repositories"

	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	values := url.Values{
		"category":   {"film"},
		"actor":      {" Caine "},
		"tags":       {"a, b", "c"},
		"min_rating": {"3.5"},
		"year_from":  {"2000"},
		"year_to":    {"2010"},
		"featured":   {"true"},
		"order":      {"views"},
		"limit":      {"5"},
		"status":     {"Archived"},
	}
	f, err := dto.ParseFilter(values)
	require.NoError(t, err)
	require.Equal(t, "film", f.Category)
	require.Equal(t, "Caine", f.Actor)
	require.Equal(t, []string{"a", "b", "c"}, f.Tags)
	require.InDelta(t, 3.5, *f.MinRating, 1e-9)
	require.Equal(t, int32(2000), *f.ReleaseYearFrom)
	require.Equal(t, int32(2010), *f.ReleaseYearTo)
	require.True(t, *f.Featured)
	require.Equal(t, repositories.OrderViewsDesc, f.Order)
	require.Equal(t, 5, f.Limit)
	require.Equal(t, po.AvailabilityArchived, f.AvailabilityStatus)
	require.Nil(t, f.DurationAbove)
}

func TestParseFilterRejectsMalformed(t *testing.T) {
	for _, values := range []url.Values{
		{"min_rating": {"high"}},
		{"year": {"20x0"}},
		{"order": {"random"}},
		{"limit": {"-1"}},
		{"uploaded_from": {"yesterday"}},
	} {
		_, err := dto.ParseFilter(values)
		require.Error(t, err, "%v", values)
	}
}

func TestParseIDs(t *testing.T) {
	id, err := dto.ParseVideoID("42")
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
	_, err = dto.ParseVideoID("0")
	require.Error(t, err)

	uid, err := dto.ParseUserID("")
	require.NoError(t, err)
	require.Zero(t, uid)
	_, err = dto.ParseUserID("abc")
	require.Error(t, err)
}

func TestNewVideoResponseEmitsEmptyCollections(t *testing.T) {
	resp := dto.NewVideoResponse(&po.Video{ID: 1, Title: "A", UploadedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)})
	require.Equal(t, "2026-01-02T03:04:05Z", resp.UploadedAt)
	require.NotNil(t, resp.Likes)
	require.NotNil(t, resp.Tags)
	require.NotNil(t, resp.Comments)
	require.NotNil(t, resp.UserRatings)
	require.Empty(t, dto.NewVideoList(nil))
	require.NotNil(t, dto.NewVideoList(nil))
}

func TestToCreateVideoInputParsesReleaseDate(t *testing.T) {
	in, err := dto.ToCreateVideoInput(dto.CreateVideoRequest{Title: "A", ReleaseDate: "2010-07-16"})
	require.NoError(t, err)
	require.Equal(t, 2010, in.ReleaseDate.Year())

	_, err = dto.ToCreateVideoInput(dto.CreateVideoRequest{Title: "A", ReleaseDate: "16/07/2010"})
	require.Error(t, err)
}
