package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bionicotaku/lingo-services-videos/internal/conf"
	"github.com/bionicotaku/lingo-services-videos/internal/controllers"
	"github.com/bionicotaku/lingo-services-videos/internal/controllers/dto"
	"github.com/bionicotaku/lingo-services-videos/internal/infrastructure/storage"
	"github.com/bionicotaku/lingo-services-videos/internal/repositories"
	"github.com/bionicotaku/lingo-services-videos/internal/services"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/stretchr/testify/require"
)

type apiError struct {
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

func newTestServer(t *testing.T) *khttp.Server {
	t.Helper()
	logger := log.NewStdLogger(io.Discard)
	repo := repositories.NewMemoryVideoRepository(logger)
	media, err := storage.NewFSStore(&conf.FSStorage{Root: t.TempDir(), BaseURL: "/media"}, logger)
	require.NoError(t, err)

	commands := services.NewVideoCommandService(repo, media, nil, nil, logger)
	queries := services.NewVideoQueryService(repo, media, nil, logger)
	base := controllers.NewBaseHandler(controllers.NewHandlerTimeouts(&conf.Handlers{}))
	handler := controllers.NewVideoHandler(base, commands, queries, &conf.Handlers{MaxUploadBytes: 4096}, logger)

	srv := khttp.NewServer()
	handler.Register(srv)
	return srv
}

func do(t *testing.T, srv http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func create(t *testing.T, srv http.Handler, req dto.CreateVideoRequest) dto.VideoResponse {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/videos", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dto.VideoResponse](t, rec)
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, code int, reason string) {
	t.Helper()
	require.Equal(t, code, rec.Code, rec.Body.String())
	require.Equal(t, reason, decode[apiError](t, rec).Reason)
}

func TestVideoHandler_CreateGetUpdateDelete(t *testing.T) {
	srv := newTestServer(t)

	created := create(t, srv, dto.CreateVideoRequest{Title: "Intro", Genre: "docs", Tags: []string{"go"}})
	require.NotZero(t, created.ID)
	path := "/api/videos/" + itoa(created.ID)

	rec := do(t, srv, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[dto.VideoResponse](t, rec)
	require.Equal(t, "Intro", got.Title)
	require.Equal(t, []string{"go"}, got.Tags)
	require.Equal(t, []int64{}, got.Likes)

	rec = do(t, srv, http.MethodPut, path, dto.UpdateVideoRequest{Title: "Intro v2", DurationSeconds: 30})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "Intro v2", decode[dto.VideoResponse](t, rec).Title)

	rec = do(t, srv, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	requireError(t, do(t, srv, http.MethodGet, path, nil), http.StatusNotFound, services.ReasonVideoNotFound)
	requireError(t, do(t, srv, http.MethodDelete, path, nil), http.StatusNotFound, services.ReasonVideoNotFound)
}

func TestVideoHandler_CreateValidation(t *testing.T) {
	srv := newTestServer(t)

	requireError(t, do(t, srv, http.MethodPost, "/api/videos", dto.CreateVideoRequest{}), http.StatusBadRequest, services.ReasonVideoInvalid)
	requireError(t, do(t, srv, http.MethodPost, "/api/videos", dto.CreateVideoRequest{Title: "x", DurationSeconds: -1}), http.StatusBadRequest, services.ReasonVideoInvalid)
	requireError(t, do(t, srv, http.MethodPut, "/api/videos/404", dto.UpdateVideoRequest{Title: "x"}), http.StatusNotFound, services.ReasonVideoNotFound)
}

func TestVideoHandler_SearchReturns404WhenEmpty(t *testing.T) {
	srv := newTestServer(t)
	create(t, srv, dto.CreateVideoRequest{Title: "Learning Go"})

	rec := do(t, srv, http.MethodGet, "/api/videos/search?title=go", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]dto.VideoResponse](t, rec), 1)

	requireError(t, do(t, srv, http.MethodGet, "/api/videos/search?title=haskell", nil), http.StatusNotFound, services.ReasonVideoNotFound)
	requireError(t, do(t, srv, http.MethodGet, "/api/videos/search?title=", nil), http.StatusNotFound, services.ReasonVideoNotFound)
}

func TestVideoHandler_ReactionsRatingsComments(t *testing.T) {
	srv := newTestServer(t)
	video := create(t, srv, dto.CreateVideoRequest{Title: "Intro"})
	path := "/api/videos/" + itoa(video.ID)

	rec := do(t, srv, http.MethodPost, path+"/ratings", dto.RatingRequest{UserID: 1, Value: 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, srv, http.MethodPost, path+"/ratings", dto.RatingRequest{UserID: 2, Value: 2})
	require.Equal(t, http.StatusOK, rec.Code)
	require.InDelta(t, 3.0, decode[dto.VideoResponse](t, rec).Rating, 1e-9)

	requireError(t, do(t, srv, http.MethodPost, path+"/ratings", dto.RatingRequest{UserID: 1, Value: 5.5}), http.StatusBadRequest, services.ReasonVideoInvalid)

	rec = do(t, srv, http.MethodPost, path+"/like?user_id=7", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, srv, http.MethodPost, path+"/dislike", nil, "x-md-global-user-id", "7")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reacted := decode[dto.VideoResponse](t, rec)
	require.Empty(t, reacted.Likes)
	require.Equal(t, []int64{7}, reacted.Dislikes)

	requireError(t, do(t, srv, http.MethodPost, path+"/like", nil), http.StatusBadRequest, services.ReasonVideoInvalid)
	requireError(t, do(t, srv, http.MethodPost, "/api/videos/999/like?user_id=1", nil), http.StatusNotFound, services.ReasonVideoNotFound)

	rec = do(t, srv, http.MethodPost, path+"/comments", dto.CommentRequest{Body: "nice"}, "x-md-global-user-id", "3")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	comment := decode[dto.CommentResponse](t, rec)
	require.NotZero(t, comment.ID)
	require.Equal(t, int64(3), comment.UserID)

	rec = do(t, srv, http.MethodPost, path+"/view", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(1), decode[dto.VideoResponse](t, rec).Views)

	rec = do(t, srv, http.MethodPost, path+"/watched?user_id=9", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/videos/watched/9", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]dto.VideoResponse](t, rec), 1)
}

func TestVideoHandler_FeaturedAndCategory(t *testing.T) {
	srv := newTestServer(t)
	video := create(t, srv, dto.CreateVideoRequest{Title: "Intro"})
	path := "/api/videos/" + itoa(video.ID)

	rec := do(t, srv, http.MethodPut, path+"/featured", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decode[dto.VideoResponse](t, rec).Featured)
	rec = do(t, srv, http.MethodDelete, path+"/featured", nil)
	require.False(t, decode[dto.VideoResponse](t, rec).Featured)

	rec = do(t, srv, http.MethodPut, path+"/category", dto.CategoryRequest{Category: "film"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "film", decode[dto.VideoResponse](t, rec).Category)

	rec = do(t, srv, http.MethodGet, "/api/videos/categories/film/count", nil)
	require.Equal(t, int64(1), decode[dto.CountResponse](t, rec).Count)

	rec = do(t, srv, http.MethodDelete, path+"/category", nil)
	require.Empty(t, decode[dto.VideoResponse](t, rec).Category)
}

func TestVideoHandler_ListingEndpoints(t *testing.T) {
	srv := newTestServer(t)
	a := create(t, srv, dto.CreateVideoRequest{Title: "A", Genre: "drama", ReleaseYear: 2010, Language: "en"})
	b := create(t, srv, dto.CreateVideoRequest{Title: "B", Genre: "comedy", ReleaseYear: 1958, Actors: []string{"Tati"}})

	rec := do(t, srv, http.MethodGet, "/api/videos", nil)
	require.Len(t, decode[[]dto.VideoResponse](t, rec), 2)

	rec = do(t, srv, http.MethodGet, "/api/videos/genre/drama", nil)
	list := decode[[]dto.VideoResponse](t, rec)
	require.Len(t, list, 1)
	require.Equal(t, a.ID, list[0].ID)

	rec = do(t, srv, http.MethodGet, "/api/videos/year/1958", nil)
	list = decode[[]dto.VideoResponse](t, rec)
	require.Len(t, list, 1)
	require.Equal(t, b.ID, list[0].ID)

	rec = do(t, srv, http.MethodGet, "/api/videos/actor/Tati", nil)
	require.Len(t, decode[[]dto.VideoResponse](t, rec), 1)

	rec = do(t, srv, http.MethodGet, "/api/videos/genres", nil)
	require.Equal(t, []string{"comedy", "drama"}, decode[[]string](t, rec))

	rec = do(t, srv, http.MethodGet, "/api/videos/count", nil)
	require.Equal(t, int64(2), decode[dto.CountResponse](t, rec).Count)

	rec = do(t, srv, http.MethodPost, "/api/videos/"+itoa(b.ID)+"/view", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, srv, http.MethodGet, "/api/videos/popular?limit=1", nil)
	list = decode[[]dto.VideoResponse](t, rec)
	require.Len(t, list, 1)
	require.Equal(t, b.ID, list[0].ID)

	rec = do(t, srv, http.MethodGet, "/api/videos/recent", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/videos/filter?language=en&year_from=2000", nil)
	list = decode[[]dto.VideoResponse](t, rec)
	require.Len(t, list, 1)
	require.Equal(t, a.ID, list[0].ID)

	rec = do(t, srv, http.MethodGet, "/api/videos/recommended/5?limit=10", nil)
	require.Len(t, decode[[]dto.VideoResponse](t, rec), 2)

	rec = do(t, srv, http.MethodGet, "/api/videos/random", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/videos/"+itoa(a.ID)+"/exists", nil)
	require.Equal(t, map[string]bool{"exists": true}, decode[map[string]bool](t, rec))

	requireError(t, do(t, srv, http.MethodGet, "/api/videos/filter?min_rating=high", nil), http.StatusBadRequest, services.ReasonVideoInvalid)
	requireError(t, do(t, srv, http.MethodGet, "/api/videos/years?from=2020&to=2000", nil), http.StatusBadRequest, services.ReasonVideoInvalid)
}

func TestVideoHandler_EmptyCatalog(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/videos", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	requireError(t, do(t, srv, http.MethodGet, "/api/videos/random", nil), http.StatusNotFound, services.ReasonVideoNotFound)
}

func TestVideoHandler_AdminBulkOperations(t *testing.T) {
	srv := newTestServer(t)
	a := create(t, srv, dto.CreateVideoRequest{Title: "A", Category: "docs"})
	create(t, srv, dto.CreateVideoRequest{Title: "B", Category: "docs"})
	create(t, srv, dto.CreateVideoRequest{Title: "C"})
	do(t, srv, http.MethodPost, "/api/videos/"+itoa(a.ID)+"/view", nil)

	rec := do(t, srv, http.MethodPost, "/api/videos/admin/reset-views", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(3), decode[dto.AffectedResponse](t, rec).Affected)

	rec = do(t, srv, http.MethodPut, "/api/videos/admin/categories/docs/status", dto.StatusRequest{Status: "archived"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, int64(2), decode[dto.AffectedResponse](t, rec).Affected)

	requireError(t, do(t, srv, http.MethodPut, "/api/videos/admin/categories/docs/status", dto.StatusRequest{Status: "gone"}), http.StatusBadRequest, services.ReasonVideoInvalid)

	rec = do(t, srv, http.MethodDelete, "/api/videos/admin/categories/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(2), decode[dto.AffectedResponse](t, rec).Affected)

	rec = do(t, srv, http.MethodGet, "/api/videos/count", nil)
	require.Equal(t, int64(1), decode[dto.CountResponse](t, rec).Count)
}

func multipartRequest(t *testing.T, fields map[string]string, fileName string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/videos", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestVideoHandler_UploadAndStreamMedia(t *testing.T) {
	srv := newTestServer(t)

	req := multipartRequest(t, map[string]string{"title": "Clip", "description": "short"}, "clip.mp4", []byte("fake-video"))
	req.Header.Set("x-md-global-user-id", "u-42")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	video := decode[dto.VideoResponse](t, rec)
	require.True(t, strings.HasSuffix(video.FileName, ".mp4"))
	require.Equal(t, "/media/"+video.FileName, video.VideoURL)
	require.True(t, video.IsPublic)
	require.Equal(t, "u-42", video.UploadedBy)

	rec = do(t, srv, http.MethodGet, "/api/videos/recommended/7", nil)
	recs := decode[[]dto.VideoResponse](t, rec)
	require.Len(t, recs, 1)
	require.Equal(t, video.ID, recs[0].ID)

	req = multipartRequest(t, map[string]string{"title": "Draft", "is_public": "false", "uploaded_by": "editor"}, "draft.mp4", []byte("x"))
	req.Header.Set("x-md-global-user-id", "u-42")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	draft := decode[dto.VideoResponse](t, rec)
	require.False(t, draft.IsPublic)
	require.Equal(t, "editor", draft.UploadedBy)

	rec = do(t, srv, http.MethodGet, "/api/videos/"+itoa(video.ID)+"/media", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	require.Equal(t, "fake-video", rec.Body.String())

	plain := create(t, srv, dto.CreateVideoRequest{Title: "no media"})
	requireError(t, do(t, srv, http.MethodGet, "/api/videos/"+itoa(plain.ID)+"/media", nil), http.StatusNotFound, services.ReasonMediaNotFound)
}

func TestVideoHandler_UploadValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, map[string]string{"title": "No file"}, "", nil))
	requireError(t, rec, http.StatusBadRequest, services.ReasonVideoInvalid)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, map[string]string{"title": ""}, "a.mp4", []byte("x")))
	requireError(t, rec, http.StatusBadRequest, services.ReasonVideoInvalid)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, map[string]string{"title": "big"}, "a.mp4", bytes.Repeat([]byte("x"), 8192)))
	requireError(t, rec, http.StatusRequestEntityTooLarge, services.ReasonVideoInvalid)
}
