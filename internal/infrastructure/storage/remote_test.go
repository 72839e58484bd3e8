package storage

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-videos/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
)

func TestNewGCSStoreValidatesConfig(t *testing.T) {
	logger := log.NewStdLogger(io.Discard)

	_, _, err := NewGCSStore(context.Background(), nil, logger)
	require.Error(t, err)

	_, _, err = NewGCSStore(context.Background(), &conf.GCSStorage{}, logger)
	require.ErrorContains(t, err, "bucket is required")
}

func TestNewGCSStoreWithEmulatorEndpoint(t *testing.T) {
	ctx := context.Background()
	store, cleanup, err := NewGCSStore(ctx, &conf.GCSStorage{
		Bucket:   "videos-media",
		Endpoint: "http://127.0.0.1:1/storage/v1/",
	}, log.NewStdLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(cleanup)

	require.Equal(t, "https://storage.googleapis.com/videos-media", store.baseURL)

	_, err = store.Open(ctx, "../escape.mp4")
	require.ErrorIs(t, err, ErrInvalidObjectName)
	require.ErrorIs(t, store.Delete(ctx, ""), ErrInvalidObjectName)
}

func TestNewMinIOStoreValidatesConfig(t *testing.T) {
	logger := log.NewStdLogger(io.Discard)

	_, err := NewMinIOStore(context.Background(), nil, logger)
	require.Error(t, err)

	_, err = NewMinIOStore(context.Background(), &conf.MinIOStorage{Bucket: "videos"}, logger)
	require.ErrorContains(t, err, "endpoint and bucket are required")

	_, err = NewMinIOStore(context.Background(), &conf.MinIOStorage{Endpoint: "127.0.0.1:9000"}, logger)
	require.ErrorContains(t, err, "endpoint and bucket are required")

	_, err = NewMinIOStore(context.Background(), &conf.MinIOStorage{Endpoint: "bad endpoint", Bucket: "videos"}, logger)
	require.ErrorContains(t, err, "new client")
}

func TestNewMinIOStoreUnreachableEndpoint(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewMinIOStore(ctx, &conf.MinIOStorage{
		Endpoint:  "127.0.0.1:1",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "videos",
	}, log.NewStdLogger(io.Discard))
	require.ErrorContains(t, err, "check bucket")
}

func TestNewSelectsBackendByDriver(t *testing.T) {
	logger := log.NewStdLogger(io.Discard)
	ctx := context.Background()

	_, _, err := New(ctx, nil, logger)
	require.Error(t, err)

	_, _, err = New(ctx, &conf.Storage{Driver: "tape"}, logger)
	require.ErrorContains(t, err, `unknown storage driver "tape"`)

	_, _, err = New(ctx, &conf.Storage{Driver: "gcs", GCS: &conf.GCSStorage{}}, logger)
	require.ErrorContains(t, err, "gcs storage")

	_, _, err = New(ctx, &conf.Storage{Driver: "minio", MinIO: &conf.MinIOStorage{}}, logger)
	require.ErrorContains(t, err, "minio storage")

	backend, cleanup, err := New(ctx, &conf.Storage{Driver: "fs", FS: &conf.FSStorage{Root: t.TempDir()}}, logger)
	require.NoError(t, err)
	defer cleanup()
	require.IsType(t, &FSStore{}, backend)
}
