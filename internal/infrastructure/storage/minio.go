package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bionicotaku/lingo-services-videos/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStore 将媒体文件保存在 S3 兼容的对象存储中。
type MinIOStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	log     *log.Helper
}

var _ Backend = (*MinIOStore)(nil)

// NewMinIOStore 创建客户端，bucket 不存在时自动创建。
func NewMinIOStore(ctx context.Context, cfg *conf.MinIOStorage, logger log.Logger) (*MinIOStore, error) {
	if cfg == nil {
		return nil, errors.New("minio storage: configuration is required")
	}
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio storage: endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio storage: new client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio storage: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("minio storage: create bucket: %w", err)
		}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	return &MinIOStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
		log:     log.NewHelper(logger),
	}, nil
}

// Store 上传对象。
func (s *MinIOStore) Store(ctx context.Context, data []byte, suggestedName string) (Object, error) {
	name := newObjectName(suggestedName)
	contentType := ContentType(name)
	info, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		s.log.WithContext(ctx).Errorf("minio upload failed: bucket=%s object=%s err=%v", s.bucket, name, err)
		return Object{}, fmt.Errorf("minio storage: put %s: %w", name, err)
	}
	return Object{
		Name:        name,
		URL:         joinURL(s.baseURL, name),
		ContentType: contentType,
		Size:        info.Size,
	}, nil
}

// Open 返回对象读取流。GetObject 是惰性的，先 Stat 以区分不存在的对象。
func (s *MinIOStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateObjectName(name); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio storage: get %s: %w", name, err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("minio storage: stat %s: %w", name, err)
	}
	return obj, nil
}

// Delete 删除对象；S3 语义下删除不存在的对象同样成功。
func (s *MinIOStore) Delete(ctx context.Context, name string) error {
	if err := validateObjectName(name); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio storage: delete %s: %w", name, err)
	}
	return nil
}
