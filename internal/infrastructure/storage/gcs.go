package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bionicotaku/lingo-services-videos/internal/conf"

	gcs "cloud.google.com/go/storage"
	"github.com/go-kratos/kratos/v2/log"
	"google.golang.org/api/option"
)

// GCSStore 将媒体文件保存在 Google Cloud Storage bucket 中。
type GCSStore struct {
	client  *gcs.Client
	bucket  string
	baseURL string
	log     *log.Helper
}

var _ Backend = (*GCSStore)(nil)

// NewGCSStore 使用默认凭据（或 credentials_file）创建客户端。
// 配置 endpoint 时视为模拟器，跳过认证。
func NewGCSStore(ctx context.Context, cfg *conf.GCSStorage, logger log.Logger) (*GCSStore, func(), error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, nil, errors.New("gcs storage: bucket is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("gcs storage: new client: %w", err)
	}
	store := NewGCSStoreWithClient(client, cfg.Bucket, cfg.BaseURL, logger)
	cleanup := func() {
		if err := client.Close(); err != nil {
			store.log.Warnf("close gcs client: %v", err)
		}
	}
	return store, cleanup, nil
}

// NewGCSStoreWithClient 复用已有客户端构造 GCSStore。
func NewGCSStoreWithClient(client *gcs.Client, bucket, baseURL string, logger log.Logger) *GCSStore {
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + bucket
	}
	return &GCSStore{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
		log:     log.NewHelper(logger),
	}
}

// Store 以 DoesNotExist 条件写入，避免覆盖同名对象。
func (s *GCSStore) Store(ctx context.Context, data []byte, suggestedName string) (Object, error) {
	name := newObjectName(suggestedName)
	contentType := ContentType(name)

	w := s.client.Bucket(s.bucket).Object(name).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("gcs storage: write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		s.log.WithContext(ctx).Errorf("gcs upload failed: bucket=%s object=%s err=%v", s.bucket, name, err)
		return Object{}, fmt.Errorf("gcs storage: finalize %s: %w", name, err)
	}
	return Object{
		Name:        name,
		URL:         joinURL(s.baseURL, name),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// Open 返回对象读取流。
func (s *GCSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateObjectName(name); err != nil {
		return nil, err
	}
	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("gcs storage: open %s: %w", name, err)
	}
	return r, nil
}

// Delete 删除对象；对象不存在时视为成功。
func (s *GCSStore) Delete(ctx context.Context, name string) error {
	if err := validateObjectName(name); err != nil {
		return err
	}
	if err := s.client.Bucket(s.bucket).Object(name).Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("gcs storage: delete %s: %w", name, err)
	}
	return nil
}
