package storage

import (
	"context"
	"fmt"

	"github.com/bionicotaku/lingo-services-videos/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

// New 根据 storage.driver 选择存储后端。
func New(ctx context.Context, cfg *conf.Storage, logger log.Logger) (Backend, func(), error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("storage configuration is required")
	}
	noop := func() {}
	switch cfg.Driver {
	case "fs":
		s, err := NewFSStore(cfg.FS, logger)
		return s, noop, err
	case "gcs":
		return NewGCSStore(ctx, cfg.GCS, logger)
	case "minio":
		s, err := NewMinIOStore(ctx, cfg.MinIO, logger)
		return s, noop, err
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
