// Package data 根据配置装配服务层依赖的存储、媒体与事件协作者。
package data

import (
	"context"
	"fmt"

	"github.com/bionicotaku/lingo-services-videos/internal/conf"
	"github.com/bionicotaku/lingo-services-videos/internal/infrastructure/database"
	"github.com/bionicotaku/lingo-services-videos/internal/infrastructure/gcpubsub"
	"github.com/bionicotaku/lingo-services-videos/internal/infrastructure/storage"
	"github.com/bionicotaku/lingo-services-videos/internal/repositories"
	"github.com/bionicotaku/lingo-services-videos/internal/services"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5/pgxpool"
)

// 支持的 data.driver 取值。
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Data 持有底层存储客户端。Pool 在内存模式下为 nil。
type Data struct {
	Pool   *pgxpool.Pool
	Videos services.VideoRepo
	driver string
}

// NewData 根据 data.driver 构造视频仓储，并返回统一的清理函数。
func NewData(ctx context.Context, c *conf.Data, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(logger)
	if c == nil {
		return nil, nil, fmt.Errorf("data configuration is required")
	}

	switch c.Driver {
	case DriverMemory:
		helper.Warn("using in-memory video repository; data is lost on restart")
		return &Data{Videos: repositories.NewMemoryVideoRepository(logger), driver: c.Driver}, func() {}, nil
	case DriverPostgres, "":
		pool, cleanupPool, err := database.NewPgxPool(ctx, c.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		d := &Data{
			Pool:   pool,
			Videos: repositories.NewVideoRepository(pool, logger),
			driver: DriverPostgres,
		}
		cleanup := func() {
			helper.Info("closing the data resources")
			cleanupPool()
		}
		return d, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown data driver %q", c.Driver)
	}
}

// Driver 返回实际生效的存储驱动名。
func (d *Data) Driver() string { return d.driver }

// Ping 用于就绪探针；内存模式恒为就绪。
func (d *Data) Ping(ctx context.Context) error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Ping(ctx)
}

// ProvideVideoRepo 暴露视频仓储给服务层。
func ProvideVideoRepo(d *Data) services.VideoRepo {
	return d.Videos
}

// NewMediaStore 根据 storage.driver 构造媒体存储后端。
func NewMediaStore(ctx context.Context, c *conf.Storage, logger log.Logger) (services.MediaStore, func(), error) {
	backend, cleanup, err := storage.New(ctx, c, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init media store: %w", err)
	}
	return backend, cleanup, nil
}

// NewEventPublisher 在启用事件时连接 Pub/Sub，否则返回丢弃事件的实现。
func NewEventPublisher(ctx context.Context, c *conf.Events, logger log.Logger) (services.EventPublisher, func(), error) {
	if c == nil || !c.Enabled {
		log.NewHelper(logger).Info("event publishing disabled")
		return services.NopEventPublisher{}, func() {}, nil
	}
	publisher, cleanup, err := gcpubsub.NewPublisher(ctx, c, logger)
	if err != nil {
		return nil, nil, err
	}
	return publisher, cleanup, nil
}
