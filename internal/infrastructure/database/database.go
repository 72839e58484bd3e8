// Package database 管理视频库使用的 PostgreSQL 连接池与内嵌迁移。
package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-services-videos/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const startupCheckTimeout = 5 * time.Second

// NewPgxPool 按 data.postgres 配置建立连接池，启动时校验连通性，
// auto_migrate 开启时应用内嵌迁移。返回的 cleanup 关闭连接池。
func NewPgxPool(ctx context.Context, pgCfg *conf.Postgres, logger log.Logger) (*pgxpool.Pool, func(), error) {
	helper := log.NewHelper(logger)

	poolConfig, err := buildPoolConfig(pgCfg, helper)
	if err != nil {
		return nil, nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("create postgres pool: %w", err)
	}

	version, err := serverVersion(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres startup check: %w", err)
	}

	if pgCfg.AutoMigrate {
		if err := Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}

	helper.Infof("postgres ready: dsn=%s version=%s max_conns=%d schema=%s migrated=%v",
		sanitizeDSN(pgCfg.DSN), version, poolConfig.MaxConns, pgCfg.Schema, pgCfg.AutoMigrate)

	return pool, func() {
		helper.Info("closing postgres pool")
		pool.Close()
	}, nil
}

// buildPoolConfig 把配置节点翻译成 pgxpool.Config；零值字段保留 pgx 默认。
func buildPoolConfig(pgCfg *conf.Postgres, helper *log.Helper) (*pgxpool.Config, error) {
	if pgCfg == nil {
		return nil, errors.New("postgres configuration is required")
	}
	if strings.TrimSpace(pgCfg.DSN) == "" {
		return nil, errors.New("postgres DSN is required (set DATABASE_URL)")
	}

	cfg, err := pgxpool.ParseConfig(pgCfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres DSN: %w", err)
	}

	if pgCfg.MaxOpenConns > 0 {
		cfg.MaxConns = pgCfg.MaxOpenConns
	}
	if pgCfg.MinOpenConns > 0 {
		cfg.MinConns = min(pgCfg.MinOpenConns, cfg.MaxConns)
	}
	if d := pgCfg.MaxConnLifetime.Std(); d > 0 {
		cfg.MaxConnLifetime = d
	}
	if d := pgCfg.MaxConnIdleTime.Std(); d > 0 {
		cfg.MaxConnIdleTime = d
	}
	if d := pgCfg.HealthCheckPeriod.Std(); d > 0 {
		cfg.HealthCheckPeriod = d
	}

	// PgBouncer 事务池模式下不能使用服务端 prepared statement。
	if !pgCfg.EnablePreparedStatements {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	if schema := strings.TrimSpace(pgCfg.Schema); schema != "" {
		searchPath := "SET search_path TO " + pgx.Identifier{schema}.Sanitize() + ", public"
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if _, err := conn.Exec(ctx, searchPath); err != nil {
				return fmt.Errorf("set search_path: %w", err)
			}
			return nil
		}
	}

	cfg.ConnConfig.Tracer = &queryTracer{helper: helper, slow: pgCfg.SlowQueryThreshold.Std()}
	return cfg, nil
}

func serverVersion(ctx context.Context, pool *pgxpool.Pool) (string, error) {
	checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()

	if err := pool.Ping(checkCtx); err != nil {
		return "", fmt.Errorf("ping: %w", err)
	}
	var version string
	if err := pool.QueryRow(checkCtx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("query version: %w", err)
	}
	return truncateVersion(version), nil
}

// sanitizeDSN 隐藏 DSN 中的密码，用于日志输出。
func sanitizeDSN(dsn string) string {
	parsed, err := url.Parse(dsn)
	if err != nil || parsed.User == nil {
		return dsn
	}
	if _, ok := parsed.User.Password(); ok {
		parsed.User = url.UserPassword(parsed.User.Username(), "***")
	}
	return parsed.String()
}

// truncateVersion 只保留 "PostgreSQL x.y" 部分。
func truncateVersion(version string) string {
	if idx := strings.Index(version, "("); idx != -1 {
		return strings.TrimSpace(version[:idx])
	}
	if len(version) > 100 {
		return version[:100] + "..."
	}
	return version
}

type queryStartKey struct{}

// queryTracer 把失败查询与慢查询转发到 Kratos 日志；不输出 SQL 参数。
type queryTracer struct {
	helper *log.Helper
	slow   time.Duration
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	if t.slow <= 0 {
		return ctx
	}
	return context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	if data.Err != nil {
		if errors.Is(data.Err, context.Canceled) {
			return
		}
		t.helper.WithContext(ctx).Errorf("postgres query failed: err=%v command_tag=%s", data.Err, data.CommandTag.String())
		return
	}
	if t.slow <= 0 {
		return
	}
	if started, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := time.Since(started); elapsed >= t.slow {
			t.helper.WithContext(ctx).Warnf("postgres slow query: elapsed=%s command_tag=%s", elapsed, data.CommandTag.String())
		}
	}
}
