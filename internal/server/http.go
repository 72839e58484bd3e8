package server

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/bionicotaku/lingo-services-videos/internal/conf"
	"github.com/bionicotaku/lingo-services-videos/internal/controllers"
	"github.com/bionicotaku/lingo-services-videos/internal/infrastructure/data"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/metadata"
	kmetrics "github.com/go-kratos/kratos/v2/middleware/metrics"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultMetricsPath = "/metrics"
	readinessTimeout   = 2 * time.Second
)

// NewHTTPServer 构造对外 REST 服务，挂载视频路由、健康检查与 Prometheus 指标端点。
func NewHTTPServer(c *conf.Server, tel *Telemetry, videos *controllers.VideoHandler, d *data.Data, logger log.Logger) *http.Server {
	middlewares := []middleware.Middleware{
		recovery.Recovery(),
		metadata.Server(
			metadata.WithPropagatedPrefix("x-md-"),
		),
		logging.Server(logger),
	}
	if tel != nil {
		middlewares = append(middlewares, kmetrics.Server(
			kmetrics.WithRequests(tel.RequestCounter),
			kmetrics.WithSeconds(tel.SecondsHistogram),
		))
	}

	var opts = []http.ServerOption{
		http.Middleware(middlewares...),
	}
	if c != nil && c.HTTP != nil {
		if c.HTTP.Network != "" {
			opts = append(opts, http.Network(c.HTTP.Network))
		}
		if c.HTTP.Addr != "" {
			opts = append(opts, http.Address(c.HTTP.Addr))
		}
		if timeout := c.HTTP.Timeout.Std(); timeout > 0 {
			opts = append(opts, http.Timeout(timeout))
		}
	}

	srv := http.NewServer(opts...)

	srv.Handle("/healthz", stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
	}))

	helper := log.NewHelper(logger)
	srv.Handle("/readyz", stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := d.Ping(ctx); err != nil {
			helper.WithContext(ctx).Warnf("readiness check failed: %v", err)
			w.WriteHeader(stdhttp.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(stdhttp.StatusOK)
	}))

	if tel != nil && c != nil && c.Metrics != nil && c.Metrics.Enabled {
		path := c.Metrics.Path
		if path == "" {
			path = defaultMetricsPath
		}
		srv.Handle(path, promhttp.HandlerFor(tel.PrometheusRegistry, promhttp.HandlerOpts{}))
	}

	if videos != nil {
		videos.Register(srv)
	}
	return srv
}
