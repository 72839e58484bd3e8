// Package grpcserver wires the inbound gRPC listener. It carries the standard
// grpc.health.v1 service registered by kratos plus the shared middleware stack.
package grpcserver

import (
	"github.com/bionicotaku/lingo-services-videos/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/metadata"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/grpc"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	otelgrpcfilters "go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc/filters"
	"go.opentelemetry.io/otel/metric"
	stdgrpc "google.golang.org/grpc"
	"google.golang.org/grpc/stats"
)

// NewGRPCServer new a gRPC server.
func NewGRPCServer(c *conf.Server, mp metric.MeterProvider, logger log.Logger) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.Middleware(
			recovery.Recovery(),
			metadata.Server(
				metadata.WithPropagatedPrefix("x-md-"),
			),
			logging.Server(logger),
		),
	}
	if mp != nil {
		opts = append(opts, grpc.Options(stdgrpc.StatsHandler(newServerHandler(mp))))
	}
	if c != nil && c.GRPC != nil {
		if c.GRPC.Network != "" {
			opts = append(opts, grpc.Network(c.GRPC.Network))
		}
		if c.GRPC.Addr != "" {
			opts = append(opts, grpc.Address(c.GRPC.Addr))
		}
		if c.GRPC.Timeout.Std() > 0 {
			opts = append(opts, grpc.Timeout(c.GRPC.Timeout.Std()))
		}
	}
	return grpc.NewServer(opts...)
}

// newServerHandler 记录 RPC 指标，健康检查调用不计入。
func newServerHandler(mp metric.MeterProvider) stats.Handler {
	return otelgrpc.NewServerHandler(
		otelgrpc.WithMeterProvider(mp),
		otelgrpc.WithFilter(otelgrpcfilters.Not(otelgrpcfilters.HealthCheck())),
	)
}
