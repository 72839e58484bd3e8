package grpcserver

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-videos/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	stdgrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// serve 在随机端口启动服务并返回已连接的健康检查客户端。
func serve(t *testing.T, mp metric.MeterProvider) healthpb.HealthClient {
	t.Helper()
	srv := NewGRPCServer(&conf.Server{GRPC: &conf.Listener{Addr: "127.0.0.1:0", Timeout: conf.Duration(time.Second)}}, mp, log.NewStdLogger(io.Discard))

	endpoint, err := srv.Endpoint()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = srv.Stop(context.Background())
	})

	conn, err := stdgrpc.NewClient(endpoint.Host, stdgrpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := healthpb.NewHealthClient(conn)
	require.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		res, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
		return err == nil && res.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 3*time.Second, 20*time.Millisecond)
	return client
}

func TestGRPCServerReportsServing(t *testing.T) {
	client := serve(t, nil)

	res, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, res.GetStatus())
}

func TestGRPCServerSkipsHealthChecksInMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	client := serve(t, mp)
	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			require.NotEqual(t, "rpc.server.duration", m.Name, "health checks must not be recorded")
		}
	}
}

func TestNewGRPCServerWithoutConfig(t *testing.T) {
	require.NotNil(t, NewGRPCServer(nil, nil, log.NewStdLogger(io.Discard)))
}
