package server

import (
	"context"
	"fmt"
	"time"

	loader "github.com/bionicotaku/lingo-services-videos/internal/infrastructure/config_loader"

	"github.com/go-kratos/kratos/v2/log"
	kmetrics "github.com/go-kratos/kratos/v2/middleware/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	promexp "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const (
	defaultMeterName = "videos"
	shutdownTimeout  = 5 * time.Second
)

// Telemetry bundles the shared metric instruments and registry.
type Telemetry struct {
	MeterProvider      *sdkmetric.MeterProvider
	Meter              metric.Meter
	RequestCounter     metric.Int64Counter
	SecondsHistogram   metric.Float64Histogram
	PrometheusRegistry *prometheus.Registry
}

// NewTelemetry prepares OpenTelemetry metrics instruments backed by a private Prometheus registry.
// The meter is named after the service so business counters share the scrape endpoint.
func NewTelemetry(meta loader.ServiceMetadata, logger log.Logger) (*Telemetry, func(), error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	exporter, err := promexp.New(
		promexp.WithRegisterer(registry),
		promexp.WithoutUnits(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithView(kmetrics.DefaultSecondsHistogramView(kmetrics.DefaultServerSecondsHistogramName)),
	)
	otel.SetMeterProvider(mp)

	name := meta.Name
	if name == "" {
		name = defaultMeterName
	}
	meter := mp.Meter(name)

	tel := &Telemetry{
		MeterProvider:      mp,
		Meter:              meter,
		PrometheusRegistry: registry,
	}
	if err := tel.initServerInstruments(); err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, nil, err
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mp.Shutdown(ctx); err != nil {
			log.NewHelper(logger).Warnf("shutdown meter provider: %v", err)
		}
	}
	return tel, cleanup, nil
}

// initServerInstruments 创建 kratos metrics 中间件使用的请求计数与耗时直方图。
func (t *Telemetry) initServerInstruments() error {
	var err error
	if t.RequestCounter, err = kmetrics.DefaultRequestsCounter(t.Meter, kmetrics.DefaultServerRequestsCounterName); err != nil {
		return fmt.Errorf("requests counter: %w", err)
	}
	if t.SecondsHistogram, err = kmetrics.DefaultSecondsHistogram(t.Meter, kmetrics.DefaultServerSecondsHistogramName); err != nil {
		return fmt.Errorf("seconds histogram: %w", err)
	}
	return nil
}

// ProvideMeter exposes the service meter to business components.
func ProvideMeter(t *Telemetry) metric.Meter {
	return t.Meter
}

// ProvideMeterProvider exposes the SDK provider to transports that instrument themselves.
func ProvideMeterProvider(t *Telemetry) metric.MeterProvider {
	return t.MeterProvider
}
