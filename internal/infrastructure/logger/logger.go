package logger

import (
	"context"
	"io"
	"os"
	"strings"

	loader "github.com/bionicotaku/lingo-services-videos/internal/infrastructure/config_loader"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/trace"
)

// Config captures runtime metadata used to annotate logs.
type Config struct {
	Service string
	Version string
	HostID  string
	Env     string
	Level   string
	Output  io.Writer
}

// FromMetadata derives a logger Config from the resolved service metadata.
// LOG_LEVEL overrides the default level, which is debug outside production.
func FromMetadata(meta loader.ServiceMetadata) Config {
	cfg := DefaultConfig(meta.Name, meta.Version)
	if meta.Environment != "" {
		cfg.Env = meta.Environment
	}
	if meta.InstanceID != "" {
		cfg.HostID = meta.InstanceID
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Level = lvl
	} else if cfg.Env == "production" {
		cfg.Level = "info"
	}
	return cfg
}

// NewLogger builds a Kratos-compatible logger with trace/span enrichment.
func NewLogger(cfg Config) (log.Logger, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	base := log.With(
		log.NewStdLogger(out),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", cfg.Service,
		"service.version", cfg.Version,
		"service.id", cfg.HostID,
		"service.env", cfg.Env,
		"trace_id", log.Valuer(func(ctx context.Context) interface{} {
			sc := trace.SpanContextFromContext(ctx)
			if sc.HasTraceID() {
				return sc.TraceID().String()
			}
			return ""
		}),
		"span_id", log.Valuer(func(ctx context.Context) interface{} {
			sc := trace.SpanContextFromContext(ctx)
			if sc.HasSpanID() {
				return sc.SpanID().String()
			}
			return ""
		}),
	)
	return log.NewFilter(base, log.FilterLevel(log.ParseLevel(strings.ToUpper(cfg.Level)))), nil
}

// DefaultConfig builds Config from environment defaults.
func DefaultConfig(service, version string) Config {
	if service == "" {
		service = "videos"
	}
	if version == "" {
		version = "dev"
	}
	host, _ := os.Hostname()
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	return Config{Service: service, Version: version, HostID: host, Env: env, Level: "debug"}
}
