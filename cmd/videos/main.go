// Package main boots the videos service: REST API on HTTP plus gRPC health.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	loader "github.com/bionicotaku/lingo-services-videos/internal/infrastructure/config_loader"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/grpc"
	"github.com/go-kratos/kratos/v2/transport/http"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name string
	// Version is the version of the compiled software.
	Version string
	// flagconf is the config flag.
	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "", "config path, eg: -conf configs/config.yaml")
}

func newApp(logger log.Logger, meta loader.ServiceMetadata, hs *http.Server, gs *grpc.Server) *kratos.App {
	return kratos.New(
		kratos.ID(meta.InstanceID),
		kratos.Name(meta.Name),
		kratos.Version(meta.Version),
		kratos.Metadata(map[string]string{
			"env": meta.Environment,
		}),
		kratos.Logger(logger),
		kratos.Server(
			hs,
			gs,
		),
	)
}

func main() {
	flag.Parse()

	bundle, err := loader.Build(loader.Params{ConfPath: flagconf})
	if err != nil {
		panic(err)
	}
	if Name != "" {
		bundle.Service.Name = Name
	}
	if Version != "" {
		bundle.Service.Version = Version
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := wireApp(ctx, bundle)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		panic(err)
	}
}
