//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"context"

	"github.com/bionicotaku/lingo-services-videos/internal/controllers"
	loader "github.com/bionicotaku/lingo-services-videos/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-videos/internal/infrastructure/data"
	grpcserver "github.com/bionicotaku/lingo-services-videos/internal/infrastructure/grpc_server"
	loginfra "github.com/bionicotaku/lingo-services-videos/internal/infrastructure/logger"
	"github.com/bionicotaku/lingo-services-videos/internal/server"
	"github.com/bionicotaku/lingo-services-videos/internal/services"

	"github.com/go-kratos/kratos/v2"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(context.Context, *loader.Bundle) (*kratos.App, func(), error) {
	panic(wire.Build(
		loader.ProviderSet,
		loginfra.ProviderSet,
		data.ProviderSet,
		server.ProviderSet,
		grpcserver.ProviderSet,
		services.ProviderSet,
		controllers.ProviderSet,
		newApp,
	))
}
