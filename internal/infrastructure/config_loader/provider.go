package loader

import (
	"github.com/bionicotaku/lingo-services-videos/internal/conf"

	"github.com/google/wire"
)

// ProviderSet exposes configuration-derived dependencies for Wire graphs.
var ProviderSet = wire.NewSet(
	ProvideServiceMetadata,
	ProvideBootstrap,
	ProvideServerConfig,
	ProvideDataConfig,
	ProvideStorageConfig,
	ProvideEventsConfig,
	ProvideHandlersConfig,
)

// ProvideServiceMetadata returns the resolved ServiceMetadata from the bundle.
func ProvideServiceMetadata(b *Bundle) ServiceMetadata {
	if b == nil {
		return ServiceMetadata{}
	}
	return b.Service
}

// ProvideBootstrap exposes the strongly typed bootstrap configuration.
func ProvideBootstrap(b *Bundle) *conf.Bootstrap {
	if b == nil {
		return nil
	}
	return b.Bootstrap
}

// ProvideServerConfig returns the server section of the bootstrap configuration.
func ProvideServerConfig(bc *conf.Bootstrap) *conf.Server {
	if bc == nil {
		return nil
	}
	return bc.Server
}

// ProvideDataConfig returns the data section of the bootstrap configuration.
func ProvideDataConfig(bc *conf.Bootstrap) *conf.Data {
	if bc == nil {
		return nil
	}
	return bc.Data
}

// ProvideStorageConfig returns the media storage section.
func ProvideStorageConfig(bc *conf.Bootstrap) *conf.Storage {
	if bc == nil {
		return nil
	}
	return bc.Storage
}

// ProvideEventsConfig returns the event publishing section.
func ProvideEventsConfig(bc *conf.Bootstrap) *conf.Events {
	if bc == nil || bc.Events == nil {
		return &conf.Events{}
	}
	return bc.Events
}

// ProvideHandlersConfig returns the handler timeout section.
func ProvideHandlersConfig(bc *conf.Bootstrap) *conf.Handlers {
	if bc == nil || bc.Handlers == nil {
		return &conf.Handlers{}
	}
	return bc.Handlers
}
