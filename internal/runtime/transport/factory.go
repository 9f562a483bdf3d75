// Package transport connects the service config to the modular transport
// registry under github.com/drblury/protoenclave/transport.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/drblury/protoenclave/internal/runtime/config"
	errspkg "github.com/drblury/protoenclave/internal/runtime/errors"
	"github.com/drblury/protoenclave/transport"

	_ "github.com/drblury/protoenclave/transport/transports"
)

// Factory abstracts how the service initialises its broker transport.
type Factory interface {
	Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (transport.Transport, error)
	Capabilities(conf *config.Config) transport.Capabilities
}

// DefaultFactory returns the factory backed by the default registry with
// every built-in transport registered.
func DefaultFactory() Factory {
	return registryFactory{registry: transport.DefaultRegistry}
}

// RegistryFactory builds transports from a specific registry.
func RegistryFactory(reg *transport.Registry) Factory {
	return registryFactory{registry: reg}
}

type registryFactory struct {
	registry *transport.Registry
}

func (f registryFactory) Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	if conf == nil {
		return transport.Transport{}, errspkg.ErrConfigRequired
	}
	return f.registry.Build(ctx, conf, logger)
}

func (f registryFactory) Capabilities(conf *config.Config) transport.Capabilities {
	if conf == nil {
		return transport.Capabilities{}
	}
	return f.registry.GetCapabilities(conf.GetPubSubSystem())
}
