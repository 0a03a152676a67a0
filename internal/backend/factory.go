package backend

import (
	"fmt"

	"github.com/bassista/go_fuel/internal/config"
	"github.com/bassista/go_fuel/internal/gateway"
	"github.com/bassista/go_fuel/internal/logger"
)

// MemoryBaseURL is the virtual origin of the in-process backend.
const MemoryBaseURL = "http://memory.backend"

// NewGatewayFromConfig builds the gateway for the configured backend type.
// For "memory" it also returns the in-process backend it talks to; for
// "remote" (the default) the returned *Memory is nil.
func NewGatewayFromConfig(cfg config.BackendConfig, metrics *gateway.Metrics) (gateway.Gateway, *Memory, error) {
	endpoints, err := gateway.EndpointsFromConfig(cfg.Endpoints)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Type {
	case config.BackendTypeMemory:
		mem := NewMemory()
		if cfg.SeedFile != "" {
			doc, err := LoadSeed(cfg.SeedFile)
			if err != nil {
				return nil, nil, err
			}
			mem = NewMemoryFromSeed(doc)
		}
		handler, err := mem.Handler(endpoints)
		if err != nil {
			return nil, nil, err
		}
		client := gateway.NewHTTPClient(cfg.RequestTimeout, NewTransport(handler))
		gw, err := gateway.NewHTTPGateway(MemoryBaseURL, client, endpoints, metrics)
		if err != nil {
			return nil, nil, err
		}
		logger.WithComponent("backend").Infof("using in-memory backend (seed=%q)", cfg.SeedFile)
		return gw, mem, nil
	case config.BackendTypeRemote, "":
		client := gateway.NewHTTPClient(cfg.RequestTimeout, nil)
		gw, err := gateway.NewHTTPGateway(cfg.BaseURL, client, endpoints, metrics)
		if err != nil {
			return nil, nil, err
		}
		logger.WithComponent("backend").Infof("using remote backend at %s", cfg.BaseURL)
		return gw, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend type: %s (supported: %s, %s)", cfg.Type, config.BackendTypeRemote, config.BackendTypeMemory)
	}
}
