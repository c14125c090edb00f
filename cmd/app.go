package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/aggregator"
	"github.com/iksnae/agentsync/internal/fleet"
	"github.com/iksnae/agentsync/internal/kv"
	"github.com/iksnae/agentsync/internal/provider"
)

// app bundles what a command needs after config is loaded
type app struct {
	cfg      *internal.Config
	state    *internal.CacheManager
	registry *provider.Registry
	agg      *aggregator.Aggregator
}

func loadApp() (*app, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if providerList != "" {
		providers, err := internal.ParseProviderList(providerList)
		if err != nil {
			return nil, &internal.ConfigError{Field: "providers", Reason: err.Error()}
		}
		cfg.Providers = providers
	}

	state := internal.NewCacheManager(cfg.Paths.CacheDir())
	registry := provider.NewRegistryFromConfig(cfg, state)
	return &app{
		cfg:      cfg,
		state:    state,
		registry: registry,
		agg:      aggregator.New(registry),
	}, nil
}

// openStore opens the configured KV backend. The returned func releases it.
func (a *app) openStore() (kv.Store, func(), error) {
	store, err := kv.Open(a.cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if c, ok := store.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				internal.LogDebug("Failed to close KV store: %v", err)
			}
		}
	}
	return store, closeFn, nil
}

func (a *app) fleetClient() (*fleet.Client, func(), error) {
	store, closeFn, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	return fleet.NewClient(store), closeFn, nil
}

// adapter returns the registered adapter for a provider name
func (a *app) adapter(name string) (provider.Adapter, error) {
	p, err := internal.ParseProvider(name)
	if err != nil {
		return nil, err
	}
	adapter, ok := a.registry.Get(p)
	if !ok {
		return nil, fmt.Errorf("provider %s is not registered", p)
	}
	return adapter, nil
}

// findAgent resolves a normalized agent id against a fresh listing
func (a *app) findAgent(ctx context.Context, id string) (internal.Agent, error) {
	agent, ok := a.agg.Find(ctx, a.cfg.Providers, id)
	if !ok {
		return internal.Agent{}, fmt.Errorf("agent not found: %s", id)
	}
	return agent, nil
}

// detail fetches the detail of an agent by its normalized id
func (a *app) detail(ctx context.Context, id string) (*internal.AgentDetail, error) {
	agent, err := a.findAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.agg.Detail(ctx, agent.Provider, agent.RawID, agent.FilePath)
}

// rawAgentID accepts either a normalized "provider-raw" id or a raw id
func rawAgentID(p internal.Provider, id string) string {
	return strings.TrimPrefix(id, string(p)+"-")
}
