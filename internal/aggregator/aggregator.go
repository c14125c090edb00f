// Package aggregator merges the agents of every enabled provider into one
// list.
package aggregator

import (
	"context"
	"fmt"
	"sync"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/provider"
)

// Response is the merged listing
type Response struct {
	Agents []internal.Agent `json:"agents"`
	Total  int              `json:"total"`
}

// Aggregator fans out to the adapters of a registry
type Aggregator struct {
	registry *provider.Registry
}

// New creates an aggregator over registry
func New(registry *provider.Registry) *Aggregator {
	return &Aggregator{registry: registry}
}

// ListAll queries every enabled provider concurrently. A provider that
// fails contributes nothing; its error is logged at debug level. The
// result is sorted newest first, ties keeping provider order and then
// the order each provider returned.
func (a *Aggregator) ListAll(ctx context.Context, enabled []internal.Provider) Response {
	adapters := a.registry.Enabled(enabled)
	results := make([][]internal.Agent, len(adapters))

	var wg sync.WaitGroup
	for i, adapter := range adapters {
		wg.Add(1)
		go func(i int, adapter provider.Adapter) {
			defer wg.Done()
			agents, err := adapter.List(ctx)
			if err != nil {
				internal.LogDebug("Skipping %s: %v", adapter.Provider(), err)
				return
			}
			results[i] = agents
		}(i, adapter)
	}
	wg.Wait()

	var merged []internal.Agent
	for _, agents := range results {
		merged = append(merged, agents...)
	}
	internal.SortByLastUpdated(merged)
	if merged == nil {
		merged = []internal.Agent{}
	}

	return Response{Agents: merged, Total: len(merged)}
}

// Detail resolves one agent through its provider's adapter
func (a *Aggregator) Detail(ctx context.Context, p internal.Provider, rawID, locator string) (*internal.AgentDetail, error) {
	adapter, ok := a.registry.Get(p)
	if !ok {
		return nil, fmt.Errorf("provider %s is not registered", p)
	}
	return adapter.Detail(ctx, rawID, locator)
}

// Find looks an agent up by its normalized id in a fresh listing
func (a *Aggregator) Find(ctx context.Context, enabled []internal.Provider, id string) (internal.Agent, bool) {
	for _, agent := range a.ListAll(ctx, enabled).Agents {
		if agent.ID == id {
			return agent, true
		}
	}
	return internal.Agent{}, false
}
