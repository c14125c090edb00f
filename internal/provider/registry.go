package provider

import (
	"sync"

	"github.com/iksnae/agentsync/internal"
)

// Registry holds one adapter per provider
type Registry struct {
	mu       sync.RWMutex
	adapters map[internal.Provider]Adapter
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[internal.Provider]Adapter)}
}

// Register adds or replaces the adapter of its provider
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Provider()] = a
}

// Get returns the adapter of provider
func (r *Registry) Get(provider internal.Provider) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[provider]
	return a, ok
}

// Enabled returns the registered adapters of the given providers in
// aggregation order, i.e. the order of internal.AllProviders.
func (r *Registry) Enabled(providers []internal.Provider) []Adapter {
	want := make(map[internal.Provider]bool, len(providers))
	for _, p := range providers {
		want[p] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var adapters []Adapter
	for _, p := range internal.AllProviders {
		if a, ok := r.adapters[p]; ok && want[p] {
			adapters = append(adapters, a)
		}
	}
	return adapters
}

// NewRegistryFromConfig builds every adapter from cfg. When state is
// non-nil the tracking caches are restored from it and changes are
// persisted back. extra options are applied to every adapter.
func NewRegistryFromConfig(cfg *internal.Config, state *internal.CacheManager, extra ...Option) *Registry {
	tracked := func(p internal.Provider) []Option {
		cache := internal.NewTrackingCache(internal.DefaultTrackingCapacity)
		opts := []Option{WithTracking(cache)}
		if state == nil {
			return opts
		}
		sessions, err := state.LoadTracked(p)
		if err != nil {
			internal.LogWarn("Failed to load %s tracking state: %v", p, err)
		}
		cache.Restore(sessions)
		return append(opts, WithTrackingStore(state))
	}
	with := func(base []Option, more ...Option) []Option {
		return append(append(base, more...), extra...)
	}

	claudeOpts := tracked(internal.ProviderClaude)
	if state != nil {
		claudeOpts = append(claudeOpts, WithConversationStore(state))
	}

	r := NewRegistry()
	r.Register(NewGeminiAdapter(cfg.Gemini.Root, cfg.Gemini.ExtraRoots, with(nil)...))
	r.Register(NewClaudeAdapter(cfg.Claude.Root, cfg.Claude.APIKey, cfg.Claude.Model,
		with(claudeOpts, WithBaseURL(cfg.Claude.BaseURL))...))
	r.Register(NewCursorAdapter(cfg.Cursor.APIKey, with(nil, WithBaseURL(cfg.Cursor.BaseURL))...))
	r.Register(NewCodexAdapter(cfg.Codex.APIKey,
		with(tracked(internal.ProviderCodex), WithBaseURL(cfg.Codex.BaseURL))...))
	r.Register(NewJulesAdapter(cfg.Jules.APIKey, with(nil, WithBaseURL(cfg.Jules.BaseURL))...))
	return r
}
