// Package provider holds one adapter per coding-assistant service. Each
// adapter discovers that service's sessions and normalizes them into
// internal.Agent values.
package provider

import (
	"context"
	"time"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/client"
)

// Adapter is implemented by every provider
type Adapter interface {
	Provider() internal.Provider
	// List returns the provider's current sessions
	List(ctx context.Context) ([]internal.Agent, error)
	// Detail fetches one session. locator is the session file path for
	// file-backed providers and empty for remote ones.
	Detail(ctx context.Context, rawID, locator string) (*internal.AgentDetail, error)
	Start(ctx context.Context, req StartRequest) (*StartResult, error)
}

// Stopper is implemented by providers that can stop a running session
type Stopper interface {
	Stop(ctx context.Context, rawID string) error
}

// StartRequest describes a new session. Providers ignore fields they do
// not support.
type StartRequest struct {
	Prompt              string
	ProjectPath         string // working directory for local CLIs
	Repository          string // "owner/repo" for cloud agents
	Branch              string
	Ref                 string
	Model               string
	AutoCreatePR        *bool
	RequirePlanApproval *bool
}

// StartResult reports how a session was started
type StartResult struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	PID            int             `json:"pid,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Agent          *internal.Agent `json:"agent,omitempty"`
}

// TrackingStore persists the tracked ids of a provider
type TrackingStore interface {
	SaveTracked(provider internal.Provider, sessions []internal.TrackedSession) error
}

// ConversationStore persists cloud conversations by id
type ConversationStore interface {
	SaveConversation(id string, v interface{}) error
	LoadConversation(id string, v interface{}) error
	DeleteConversation(id string) error
}

type options struct {
	baseURL       string
	clientOpts    []client.Option
	normalizer    *internal.Normalizer
	spawn         SpawnFunc
	tracking      *internal.TrackingCache
	trackingStore TrackingStore
	conversations ConversationStore
	now           func() time.Time
}

// Option configures an adapter
type Option func(*options)

// WithBaseURL overrides the provider's API base URL
func WithBaseURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.baseURL = url
		}
	}
}

// WithClientOptions passes options to the underlying HTTP client
func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, opts...) }
}

// WithNormalizer replaces the default session normalizer
func WithNormalizer(n *internal.Normalizer) Option {
	return func(o *options) { o.normalizer = n }
}

// WithSpawner replaces the process launcher used by Start
func WithSpawner(spawn SpawnFunc) Option {
	return func(o *options) { o.spawn = spawn }
}

// WithTracking injects the tracking cache of adapters that remember
// cloud session ids
func WithTracking(cache *internal.TrackingCache) Option {
	return func(o *options) { o.tracking = cache }
}

// WithTrackingStore persists tracking changes
func WithTrackingStore(store TrackingStore) Option {
	return func(o *options) { o.trackingStore = store }
}

// WithConversationStore persists cloud conversations
func WithConversationStore(store ConversationStore) Option {
	return func(o *options) { o.conversations = store }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(defaultBaseURL string, opts []Option) *options {
	o := &options{
		baseURL: defaultBaseURL,
		spawn:   SpawnDetached,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.normalizer == nil {
		o.normalizer = internal.NewNormalizer(nil)
	}
	if o.tracking == nil {
		o.tracking = internal.NewTrackingCache(internal.DefaultTrackingCapacity)
	}
	return o
}

func (o *options) persistTracking(provider internal.Provider) {
	if o.trackingStore == nil {
		return
	}
	if err := o.trackingStore.SaveTracked(provider, o.tracking.Snapshot()); err != nil {
		internal.LogWarn("Failed to persist %s tracking state: %v", provider, err)
	}
}

func requireKey(provider internal.Provider, key string) error {
	if key == "" {
		return &internal.ConfigError{Field: string(provider) + ".api_key"}
	}
	return nil
}

func formatUnix(ts int64) string {
	if ts == 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}
