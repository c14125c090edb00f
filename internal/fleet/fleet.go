// Package fleet synchronizes liveness and agent state between machines
// through a shared kv.Store.
package fleet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/kv"
)

const (
	HeartbeatPrefix = "heartbeat:"
	AgentsPrefix    = "agents:"

	HeartbeatTTL = 600 * time.Second
	AgentsTTL    = 300 * time.Second

	// ListLimit caps the number of keys read per collection
	ListLimit = 100

	fetchConcurrency = 8
)

// Heartbeat announces that a machine is alive
type Heartbeat struct {
	MachineID string `json:"machine_id"`
	Timestamp string `json:"timestamp"`
	Hostname  string `json:"hostname"`
}

// AgentState is the published summary of one agent
type AgentState struct {
	ID          string `json:"id"`
	Provider    string `json:"provider"`
	Status      string `json:"status"`
	ProjectPath string `json:"project_path,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// MachineAgents groups the agents published by one machine
type MachineAgents struct {
	MachineID string       `json:"machine_id"`
	Agents    []AgentState `json:"agents"`
}

// Client reads and writes fleet records
type Client struct {
	store    kv.Store
	now      func() time.Time
	hostname func() (string, error)
}

// Option configures a Client
type Option func(*Client)

// WithClock overrides time.Now for heartbeat timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithHostname overrides os.Hostname
func WithHostname(hostname func() (string, error)) Option {
	return func(c *Client) { c.hostname = hostname }
}

// NewClient creates a fleet client on store
func NewClient(store kv.Store, opts ...Option) *Client {
	c := &Client{store: store, now: time.Now, hostname: os.Hostname}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PublishHeartbeat writes heartbeat:{machineID} with a 600 s TTL
func (c *Client) PublishHeartbeat(ctx context.Context, machineID string) (*Heartbeat, error) {
	hostname, err := c.hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	hb := &Heartbeat{
		MachineID: machineID,
		Timestamp: c.now().UTC().Format(time.RFC3339),
		Hostname:  hostname,
	}

	data, err := json.Marshal(hb)
	if err != nil {
		return nil, fmt.Errorf("failed to encode heartbeat: %w", err)
	}
	if err := c.store.Set(ctx, HeartbeatPrefix+machineID, string(data), HeartbeatTTL); err != nil {
		return nil, err
	}
	return hb, nil
}

// Heartbeats returns the live heartbeats in key order
func (c *Client) Heartbeats(ctx context.Context) ([]Heartbeat, error) {
	values, err := c.collect(ctx, HeartbeatPrefix)
	if err != nil {
		return nil, err
	}

	heartbeats := make([]Heartbeat, 0, len(values))
	for _, v := range values {
		var hb Heartbeat
		if err := json.Unmarshal([]byte(v.value), &hb); err != nil {
			internal.LogDebug("Skipping unparseable heartbeat %s: %v", v.key, err)
			continue
		}
		heartbeats = append(heartbeats, hb)
	}
	return heartbeats, nil
}

// PublishAgents writes agents:{machineID} with a 300 s TTL. The value is
// the JSON array of states.
func (c *Client) PublishAgents(ctx context.Context, machineID string, agents []AgentState) error {
	if agents == nil {
		agents = []AgentState{}
	}
	data, err := json.Marshal(agents)
	if err != nil {
		return fmt.Errorf("failed to encode agent states: %w", err)
	}
	return c.store.Set(ctx, AgentsPrefix+machineID, string(data), AgentsTTL)
}

// AgentStates returns the agents published by every machine, in key order.
// The machine id is taken from the key.
func (c *Client) AgentStates(ctx context.Context) ([]MachineAgents, error) {
	values, err := c.collect(ctx, AgentsPrefix)
	if err != nil {
		return nil, err
	}

	machines := make([]MachineAgents, 0, len(values))
	for _, v := range values {
		var agents []AgentState
		if err := json.Unmarshal([]byte(v.value), &agents); err != nil {
			internal.LogDebug("Skipping unparseable agent states %s: %v", v.key, err)
			continue
		}
		machines = append(machines, MachineAgents{
			MachineID: strings.TrimPrefix(v.key, AgentsPrefix),
			Agents:    agents,
		})
	}
	return machines, nil
}

type keyValue struct {
	key   string
	value string
}

// collect lists prefix and fetches the values concurrently. Keys that
// vanished between the list and the get are dropped.
func (c *Client) collect(ctx context.Context, prefix string) ([]keyValue, error) {
	keys, err := c.store.ListKeys(ctx, prefix, ListLimit)
	if err != nil {
		return nil, err
	}

	values := make([]*keyValue, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			value, ok, err := c.store.Get(gctx, k.Name)
			if err != nil {
				return err
			}
			if ok {
				values[i] = &keyValue{key: k.Name, value: value}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]keyValue, 0, len(values))
	for _, v := range values {
		if v != nil {
			result = append(result, *v)
		}
	}
	return result, nil
}

// StatesFromAgents converts aggregated agents into the published shape
func StatesFromAgents(agents []internal.Agent) []AgentState {
	states := make([]AgentState, 0, len(agents))
	for _, a := range agents {
		states = append(states, AgentState{
			ID:          a.ID,
			Provider:    string(a.Provider),
			Status:      string(a.Status),
			ProjectPath: a.ProjectPath,
			UpdatedAt:   a.LastUpdated,
		})
	}
	return states
}
