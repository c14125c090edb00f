// Package kv is the key-value transport shared by every machine: the
// Cloudflare Workers KV REST API or a local SQLite file.
package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/iksnae/agentsync/internal"
)

// Key is one entry of a key listing
type Key struct {
	Name       string `json:"name"`
	Expiration int64  `json:"expiration,omitempty"` // unix seconds, 0 when the key never expires
}

// Store is a string key-value store with per-key expiry
type Store interface {
	// Get returns the value of key. A missing or expired key yields ok=false
	// and a nil error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set writes key. ttl <= 0 stores the value without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// ListKeys returns at most limit keys starting with prefix, in key order
	ListKeys(ctx context.Context, prefix string, limit int) ([]Key, error)
}

// Open returns the store selected by cfg.KV.Backend
func Open(cfg *internal.Config) (Store, error) {
	switch cfg.KV.Backend {
	case internal.KVBackendSQLite:
		return OpenSQLiteStore(cfg.KV.Path)
	case internal.KVBackendCloudflare, "":
		if err := cfg.RequireCloudflare(); err != nil {
			return nil, err
		}
		cf := cfg.Cloudflare
		return NewCloudflareStore(cf.AccountID, cf.NamespaceID, cf.APIToken, WithBaseURL(cf.BaseURL)), nil
	default:
		return nil, &internal.ConfigError{Field: "kv.backend", Reason: fmt.Sprintf("unknown backend %q", cfg.KV.Backend)}
	}
}
