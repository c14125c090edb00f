package kv

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/iksnae/agentsync/internal/client"
)

const cloudflareAPIBase = "https://api.cloudflare.com/client/v4"

// CloudflareStore binds one Workers KV namespace
type CloudflareStore struct {
	api *client.Client
}

type cloudflareOptions struct {
	baseURL    string
	clientOpts []client.Option
}

// CloudflareOption configures a CloudflareStore
type CloudflareOption func(*cloudflareOptions)

// WithBaseURL overrides the API base URL. An empty url keeps the default.
func WithBaseURL(u string) CloudflareOption {
	return func(o *cloudflareOptions) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithClientOptions passes options to the underlying HTTP client
func WithClientOptions(opts ...client.Option) CloudflareOption {
	return func(o *cloudflareOptions) { o.clientOpts = append(o.clientOpts, opts...) }
}

// NewCloudflareStore creates a store for the namespace under accountID
func NewCloudflareStore(accountID, namespaceID, apiToken string, opts ...CloudflareOption) *CloudflareStore {
	o := &cloudflareOptions{baseURL: cloudflareAPIBase}
	for _, opt := range opts {
		opt(o)
	}
	base := fmt.Sprintf("%s/accounts/%s/storage/kv/namespaces/%s",
		strings.TrimRight(o.baseURL, "/"), url.PathEscape(accountID), url.PathEscape(namespaceID))
	clientOpts := append([]client.Option{client.WithAuth(client.Bearer(apiToken))}, o.clientOpts...)
	return &CloudflareStore{api: client.New(base, clientOpts...)}
}

type cloudflareMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type cloudflareEnvelope[T any] struct {
	Success bool                `json:"success"`
	Result  T                   `json:"result"`
	Errors  []cloudflareMessage `json:"errors"`
}

// EnvelopeError is returned when a 2xx response reports success=false
type EnvelopeError struct {
	Errors []cloudflareMessage
}

func (e *EnvelopeError) Error() string {
	if len(e.Errors) == 0 {
		return "cloudflare request failed"
	}
	parts := make([]string, len(e.Errors))
	for i, m := range e.Errors {
		parts[i] = fmt.Sprintf("%d: %s", m.Code, m.Message)
	}
	return "cloudflare request failed: " + strings.Join(parts, "; ")
}

func valuePath(key string) string {
	return "/values/" + url.PathEscape(key)
}

func (s *CloudflareStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.api.GetText(ctx, valuePath(key))
	if err != nil {
		if client.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *CloudflareStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	path := valuePath(key)
	if secs := int64(ttl / time.Second); secs > 0 {
		path += fmt.Sprintf("?expiration_ttl=%d", secs)
	}
	if err := s.api.PutText(ctx, path, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key succeeds.
func (s *CloudflareStore) Delete(ctx context.Context, key string) error {
	if err := s.api.Delete(ctx, valuePath(key)); err != nil && !client.IsNotFound(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *CloudflareStore) ListKeys(ctx context.Context, prefix string, limit int) ([]Key, error) {
	query := url.Values{}
	if prefix != "" {
		query.Set("prefix", prefix)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}
	path := "/keys"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp cloudflareEnvelope[[]Key]
	if err := s.api.GetJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	if !resp.Success {
		return nil, &EnvelopeError{Errors: resp.Errors}
	}
	return resp.Result, nil
}
