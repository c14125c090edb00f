// Package client is the HTTP transport shared by the remote provider
// adapters and the Cloudflare KV binding.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every outbound request
const DefaultTimeout = 30 * time.Second

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 16 << 20

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d - %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// IsNotFound reports whether err carries a 404 response
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Auth decorates a request with credentials
type Auth interface {
	Apply(req *http.Request)
}

type bearerAuth string

func (a bearerAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+string(a))
}

// Bearer authenticates with "Authorization: Bearer <token>"
func Bearer(token string) Auth {
	return bearerAuth(token)
}

type basicAuth struct {
	username, password string
}

func (a basicAuth) Apply(req *http.Request) {
	credentials := base64.StdEncoding.EncodeToString([]byte(a.username + ":" + a.password))
	req.Header.Set("Authorization", "Basic "+credentials)
}

// Basic authenticates with HTTP basic auth
func Basic(username, password string) Auth {
	return basicAuth{username: username, password: password}
}

type apiKeyAuth struct {
	header, value string
}

func (a apiKeyAuth) Apply(req *http.Request) {
	req.Header.Set(a.header, a.value)
}

// APIKey sends value in the named header
func APIKey(header, value string) Auth {
	return apiKeyAuth{header: header, value: value}
}

// Client performs JSON requests against one base URL
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       Auth
	headers    http.Header
}

// Option configures a Client
type Option func(*Client)

// WithAuth sets the credentials applied to every request
func WithAuth(auth Auth) Option {
	return func(c *Client) { c.auth = auth }
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout overrides DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

// WithHeader adds a static header to every request
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// New creates a client rooted at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetJSON decodes the JSON response of GET path into out
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// GetText returns the raw response body of GET path
func (c *Client) GetText(ctx context.Context, path string) (string, error) {
	body, err := c.doRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PostJSON sends in as JSON and decodes the response into out. Either may be nil.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, in, out)
}

// PutJSON sends in as JSON and decodes the response into out. Either may be nil.
func (c *Client) PutJSON(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPut, path, in, out)
}

// PutText sends a plain-text body
func (c *Client) PutText(ctx context.Context, path, text string) error {
	_, err := c.doRequest(ctx, http.MethodPut, path, "text/plain", strings.NewReader(text))
	return err
}

// Delete issues DELETE path
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, path, "", nil)
	return err
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	body, err := c.doRequest(ctx, method, path, "application/json", reader)
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.auth != nil {
		c.auth.Apply(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
