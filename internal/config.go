package internal

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// KV backends
const (
	KVBackendCloudflare = "cloudflare"
	KVBackendSQLite     = "sqlite"
)

// APIConfig holds the credentials of a remote provider
type APIConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// ClaudeConfig configures local session discovery and the Messages API
type ClaudeConfig struct {
	APIConfig `yaml:",inline"`
	Root      string `yaml:"root,omitempty"`
	Model     string `yaml:"model,omitempty"`
}

// GeminiConfig configures local session discovery
type GeminiConfig struct {
	Root       string   `yaml:"root,omitempty"`
	ExtraRoots []string `yaml:"extra_roots,omitempty"`
}

// CloudflareConfig locates the Workers KV namespace used for sync
type CloudflareConfig struct {
	AccountID   string `yaml:"account_id,omitempty"`
	NamespaceID string `yaml:"namespace_id,omitempty"`
	APIToken    string `yaml:"api_token,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
}

// KVConfig selects the KV backend
type KVConfig struct {
	Backend string `yaml:"backend,omitempty"`
	Path    string `yaml:"path,omitempty"` // SQLite database file
}

// Config is loaded once per command and treated as read-only afterwards
type Config struct {
	Providers         []Provider       `yaml:"providers,omitempty"`
	RefreshInterval   time.Duration    `yaml:"refresh_interval,omitempty"`
	HeartbeatInterval time.Duration    `yaml:"heartbeat_interval,omitempty"`
	MachineID         string           `yaml:"machine_id,omitempty"`
	Gemini            GeminiConfig     `yaml:"gemini,omitempty"`
	Claude            ClaudeConfig     `yaml:"claude,omitempty"`
	Cursor            APIConfig        `yaml:"cursor,omitempty"`
	Codex             APIConfig        `yaml:"codex,omitempty"`
	Jules             APIConfig        `yaml:"jules,omitempty"`
	Cloudflare        CloudflareConfig `yaml:"cloudflare,omitempty"`
	KV                KVConfig         `yaml:"kv,omitempty"`

	Paths ProviderPaths `yaml:"-"`
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig(paths ProviderPaths) *Config {
	return &Config{
		Providers:         append([]Provider(nil), AllProviders...),
		RefreshInterval:   30 * time.Second,
		HeartbeatInterval: 5 * time.Minute,
		Gemini:            GeminiConfig{Root: paths.GeminiRoot},
		Claude:            ClaudeConfig{Root: paths.ClaudeRoot},
		KV:                KVConfig{Backend: KVBackendCloudflare, Path: paths.KVDatabase()},
		Paths:             paths,
	}
}

// LoadConfig reads the YAML config at path (the default location when
// empty), then applies environment overrides. A missing file is not an
// error.
func LoadConfig(path string) (*Config, error) {
	paths, err := DetectProviderPaths()
	if err != nil {
		return nil, err
	}
	return loadConfig(path, paths)
}

func loadConfig(path string, paths ProviderPaths) (*Config, error) {
	cfg := DefaultConfig(paths)
	if path == "" {
		path = paths.ConfigFile()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &ParseError{Source: "config", Key: path, Err: err}
		}
		LogDebug("Loaded config from %s", path)
	case os.IsNotExist(err):
		LogDebug("No config file at %s, using defaults", path)
	default:
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := getEnv("AGENTSYNC_PROVIDERS", ""); v != "" {
		providers, err := ParseProviderList(v)
		if err != nil {
			return &ConfigError{Field: "providers", Reason: err.Error()}
		}
		c.Providers = providers
	}
	c.MachineID = getEnv("AGENTSYNC_MACHINE_ID", c.MachineID)

	c.Claude.APIKey = getEnv("ANTHROPIC_API_KEY", c.Claude.APIKey)
	c.Claude.BaseURL = getEnv("AGENTSYNC_CLAUDE_BASE_URL", c.Claude.BaseURL)
	c.Cursor.APIKey = getEnv("CURSOR_API_KEY", c.Cursor.APIKey)
	c.Cursor.BaseURL = getEnv("AGENTSYNC_CURSOR_BASE_URL", c.Cursor.BaseURL)
	c.Codex.APIKey = getEnv("OPENAI_API_KEY", c.Codex.APIKey)
	c.Codex.BaseURL = getEnv("AGENTSYNC_CODEX_BASE_URL", c.Codex.BaseURL)
	c.Jules.APIKey = getEnv("JULES_API_KEY", c.Jules.APIKey)
	c.Jules.BaseURL = getEnv("AGENTSYNC_JULES_BASE_URL", c.Jules.BaseURL)

	c.Cloudflare.AccountID = getEnv("CLOUDFLARE_ACCOUNT_ID", c.Cloudflare.AccountID)
	c.Cloudflare.NamespaceID = getEnv("CLOUDFLARE_KV_NAMESPACE_ID", c.Cloudflare.NamespaceID)
	c.Cloudflare.APIToken = getEnv("CLOUDFLARE_API_TOKEN", c.Cloudflare.APIToken)
	c.Cloudflare.BaseURL = getEnv("AGENTSYNC_CLOUDFLARE_BASE_URL", c.Cloudflare.BaseURL)

	c.KV.Backend = getEnv("AGENTSYNC_KV_BACKEND", c.KV.Backend)
	c.KV.Path = getEnv("AGENTSYNC_KV_PATH", c.KV.Path)
	return nil
}

// Validate checks settings that would otherwise fail late
func (c *Config) Validate() error {
	for _, p := range c.Providers {
		if _, err := ParseProvider(string(p)); err != nil {
			return &ConfigError{Field: "providers", Reason: err.Error()}
		}
	}
	switch c.KV.Backend {
	case KVBackendCloudflare, KVBackendSQLite:
	default:
		return &ConfigError{Field: "kv.backend", Reason: fmt.Sprintf("unsupported value %q", c.KV.Backend)}
	}
	if c.RefreshInterval <= 0 {
		return &ConfigError{Field: "refresh_interval", Reason: "must be positive"}
	}
	if c.HeartbeatInterval <= 0 {
		return &ConfigError{Field: "heartbeat_interval", Reason: "must be positive"}
	}
	return nil
}

// Enabled reports whether provider is enabled
func (c *Config) Enabled(provider Provider) bool {
	for _, p := range c.Providers {
		if p == provider {
			return true
		}
	}
	return false
}

// RequireCloudflare returns a ConfigError naming the first missing
// Cloudflare setting.
func (c *Config) RequireCloudflare() error {
	switch {
	case c.Cloudflare.AccountID == "":
		return &ConfigError{Field: "cloudflare.account_id"}
	case c.Cloudflare.NamespaceID == "":
		return &ConfigError{Field: "cloudflare.namespace_id"}
	case c.Cloudflare.APIToken == "":
		return &ConfigError{Field: "cloudflare.api_token"}
	}
	return nil
}

// ResolveMachineID returns the configured machine id, else the persisted
// one, else generates "{hostname}-{uuid[:8]}" and persists it.
func (c *Config) ResolveMachineID() (string, error) {
	if c.MachineID != "" {
		return c.MachineID, nil
	}

	path := c.Paths.MachineIDFile()
	if data, err := os.ReadFile(path); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			c.MachineID = id
			return id, nil
		}
	}

	id := NewMachineID()
	if err := os.MkdirAll(c.Paths.StateDir, 0755); err != nil {
		return "", &StorageError{Path: c.Paths.StateDir, Op: "open", Err: err}
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0644); err != nil {
		return "", &StorageError{Path: path, Op: "write", Err: err}
	}
	LogInfo("Generated machine id %s", id)
	c.MachineID = id
	return id, nil
}

// NewMachineID generates a fresh "{hostname}-{uuid[:8]}" identifier
func NewMachineID() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8])
}

// ParseProviderList parses a comma-separated provider list
func ParseProviderList(value string) ([]Provider, error) {
	var providers []Provider
	for _, name := range strings.Split(value, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		p, err := ParseProvider(name)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
