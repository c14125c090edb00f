package internal

import (
	"fmt"
	"os"
	"path/filepath"
)

// ProviderPaths holds the local directories agentsync reads and writes
type ProviderPaths struct {
	Home       string
	GeminiRoot string // ~/.gemini/tmp
	ClaudeRoot string // ~/.claude/projects
	ConfigDir  string // ~/.config/agentsync
	StateDir   string // ~/.local/state/agentsync
}

// DetectProviderPaths resolves the provider session roots and the
// agentsync config/state directories for the current user.
// AGENTSYNC_CONFIG_DIR and AGENTSYNC_STATE_DIR override the latter two.
func DetectProviderPaths() (ProviderPaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return ProviderPaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}
	return providerPathsFor(home), nil
}

func providerPathsFor(home string) ProviderPaths {
	return ProviderPaths{
		Home:       home,
		GeminiRoot: filepath.Join(home, ".gemini", "tmp"),
		ClaudeRoot: filepath.Join(home, ".claude", "projects"),
		ConfigDir:  getEnv("AGENTSYNC_CONFIG_DIR", filepath.Join(home, ".config", "agentsync")),
		StateDir:   getEnv("AGENTSYNC_STATE_DIR", filepath.Join(home, ".local", "state", "agentsync")),
	}
}

// ConfigFile returns the default config file path
func (pp ProviderPaths) ConfigFile() string {
	return filepath.Join(pp.ConfigDir, "config.yaml")
}

// MachineIDFile returns the file the generated machine id is persisted in
func (pp ProviderPaths) MachineIDFile() string {
	return filepath.Join(pp.StateDir, "machine-id")
}

// CacheDir returns the directory for persisted tracking state
func (pp ProviderPaths) CacheDir() string {
	return filepath.Join(pp.StateDir, "cache")
}

// KVDatabase returns the default path of the local SQLite KV store
func (pp ProviderPaths) KVDatabase() string {
	return filepath.Join(pp.StateDir, "kv.db")
}

// DirExists reports whether path exists and is a directory
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// TasksFile returns the file background task records are saved in
func (pp ProviderPaths) TasksFile() string {
	return filepath.Join(pp.StateDir, "tasks.yaml")
}
