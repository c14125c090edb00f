package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/agentsync/testutil"
)

func TestDetectProviderPaths(t *testing.T) {
	paths, err := DetectProviderPaths()
	if err != nil {
		t.Fatalf("DetectProviderPaths() error = %v", err)
	}
	if paths.Home == "" {
		t.Error("Home should not be empty")
	}
	if filepath.Base(paths.GeminiRoot) != "tmp" {
		t.Errorf("GeminiRoot = %q, want .../.gemini/tmp", paths.GeminiRoot)
	}
	if filepath.Base(paths.ClaudeRoot) != "projects" {
		t.Errorf("ClaudeRoot = %q, want .../.claude/projects", paths.ClaudeRoot)
	}
}

func TestProviderPaths_Overrides(t *testing.T) {
	home := testutil.CreateTempDir(t)
	t.Setenv("AGENTSYNC_CONFIG_DIR", filepath.Join(home, "cfg"))
	t.Setenv("AGENTSYNC_STATE_DIR", filepath.Join(home, "state"))

	paths := providerPathsFor(home)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"config file", paths.ConfigFile(), filepath.Join(home, "cfg", "config.yaml")},
		{"machine id", paths.MachineIDFile(), filepath.Join(home, "state", "machine-id")},
		{"cache", paths.CacheDir(), filepath.Join(home, "state", "cache")},
		{"kv", paths.KVDatabase(), filepath.Join(home, "state", "kv.db")},
		{"tasks", paths.TasksFile(), filepath.Join(home, "state", "tasks.yaml")},
		{"claude", paths.ClaudeRoot, filepath.Join(home, ".claude", "projects")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestDirExists(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if !DirExists(dir) {
		t.Error("DirExists(dir) = false")
	}
	if DirExists(file) {
		t.Error("DirExists(file) = true")
	}
	if DirExists(filepath.Join(dir, "missing")) {
		t.Error("DirExists(missing) = true")
	}
}
