package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Message is a session-file message fixture
type Message struct {
	Role      string `json:"role,omitempty"`
	Type      string `json:"type,omitempty"`
	Content   string `json:"content,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Session is a session-file fixture in the shape the local CLIs write
type Session struct {
	Name     string    `json:"name,omitempty"`
	CWD      string    `json:"cwd,omitempty"`
	Messages []Message `json:"messages"`
}

// SampleSession returns a two-message conversation ending with the agent
func SampleSession() Session {
	return Session{
		Messages: []Message{
			{Role: "user", Content: "Fix the flaky login test", Timestamp: "2025-01-02T10:00:00Z"},
			{Role: "assistant", Content: "Done, the retry is gone.", Timestamp: "2025-01-02T10:05:00Z"},
		},
	}
}

// CreateSessionFixture writes session as root/projectHash/subdir/name.json
// and returns the file path.
func CreateSessionFixture(t *testing.T, root, projectHash, subdir, name string, session Session) string {
	t.Helper()
	dir := filepath.Join(root, projectHash, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create session directory: %v", err)
	}
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, JSONMarshal(t, session), 0644); err != nil {
		t.Fatalf("Failed to write session fixture: %v", err)
	}
	return path
}

// CreateRawFixture writes arbitrary bytes to root/projectHash/subdir/name
func CreateRawFixture(t *testing.T, root, projectHash, subdir, name string, data []byte) string {
	t.Helper()
	dir := filepath.Join(root, projectHash, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}
