package internal

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/iksnae/agentsync/testutil"
)

func TestParseSessionFile(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantErr  bool
		wantMsgs int
	}{
		{"full", `{"name":"n","messages":[{"role":"user","content":"hi"}]}`, false, 1},
		{"missing messages", `{}`, false, 0},
		{"extra fields ignored", `{"foo":1,"messages":[{"type":"gemini","text":"x","tokens":3}]}`, false, 1},
		{"invalid json", `{"messages":[`, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := ParseSessionFile([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSessionFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && len(session.Messages) != tt.wantMsgs {
				t.Errorf("ParseSessionFile() messages = %d, want %d", len(session.Messages), tt.wantMsgs)
			}
		})
	}
}

func TestReadSessionFile_Errors(t *testing.T) {
	dir := testutil.CreateTempDir(t)

	var storageErr *StorageError
	if _, err := ReadSessionFile(filepath.Join(dir, "missing.json")); !errors.As(err, &storageErr) {
		t.Errorf("ReadSessionFile(missing) error = %v, want *StorageError", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	var parseErr *ParseError
	if _, err := ReadSessionFile(bad); !errors.As(err, &parseErr) {
		t.Errorf("ReadSessionFile(bad) error = %v, want *ParseError", err)
	}
}

func TestNormalizer_NormalizeSession(t *testing.T) {
	n := NewNormalizer(nil)
	session := &SessionFile{
		Messages: []SessionMessage{
			{Role: "user", Content: "Write docs", Timestamp: "2025-01-01T09:00:00Z"},
			{Type: "gemini", Content: "Done", Timestamp: "2025-01-01T09:10:00Z"},
		},
	}

	agent := n.NormalizeSession(ProviderGemini, "hash1", "/root/hash1/chats/s1.json", session)

	want := Agent{
		ID:              "gemini-hash1-s1",
		Name:            "Write docs",
		Provider:        ProviderGemini,
		Status:          StatusCompleted,
		ProjectPath:     "hash1",
		FilePath:        "/root/hash1/chats/s1.json",
		RawID:           "s1",
		TaskDescription: "Write docs",
		CreatedAt:       "2025-01-01T09:00:00Z",
		LastUpdated:     "2025-01-01T09:10:00Z",
	}
	if !reflect.DeepEqual(agent, want) {
		t.Errorf("NormalizeSession() =\n%+v\nwant\n%+v", agent, want)
	}
}

func TestNormalizer_NormalizeSession_CWD(t *testing.T) {
	n := NewNormalizer(nil)
	session := &SessionFile{CWD: "/home/me/webapp"}

	agent := n.NormalizeSession(ProviderClaude, "local-h", "/x/s2.json", session)
	if agent.ProjectPath != "/home/me/webapp" || agent.ProjectName != "webapp" {
		t.Errorf("project = %q/%q, want cwd-derived", agent.ProjectPath, agent.ProjectName)
	}
	if agent.Status != StatusUnknown {
		t.Errorf("Status = %q, want unknown for an empty session", agent.Status)
	}
	if agent.Name != "Unnamed Session" {
		t.Errorf("Name = %q", agent.Name)
	}
}

func TestNormalizer_Idempotent(t *testing.T) {
	root := testutil.CreateTempDir(t)
	path := testutil.CreateSessionFixture(t, root, "h", "chats", "s", testutil.SampleSession())

	n := NewNormalizer(nil)
	read := func() Agent {
		session, err := ReadSessionFile(path)
		if err != nil {
			t.Fatalf("ReadSessionFile() error = %v", err)
		}
		return n.NormalizeSession(ProviderGemini, "h", path, session)
	}

	first, second := read(), read()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("parsing the same file twice differs:\n%+v\n%+v", first, second)
	}
}

func TestNormalizer_Conversation(t *testing.T) {
	n := NewNormalizer(nil)
	session := &SessionFile{
		Messages: []SessionMessage{
			{Role: "user", Content: "q"},
			{Type: "tool_call", Content: "ls"},
			{Type: "gemini", Text: "a", Timestamp: "t"},
			{Type: "error", Content: "boom"},
		},
	}

	got := n.Conversation(ProviderGemini, session)
	want := []ConversationMessage{
		{Role: "user", Content: "q"},
		{Role: "assistant", Content: "a", Timestamp: "t"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Conversation() = %+v, want %+v", got, want)
	}
}
