package provider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/testutil"
)

type spawnCall struct {
	program string
	args    []string
	dir     string
}

func recordingSpawner(calls *[]spawnCall) SpawnFunc {
	return func(program string, args []string, dir string) (int, error) {
		*calls = append(*calls, spawnCall{program: program, args: args, dir: dir})
		return 4242, nil
	}
}

func TestGeminiAdapter_List(t *testing.T) {
	root := testutil.CreateTempDir(t)
	extra := testutil.CreateTempDir(t)

	older := testutil.SampleSession()
	newer := testutil.Session{Messages: []testutil.Message{
		{Role: "user", Content: "Add a flag", Timestamp: "2025-02-01T00:00:00Z"},
	}}
	testutil.CreateSessionFixture(t, root, "aaa", "chats", "s1", older)
	testutil.CreateSessionFixture(t, extra, "bbb", "chats", "s2", newer)
	testutil.CreateRawFixture(t, root, "aaa", "chats", "broken.json", []byte("{oops"))
	testutil.CreateRawFixture(t, root, "nochats", "logs", "x.json", []byte("{}"))

	// The same root listed twice must not duplicate sessions
	adapter := NewGeminiAdapter(root, []string{extra, root, filepath.Join(root, "missing")})
	agents, err := adapter.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(agents) != 2 {
		t.Fatalf("List() returned %d agents, want 2: %+v", len(agents), agents)
	}
	if agents[0].ID != "gemini-bbb-s2" || agents[1].ID != "gemini-aaa-s1" {
		t.Errorf("List() order = %s, %s; want newest first", agents[0].ID, agents[1].ID)
	}
	if agents[0].Status != internal.StatusIdle || agents[1].Status != internal.StatusCompleted {
		t.Errorf("statuses = %s, %s", agents[0].Status, agents[1].Status)
	}
}

func TestGeminiAdapter_ListMissingRoot(t *testing.T) {
	adapter := NewGeminiAdapter(filepath.Join(testutil.CreateTempDir(t), "none"), nil)
	agents, err := adapter.List(context.Background())
	if err != nil || len(agents) != 0 {
		t.Errorf("List() = %v, %v; want empty, nil", agents, err)
	}
}

func TestGeminiAdapter_Detail(t *testing.T) {
	root := testutil.CreateTempDir(t)
	path := testutil.CreateSessionFixture(t, root, "hash9", "chats", "s1", testutil.SampleSession())
	adapter := NewGeminiAdapter(root, nil)

	detail, err := adapter.Detail(context.Background(), "s1", path)
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if detail.ID != "gemini-hash9-s1" {
		t.Errorf("Detail().ID = %q", detail.ID)
	}
	if len(detail.Conversation) != 2 || detail.Conversation[1].Role != "assistant" {
		t.Errorf("Detail().Conversation = %+v", detail.Conversation)
	}

	var cfgErr *internal.ConfigError
	if _, err := adapter.Detail(context.Background(), "s1", ""); !errors.As(err, &cfgErr) {
		t.Errorf("Detail() without locator error = %v, want *ConfigError", err)
	}
}

func TestGeminiAdapter_Start(t *testing.T) {
	project := testutil.CreateTempDir(t)
	var calls []spawnCall
	adapter := NewGeminiAdapter("", nil, WithSpawner(recordingSpawner(&calls)))

	result, err := adapter.Start(context.Background(), StartRequest{Prompt: `say "hi"`, ProjectPath: project})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !result.Success || result.PID != 4242 {
		t.Errorf("Start() = %+v", result)
	}
	if len(calls) != 1 {
		t.Fatalf("spawned %d processes, want 1", len(calls))
	}
	call := calls[0]
	if call.dir != project || call.args[0] != "-p" || call.args[1] != `say "hi"` || call.args[2] != "-y" {
		t.Errorf("spawn call = %+v", call)
	}

	var cfgErr *internal.ConfigError
	if _, err := adapter.Start(context.Background(), StartRequest{Prompt: "x"}); !errors.As(err, &cfgErr) {
		t.Errorf("Start() without project error = %v, want *ConfigError", err)
	}
	if _, err := adapter.Start(context.Background(), StartRequest{Prompt: "x", ProjectPath: filepath.Join(project, "nope")}); !errors.As(err, &cfgErr) {
		t.Errorf("Start() with missing dir error = %v, want *ConfigError", err)
	}
}

func TestGeminiAdapter_StartSpawnFailure(t *testing.T) {
	project := testutil.CreateTempDir(t)
	failing := func(string, []string, string) (int, error) { return 0, os.ErrNotExist }
	adapter := NewGeminiAdapter("", nil, WithSpawner(failing))

	_, err := adapter.Start(context.Background(), StartRequest{Prompt: "x", ProjectPath: project})
	var provErr *internal.ProviderError
	if !errors.As(err, &provErr) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Start() error = %v, want wrapped spawn failure", err)
	}
}
