package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/testutil"
)

func TestCodexRunStatus(t *testing.T) {
	tests := map[string]internal.Status{
		"queued":          internal.StatusRunning,
		"in_progress":     internal.StatusRunning,
		"completed":       internal.StatusCompleted,
		"failed":          internal.StatusError,
		"cancelled":       internal.StatusError,
		"expired":         internal.StatusError,
		"requires_action": internal.StatusWaiting,
		"cancelling":      internal.StatusUnknown,
	}
	for in, want := range tests {
		if got := codexRunStatus(in); got != want {
			t.Errorf("codexRunStatus(%q) = %s, want %s", in, got, want)
		}
	}
}

func newCodexServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/threads", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"thread_new","created_at":1735689600}`))
	})
	mux.HandleFunc("/threads/thread_ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"thread_ok","created_at":1735689600}`))
	})
	mux.HandleFunc("/threads/thread_ok/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("order") != "desc" {
			t.Errorf("runs order = %q", r.URL.Query().Get("order"))
		}
		w.Write([]byte(`{"data":[{"id":"run_2","status":"in_progress","created_at":1735693200}]}`))
	})
	mux.HandleFunc("/threads/thread_ok/messages", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"id":"m1","role":"user","created_at":1735689600,"content":[{"type":"text","text":{"value":"Port the parser"}}]},
			{"id":"m2","role":"assistant","created_at":1735689700,"content":[{"type":"image_file"},{"type":"text","text":{"value":"Working"}}]}]}`))
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-codex" || r.Header.Get("OpenAI-Beta") != "assistants=v2" {
			t.Errorf("headers = %v", r.Header)
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCodexAdapter_ListUntracksFailures(t *testing.T) {
	server := newCodexServer(t)
	state := internal.NewCacheManager(testutil.CreateTempDir(t))
	adapter := NewCodexAdapter("sk-codex", WithBaseURL(server.URL), WithTrackingStore(state))
	adapter.Track("thread_ok")
	adapter.Track("thread_gone")

	agents, err := adapter.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(agents) != 1 {
		t.Fatalf("List() returned %d agents, want 1", len(agents))
	}
	agent := agents[0]
	if agent.ID != "codex-thread_ok" || agent.Status != internal.StatusRunning {
		t.Errorf("agent = %+v", agent)
	}
	if agent.LastUpdated != "2025-01-01T01:00:00Z" || agent.CreatedAt != "2025-01-01T00:00:00Z" {
		t.Errorf("timestamps = %q / %q", agent.LastUpdated, agent.CreatedAt)
	}
	if agent.Name != "Port the parser" {
		t.Errorf("Name = %q", agent.Name)
	}

	if adapter.Tracking().Contains("thread_gone") {
		t.Error("failed thread should be untracked")
	}
	persisted, _ := state.LoadTracked(internal.ProviderCodex)
	if len(persisted) != 1 || persisted[0].ID != "thread_ok" {
		t.Errorf("persisted tracking = %+v", persisted)
	}
}

func TestCodexAdapter_Detail(t *testing.T) {
	server := newCodexServer(t)
	adapter := NewCodexAdapter("sk-codex", WithBaseURL(server.URL))
	adapter.Track("thread_ok")
	adapter.Track("thread_gone")

	detail, err := adapter.Detail(context.Background(), "thread_ok", "")
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if len(detail.Conversation) != 2 || detail.Conversation[1].Content != "Working" {
		t.Errorf("Conversation = %+v", detail.Conversation)
	}

	if _, err := adapter.Detail(context.Background(), "thread_gone", ""); err == nil {
		t.Fatal("Detail() of a missing thread should fail")
	}
	if adapter.Tracking().Contains("thread_gone") {
		t.Error("missing thread should be untracked after Detail()")
	}
}

func TestCodexAdapter_StartTracks(t *testing.T) {
	server := newCodexServer(t)
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	adapter := NewCodexAdapter("sk-codex", WithBaseURL(server.URL), WithClock(fixedClock(now)))

	result, err := adapter.Start(context.Background(), StartRequest{Prompt: "Port the parser"})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if result.ConversationID != "thread_new" || !adapter.Tracking().Contains("thread_new") {
		t.Errorf("Start() = %+v, tracked = %v", result, adapter.Tracking().List())
	}
	snapshot := adapter.Tracking().Snapshot()
	if len(snapshot) != 1 || !snapshot[0].CreatedAt.Equal(now) {
		t.Errorf("Snapshot() = %+v", snapshot)
	}
}
