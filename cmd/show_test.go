package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/agentsync/internal"
)

func TestShowCommand(t *testing.T) {
	env := setupTestEnv(t)
	env.withGeminiSession(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{
			name:    "missing agent id",
			args:    []string{"show"},
			wantErr: true,
		},
		{
			name:    "unknown agent",
			args:    []string{"show", "gemini-p1-nope"},
			wantErr: true,
		},
		{
			name:    "invalid since",
			args:    []string{"show", "gemini-p1-s1", "--since", "yesterday"},
			wantErr: true,
		},
		{
			name: "full conversation",
			args: []string{"show", "gemini-p1-s1"},
			want: []string{"Provider: gemini", "Messages: 2", "Fix the flaky login test", "[2/2]"},
		},
		{
			name: "limit",
			args: []string{"show", "gemini-p1-s1", "-n", "1"},
			want: []string{"[1/2]", "... (1 more message(s))"},
		},
		{
			name: "since",
			args: []string{"show", "gemini-p1-s1", "--since", "2025-01-02T10:01:00Z"},
			want: []string{"[1/1]", "Done, the retry is gone."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("show error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestShowCommand_JSON(t *testing.T) {
	env := setupTestEnv(t)
	env.withGeminiSession(t)

	out, err := runCommand(t, "show", "gemini-p1-s1", "--json")
	if err != nil {
		t.Fatalf("show --json error = %v", err)
	}
	var detail internal.AgentDetail
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if detail.ID != "gemini-p1-s1" || len(detail.Conversation) != 2 {
		t.Errorf("detail = %+v", detail)
	}
}

func TestFilterMessages(t *testing.T) {
	messages := []internal.ConversationMessage{
		{Role: "user", Content: "a", Timestamp: "2025-01-02T10:00:00Z"},
		{Role: "assistant", Content: "b"},
		{Role: "assistant", Content: "c", Timestamp: "2025-01-02T11:00:00Z"},
	}
	cutoff := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	if got := filterMessages(messages, nil); len(got) != 3 {
		t.Errorf("no filter kept %d messages", len(got))
	}
	got := filterMessages(messages, &cutoff)
	if len(got) != 2 || got[0].Content != "a" || got[1].Content != "c" {
		t.Errorf("filterMessages() = %+v", got)
	}
}

func TestDisplayAgentHeader(t *testing.T) {
	detail := internal.CreateTestAgentDetail(internal.ProviderCursor, "c1")
	detail.Branch = "fix/login"

	var buf bytes.Buffer
	displayAgentHeader(&buf, detail)
	out := buf.String()

	for _, want := range []string{"Agent c1", "Branch: fix/login", "Files changed", "main.go (modified) +3 -1"} {
		if !strings.Contains(out, want) {
			t.Errorf("header missing %q:\n%s", want, out)
		}
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"short line", "hello world", 80, "hello world"},
		{"wraps on words", "one two three four", 9, "one two\nthree\nfour"},
		{"keeps newlines", "a\nb", 80, "a\nb"},
		{"long word", "abcdefghij xy", 5, "abcdefghij\nxy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapText(tt.text, tt.width); got != tt.want {
				t.Errorf("wrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}
