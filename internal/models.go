package internal

import (
	"fmt"
	"sort"
	"strings"
)

// Provider identifies the coding-assistant service an agent belongs to
type Provider string

const (
	ProviderGemini Provider = "gemini" // local session files
	ProviderClaude Provider = "claude" // local session files + tracked cloud conversations
	ProviderCursor Provider = "cursor" // cloud agents inbox
	ProviderCodex  Provider = "codex"  // tracked cloud threads
	ProviderJules  Provider = "jules"  // paginated cloud sessions
)

// AllProviders lists the known providers in aggregation order
var AllProviders = []Provider{
	ProviderGemini,
	ProviderClaude,
	ProviderCursor,
	ProviderCodex,
	ProviderJules,
}

// ParseProvider converts a name into a Provider, case-insensitively
func ParseProvider(name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range AllProviders {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider: %s", name)
}

// Status is the normalized state of an agent session
type Status string

const (
	StatusRunning   Status = "running"
	StatusIdle      Status = "idle"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusWaiting   Status = "waiting"
	StatusUnknown   Status = "unknown"
)

// Agent is the normalized cross-provider representation of a session.
// Values are built fresh on every fetch and replaced wholesale on the next.
type Agent struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Provider        Provider `json:"provider" yaml:"provider"`
	Status          Status   `json:"status" yaml:"status"`
	ProjectPath     string   `json:"project_path,omitempty" yaml:"project_path,omitempty"`
	ProjectName     string   `json:"project_name,omitempty" yaml:"project_name,omitempty"`
	Branch          string   `json:"branch,omitempty" yaml:"branch,omitempty"`
	PRNumber        *int     `json:"pr_number,omitempty" yaml:"pr_number,omitempty"`
	PRURL           string   `json:"pr_url,omitempty" yaml:"pr_url,omitempty"`
	LastUpdated     string   `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
	CreatedAt       string   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	FilePath        string   `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	RawID           string   `json:"raw_id,omitempty" yaml:"raw_id,omitempty"`
	TaskDescription string   `json:"task_description,omitempty" yaml:"task_description,omitempty"`
}

// AgentDetail extends Agent with the conversation and change information
// fetched on demand. It is never cached.
type AgentDetail struct {
	Agent        `yaml:",inline"`
	Conversation []ConversationMessage `json:"conversation,omitempty" yaml:"conversation,omitempty"`
	FilesChanged []FileChange          `json:"files_changed,omitempty" yaml:"files_changed,omitempty"`
	Metrics      *AgentMetrics         `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// ConversationMessage is one entry of an agent's conversation history
type ConversationMessage struct {
	Role      string `json:"role" yaml:"role"`
	Content   string `json:"content" yaml:"content"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// FileChange describes a file touched by a cloud agent
type FileChange struct {
	Path       string `json:"path" yaml:"path"`
	ChangeType string `json:"change_type" yaml:"change_type"`
	Additions  *int   `json:"additions,omitempty" yaml:"additions,omitempty"`
	Deletions  *int   `json:"deletions,omitempty" yaml:"deletions,omitempty"`
}

// AgentMetrics holds optional usage numbers reported by a provider
type AgentMetrics struct {
	TokensUsed      *int64   `json:"tokens_used,omitempty" yaml:"tokens_used,omitempty"`
	Cost            *float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
	DurationSeconds *int64   `json:"duration_seconds,omitempty" yaml:"duration_seconds,omitempty"`
}

// AgentID derives the stable identifier of an agent. scope is the
// project-hash directory for file-backed sessions and empty for remote ones.
func AgentID(provider Provider, scope, rawID string) string {
	if scope == "" {
		return fmt.Sprintf("%s-%s", provider, rawID)
	}
	return fmt.Sprintf("%s-%s-%s", provider, scope, rawID)
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// SortByLastUpdated orders agents newest first. Missing timestamps sort
// as the empty string, i.e. last. The sort is stable.
func SortByLastUpdated(agents []Agent) {
	sort.SliceStable(agents, func(i, j int) bool {
		return agents[i].LastUpdated > agents[j].LastUpdated
	})
}
