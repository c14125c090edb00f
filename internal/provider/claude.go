package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/client"
)

const (
	claudeAPIBase      = "https://api.anthropic.com"
	claudeAPIVersion   = "2023-06-01"
	claudeDefaultModel = "claude-sonnet-4-20250514"
	claudeMaxTokens    = 4096
	claudeCloudScope   = "cloud"
	claudeLocalPrefix  = "local-"
)

// CloudConversation is a conversation created through the Messages API.
// The API has no listing endpoint, so the adapter remembers them.
type CloudConversation struct {
	ID          string                         `json:"id"`
	Name        string                         `json:"name"`
	Prompt      string                         `json:"prompt,omitempty"`
	ProjectPath string                         `json:"project_path,omitempty"`
	Status      internal.Status                `json:"status"`
	CreatedAt   string                         `json:"created_at"`
	UpdatedAt   string                         `json:"updated_at"`
	Messages    []internal.ConversationMessage `json:"messages"`
}

func (c *CloudConversation) agent() internal.Agent {
	return internal.Agent{
		ID:              internal.AgentID(internal.ProviderClaude, claudeCloudScope, c.ID),
		Name:            c.Name,
		Provider:        internal.ProviderClaude,
		Status:          c.Status,
		ProjectPath:     c.ProjectPath,
		LastUpdated:     c.UpdatedAt,
		CreatedAt:       c.CreatedAt,
		RawID:           c.ID,
		TaskDescription: c.Prompt,
	}
}

// ClaudeAdapter reports local Claude Code sessions under
// ~/.claude/projects together with the cloud conversations it created.
type ClaudeAdapter struct {
	root   string
	apiKey string
	model  string
	api    *client.Client
	opts   *options

	mu            sync.RWMutex
	conversations map[string]*CloudConversation
}

// NewClaudeAdapter creates the adapter. apiKey may be empty, in which case
// only local sessions are available.
func NewClaudeAdapter(root, apiKey, model string, opts ...Option) *ClaudeAdapter {
	o := buildOptions(claudeAPIBase, opts)
	if model == "" {
		model = claudeDefaultModel
	}
	clientOpts := append([]client.Option{
		client.WithAuth(client.APIKey("x-api-key", apiKey)),
		client.WithHeader("anthropic-version", claudeAPIVersion),
	}, o.clientOpts...)

	return &ClaudeAdapter{
		root:          root,
		apiKey:        apiKey,
		model:         model,
		api:           client.New(o.baseURL, clientOpts...),
		opts:          o,
		conversations: make(map[string]*CloudConversation),
	}
}

func (a *ClaudeAdapter) Provider() internal.Provider {
	return internal.ProviderClaude
}

// Tracking exposes the cache of cloud conversation ids
func (a *ClaudeAdapter) Tracking() *internal.TrackingCache {
	return a.opts.tracking
}

func (a *ClaudeAdapter) List(ctx context.Context) ([]internal.Agent, error) {
	agents, err := scanSessions(a.opts.normalizer, internal.ProviderClaude, a.root, claudeLocalPrefix, "sessions", "chats")
	if err != nil {
		return nil, &internal.ProviderError{Provider: internal.ProviderClaude, Op: "list", Err: err}
	}

	changed := false
	for _, id := range a.opts.tracking.List() {
		conv, err := a.conversation(id)
		if err != nil {
			internal.LogDebug("Untracking claude conversation %s: %v", id, err)
			a.opts.tracking.Untrack(id)
			changed = true
			continue
		}
		agents = append(agents, conv.agent())
	}
	if changed {
		a.opts.persistTracking(internal.ProviderClaude)
	}

	internal.SortByLastUpdated(agents)
	return agents, nil
}

// Detail reads the local session file at locator, or the tracked cloud
// conversation rawID when locator is empty.
func (a *ClaudeAdapter) Detail(ctx context.Context, rawID, locator string) (*internal.AgentDetail, error) {
	if locator != "" {
		return localDetail(a.opts.normalizer, internal.ProviderClaude, claudeLocalPrefix, locator)
	}

	if !a.opts.tracking.Contains(rawID) {
		return nil, fmt.Errorf("cloud conversation %s not found", rawID)
	}
	conv, err := a.conversation(rawID)
	if err != nil {
		return nil, fmt.Errorf("cloud conversation %s not found: %w", rawID, err)
	}

	messages := make([]internal.ConversationMessage, len(conv.Messages))
	copy(messages, conv.Messages)
	return &internal.AgentDetail{
		Agent:        conv.agent(),
		Conversation: messages,
	}, nil
}

// Start launches the local CLI when a project path is given, otherwise it
// creates a cloud conversation.
func (a *ClaudeAdapter) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	if req.ProjectPath != "" {
		return startLocal(internal.ProviderClaude, a.opts.spawn, req, "claude",
			[]string{"-p", req.Prompt, "--allowedTools", "Read,Edit,Bash"})
	}
	return a.startCloud(ctx, req)
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *ClaudeAdapter) startCloud(ctx context.Context, req StartRequest) (*StartResult, error) {
	if err := requireKey(internal.ProviderClaude, a.apiKey); err != nil {
		return nil, err
	}

	model := a.model
	if req.Model != "" {
		model = req.Model
	}
	payload := claudeRequest{
		Model:     model,
		MaxTokens: claudeMaxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: req.Prompt}},
	}

	var resp claudeResponse
	if err := a.api.PostJSON(ctx, "/v1/messages", payload, &resp); err != nil {
		return nil, &internal.ProviderError{Provider: internal.ProviderClaude, Op: "start", Err: err}
	}

	reply := ""
	if len(resp.Content) > 0 {
		reply = resp.Content[0].Text
	}
	now := a.opts.now().UTC()
	stamp := now.Format(time.RFC3339)
	conv := &CloudConversation{
		ID:          resp.ID,
		Name:        internal.TruncateString(req.Prompt, 50),
		Prompt:      req.Prompt,
		ProjectPath: req.ProjectPath,
		Status:      internal.StatusCompleted,
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
		Messages: []internal.ConversationMessage{
			{Role: "user", Content: req.Prompt},
			{Role: "assistant", Content: reply},
		},
	}
	a.track(conv, now)

	agent := conv.agent()
	return &StartResult{
		Success:        true,
		Message:        "Claude cloud conversation created",
		ConversationID: resp.ID,
		Agent:          &agent,
	}, nil
}

// track records conv and drops any conversation the cache evicted
func (a *ClaudeAdapter) track(conv *CloudConversation, at time.Time) {
	a.opts.tracking.TrackAt(conv.ID, at)

	var evicted []string
	a.mu.Lock()
	a.conversations[conv.ID] = conv
	for id := range a.conversations {
		if !a.opts.tracking.Contains(id) {
			delete(a.conversations, id)
			evicted = append(evicted, id)
		}
	}
	a.mu.Unlock()

	if store := a.opts.conversations; store != nil {
		if err := store.SaveConversation(conv.ID, conv); err != nil {
			internal.LogWarn("Failed to persist claude conversation %s: %v", conv.ID, err)
		}
		for _, id := range evicted {
			_ = store.DeleteConversation(id)
		}
	}
	a.opts.persistTracking(internal.ProviderClaude)
}

// conversation returns a tracked conversation, loading it from the
// conversation store when it is not in memory yet
func (a *ClaudeAdapter) conversation(id string) (*CloudConversation, error) {
	a.mu.RLock()
	conv, ok := a.conversations[id]
	a.mu.RUnlock()
	if ok {
		return conv, nil
	}

	if a.opts.conversations == nil {
		return nil, fmt.Errorf("conversation %s is not loaded", id)
	}
	var loaded CloudConversation
	if err := a.opts.conversations.LoadConversation(id, &loaded); err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.conversations[id] = &loaded
	a.mu.Unlock()
	return &loaded, nil
}
