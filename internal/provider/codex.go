package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/client"
)

const codexAPIBase = "https://api.openai.com/v1"

// CodexAdapter follows OpenAI Assistants threads. Threads cannot be
// listed server-side, so only ids created or tracked here are reported.
type CodexAdapter struct {
	apiKey string
	api    *client.Client
	opts   *options
}

// NewCodexAdapter creates the adapter
func NewCodexAdapter(apiKey string, opts ...Option) *CodexAdapter {
	o := buildOptions(codexAPIBase, opts)
	clientOpts := append([]client.Option{
		client.WithAuth(client.Bearer(apiKey)),
		client.WithHeader("OpenAI-Beta", "assistants=v2"),
	}, o.clientOpts...)
	return &CodexAdapter{
		apiKey: apiKey,
		api:    client.New(o.baseURL, clientOpts...),
		opts:   o,
	}
}

func (a *CodexAdapter) Provider() internal.Provider {
	return internal.ProviderCodex
}

// Tracking exposes the cache of tracked thread ids
func (a *CodexAdapter) Tracking() *internal.TrackingCache {
	return a.opts.tracking
}

// Track starts following an existing thread
func (a *CodexAdapter) Track(threadID string) {
	a.opts.tracking.TrackAt(threadID, a.opts.now())
	a.opts.persistTracking(internal.ProviderCodex)
}

// Untrack stops following a thread
func (a *CodexAdapter) Untrack(threadID string) {
	a.opts.tracking.Untrack(threadID)
	a.opts.persistTracking(internal.ProviderCodex)
}

type codexThread struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
}

type codexMessage struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text *struct {
			Value string `json:"value"`
		} `json:"text"`
	} `json:"content"`
	CreatedAt int64 `json:"created_at"`
}

func (m codexMessage) text() string {
	var parts []string
	for _, c := range m.Content {
		if c.Type == "text" && c.Text != nil {
			parts = append(parts, c.Text.Value)
		}
	}
	return strings.Join(parts, "\n")
}

// CodexRun is one assistant run on a thread
type CodexRun struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
	CompletedAt *int64 `json:"completed_at"`
}

type codexList[T any] struct {
	Data []T `json:"data"`
}

func codexRunStatus(status string) internal.Status {
	switch status {
	case "queued", "in_progress":
		return internal.StatusRunning
	case "completed":
		return internal.StatusCompleted
	case "failed", "cancelled", "expired":
		return internal.StatusError
	case "requires_action":
		return internal.StatusWaiting
	default:
		return internal.StatusUnknown
	}
}

// List fetches every tracked thread. Threads that fail to load are
// untracked.
func (a *CodexAdapter) List(ctx context.Context) ([]internal.Agent, error) {
	if err := requireKey(internal.ProviderCodex, a.apiKey); err != nil {
		return nil, err
	}

	var agents []internal.Agent
	changed := false
	for _, id := range a.opts.tracking.List() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		agent, err := a.threadAgent(ctx, id)
		if err != nil {
			internal.LogDebug("Untracking codex thread %s: %v", id, err)
			a.opts.tracking.Untrack(id)
			changed = true
			continue
		}
		agents = append(agents, agent)
	}
	if changed {
		a.opts.persistTracking(internal.ProviderCodex)
	}

	internal.SortByLastUpdated(agents)
	return agents, nil
}

func (a *CodexAdapter) threadAgent(ctx context.Context, threadID string) (internal.Agent, error) {
	path := "/threads/" + url.PathEscape(threadID)

	var thread codexThread
	if err := a.api.GetJSON(ctx, path, &thread); err != nil {
		return internal.Agent{}, fmt.Errorf("failed to get thread: %w", err)
	}

	var runs codexList[CodexRun]
	if err := a.api.GetJSON(ctx, path+"/runs?limit=10&order=desc", &runs); err != nil {
		return internal.Agent{}, fmt.Errorf("failed to list runs: %w", err)
	}

	messages, err := a.messages(ctx, threadID, 1)
	if err != nil {
		return internal.Agent{}, err
	}
	prompt := ""
	if len(messages) > 0 {
		prompt = messages[0].text()
	}

	agent := internal.Agent{
		ID:              internal.AgentID(internal.ProviderCodex, "", threadID),
		Name:            internal.TruncateString(prompt, 50),
		Provider:        internal.ProviderCodex,
		Status:          internal.StatusUnknown,
		CreatedAt:       formatUnix(thread.CreatedAt),
		RawID:           threadID,
		TaskDescription: prompt,
	}
	if len(runs.Data) > 0 {
		latest := runs.Data[0]
		agent.Status = codexRunStatus(latest.Status)
		if latest.CompletedAt != nil {
			agent.LastUpdated = formatUnix(*latest.CompletedAt)
		} else {
			agent.LastUpdated = formatUnix(latest.CreatedAt)
		}
	}
	return agent, nil
}

func (a *CodexAdapter) messages(ctx context.Context, threadID string, limit int) ([]codexMessage, error) {
	var list codexList[codexMessage]
	path := fmt.Sprintf("/threads/%s/messages?limit=%d&order=asc", url.PathEscape(threadID), limit)
	if err := a.api.GetJSON(ctx, path, &list); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return list.Data, nil
}

// Detail returns the thread with its full message history. A thread the
// API reports as missing is untracked.
func (a *CodexAdapter) Detail(ctx context.Context, rawID, locator string) (*internal.AgentDetail, error) {
	if err := requireKey(internal.ProviderCodex, a.apiKey); err != nil {
		return nil, err
	}

	agent, err := a.threadAgent(ctx, rawID)
	if err == nil {
		var messages []codexMessage
		messages, err = a.messages(ctx, rawID, 100)
		if err == nil {
			detail := &internal.AgentDetail{Agent: agent}
			for _, m := range messages {
				detail.Conversation = append(detail.Conversation, internal.ConversationMessage{
					Role:      m.Role,
					Content:   m.text(),
					Timestamp: formatUnix(m.CreatedAt),
				})
			}
			return detail, nil
		}
	}

	if client.IsNotFound(err) {
		a.Untrack(rawID)
	}
	return nil, &internal.ProviderError{Provider: internal.ProviderCodex, Op: "detail", Err: err}
}

type codexInputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Start creates a thread seeded with the prompt and tracks it
func (a *CodexAdapter) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	if err := requireKey(internal.ProviderCodex, a.apiKey); err != nil {
		return nil, err
	}

	payload := struct {
		Messages []codexInputMessage `json:"messages"`
	}{
		Messages: []codexInputMessage{{Role: "user", Content: req.Prompt}},
	}
	var thread codexThread
	if err := a.api.PostJSON(ctx, "/threads", payload, &thread); err != nil {
		return nil, &internal.ProviderError{Provider: internal.ProviderCodex, Op: "start", Err: err}
	}
	a.Track(thread.ID)

	return &StartResult{
		Success:        true,
		Message:        "Codex thread created",
		ConversationID: thread.ID,
	}, nil
}

// AddMessage appends a user message to a thread
func (a *CodexAdapter) AddMessage(ctx context.Context, threadID, content string) error {
	if err := requireKey(internal.ProviderCodex, a.apiKey); err != nil {
		return err
	}
	path := "/threads/" + url.PathEscape(threadID) + "/messages"
	if err := a.api.PostJSON(ctx, path, codexInputMessage{Role: "user", Content: content}, nil); err != nil {
		return &internal.ProviderError{Provider: internal.ProviderCodex, Op: "add message", Err: err}
	}
	return nil
}

// CreateRun starts an assistant run on a thread
func (a *CodexAdapter) CreateRun(ctx context.Context, threadID, assistantID string) (*CodexRun, error) {
	if err := requireKey(internal.ProviderCodex, a.apiKey); err != nil {
		return nil, err
	}
	path := "/threads/" + url.PathEscape(threadID) + "/runs"
	payload := struct {
		AssistantID string `json:"assistant_id"`
	}{AssistantID: assistantID}

	var run CodexRun
	if err := a.api.PostJSON(ctx, path, payload, &run); err != nil {
		return nil, &internal.ProviderError{Provider: internal.ProviderCodex, Op: "create run", Err: err}
	}
	return &run, nil
}
