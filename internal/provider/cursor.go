package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/client"
)

const cursorAPIBase = "https://api.cursor.com/v1"

// CursorAdapter talks to the Cursor background-agents API
type CursorAdapter struct {
	apiKey string
	api    *client.Client
}

// NewCursorAdapter creates the adapter. The API key is sent as the basic
// auth username with an empty password.
func NewCursorAdapter(apiKey string, opts ...Option) *CursorAdapter {
	o := buildOptions(cursorAPIBase, opts)
	clientOpts := append([]client.Option{client.WithAuth(client.Basic(apiKey, ""))}, o.clientOpts...)
	return &CursorAdapter{
		apiKey: apiKey,
		api:    client.New(o.baseURL, clientOpts...),
	}
}

func (a *CursorAdapter) Provider() internal.Provider {
	return internal.ProviderCursor
}

type cursorAgent struct {
	ID         string `json:"id"`
	Prompt     string `json:"prompt"`
	Status     string `json:"status"`
	Repository string `json:"repository"`
	Branch     string `json:"branch"`
	Ref        string `json:"ref"`
	PRNumber   *int   `json:"prNumber"`
	PRURL      string `json:"prUrl"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

type cursorActivity struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type cursorFileChange struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	Additions *int   `json:"additions"`
	Deletions *int   `json:"deletions"`
}

type cursorAgentDetail struct {
	cursorAgent
	Activities   []cursorActivity   `json:"activities"`
	FilesChanged []cursorFileChange `json:"filesChanged"`
}

// CursorRepository is a repository the Cursor account can run agents on
type CursorRepository struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	HTMLURL  string `json:"htmlUrl"`
	Private  bool   `json:"private"`
}

func cursorStatus(status string) internal.Status {
	switch status {
	case "pending":
		return internal.StatusWaiting
	case "running":
		return internal.StatusRunning
	case "completed":
		return internal.StatusCompleted
	case "stopped", "failed":
		return internal.StatusError
	default:
		return internal.StatusUnknown
	}
}

func (c cursorAgent) agent() internal.Agent {
	prompt := c.Prompt
	if prompt == "" {
		prompt = "Unnamed"
	}

	agent := internal.Agent{
		ID:              internal.AgentID(internal.ProviderCursor, "", c.ID),
		Name:            internal.TruncateString(prompt, 50),
		Provider:        internal.ProviderCursor,
		Status:          cursorStatus(c.Status),
		ProjectPath:     c.Repository,
		Branch:          c.Branch,
		PRNumber:        c.PRNumber,
		PRURL:           c.PRURL,
		LastUpdated:     c.UpdatedAt,
		CreatedAt:       c.CreatedAt,
		RawID:           c.ID,
		TaskDescription: c.Prompt,
	}
	if agent.Branch == "" {
		agent.Branch = c.Ref
	}
	if c.Repository != "" {
		segments := strings.Split(strings.TrimRight(c.Repository, "/"), "/")
		agent.ProjectName = segments[len(segments)-1]
	}
	if agent.PRURL == "" && c.PRNumber != nil && c.Repository != "" {
		agent.PRURL = fmt.Sprintf("https://github.com/%s/pull/%d", c.Repository, *c.PRNumber)
	}
	return agent
}

func (a *CursorAdapter) List(ctx context.Context) ([]internal.Agent, error) {
	if err := requireKey(internal.ProviderCursor, a.apiKey); err != nil {
		return nil, err
	}

	var resp struct {
		Agents []cursorAgent `json:"agents"`
	}
	if err := a.api.GetJSON(ctx, "/agents?limit=100", &resp); err != nil {
		return nil, &internal.ProviderError{Provider: internal.ProviderCursor, Op: "list", Err: err}
	}

	agents := make([]internal.Agent, 0, len(resp.Agents))
	for _, c := range resp.Agents {
		agents = append(agents, c.agent())
	}
	return agents, nil
}

func (a *CursorAdapter) Detail(ctx context.Context, rawID, locator string) (*internal.AgentDetail, error) {
	if err := requireKey(internal.ProviderCursor, a.apiKey); err != nil {
		return nil, err
	}

	var resp cursorAgentDetail
	if err := a.api.GetJSON(ctx, "/agents/"+url.PathEscape(rawID), &resp); err != nil {
		return nil, &internal.ProviderError{Provider: internal.ProviderCursor, Op: "detail", Err: err}
	}

	detail := &internal.AgentDetail{Agent: resp.agent()}
	for _, act := range resp.Activities {
		detail.Conversation = append(detail.Conversation, internal.ConversationMessage{
			Role:      act.Type,
			Content:   act.Message,
			Timestamp: act.Timestamp,
		})
	}
	for _, f := range resp.FilesChanged {
		detail.FilesChanged = append(detail.FilesChanged, internal.FileChange{
			Path:       f.Path,
			ChangeType: f.Status,
			Additions:  f.Additions,
			Deletions:  f.Deletions,
		})
	}
	return detail, nil
}

type cursorCreateRequest struct {
	Prompt       string `json:"prompt"`
	Repository   string `json:"repository,omitempty"`
	Ref          string `json:"ref,omitempty"`
	AutoCreatePR *bool  `json:"autoCreatePr,omitempty"`
	BranchName   string `json:"branchName,omitempty"`
	Model        string `json:"model,omitempty"`
}

func (a *CursorAdapter) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	if err := requireKey(internal.ProviderCursor, a.apiKey); err != nil {
		return nil, err
	}

	payload := cursorCreateRequest{
		Prompt:       req.Prompt,
		Repository:   req.Repository,
		Ref:          req.Ref,
		AutoCreatePR: req.AutoCreatePR,
		BranchName:   req.Branch,
		Model:        req.Model,
	}
	var created cursorAgent
	if err := a.api.PostJSON(ctx, "/agents", payload, &created); err != nil {
		return nil, &internal.ProviderError{Provider: internal.ProviderCursor, Op: "start", Err: err}
	}

	agent := created.agent()
	return &StartResult{
		Success: true,
		Message: "Cursor agent created",
		Agent:   &agent,
	}, nil
}

func (a *CursorAdapter) Stop(ctx context.Context, rawID string) error {
	if err := requireKey(internal.ProviderCursor, a.apiKey); err != nil {
		return err
	}
	if err := a.api.PostJSON(ctx, "/agents/"+url.PathEscape(rawID)+"/stop", struct{}{}, nil); err != nil {
		return &internal.ProviderError{Provider: internal.ProviderCursor, Op: "stop", Err: err}
	}
	return nil
}

// Repositories lists the repositories available to the account
func (a *CursorAdapter) Repositories(ctx context.Context) ([]CursorRepository, error) {
	if err := requireKey(internal.ProviderCursor, a.apiKey); err != nil {
		return nil, err
	}
	var resp struct {
		Repositories []CursorRepository `json:"repositories"`
	}
	if err := a.api.GetJSON(ctx, "/repositories", &resp); err != nil {
		return nil, &internal.ProviderError{Provider: internal.ProviderCursor, Op: "repositories", Err: err}
	}
	return resp.Repositories, nil
}
