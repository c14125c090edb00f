package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/client"
)

const (
	julesAPIBase  = "https://jules.google.com/v1"
	julesPageSize = 100
)

// JulesAdapter talks to the Google Jules sessions API
type JulesAdapter struct {
	apiKey string
	api    *client.Client
}

// NewJulesAdapter creates the adapter. The key is sent in X-Goog-Api-Key.
func NewJulesAdapter(apiKey string, opts ...Option) *JulesAdapter {
	o := buildOptions(julesAPIBase, opts)
	clientOpts := append([]client.Option{client.WithAuth(client.APIKey("X-Goog-Api-Key", apiKey))}, o.clientOpts...)
	return &JulesAdapter{
		apiKey: apiKey,
		api:    client.New(o.baseURL, clientOpts...),
	}
}

func (a *JulesAdapter) Provider() internal.Provider {
	return internal.ProviderJules
}

type julesGithub struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch,omitempty"`
}

type julesSourceContext struct {
	Github *julesGithub `json:"github,omitempty"`
}

type julesFileChange struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	Additions *int   `json:"additions"`
	Deletions *int   `json:"deletions"`
}

type julesSession struct {
	ID            string              `json:"id"`
	Prompt        string              `json:"prompt"`
	Status        string              `json:"status"`
	SourceContext *julesSourceContext `json:"sourceContext"`
	Outputs       *struct {
		PullRequest  string            `json:"pullRequest"`
		FilesChanged []julesFileChange `json:"filesChanged"`
	} `json:"outputs"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type julesActivity struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func julesStatus(status string) internal.Status {
	switch status {
	case "PENDING", "QUEUED":
		return internal.StatusWaiting
	case "RUNNING", "IN_PROGRESS":
		return internal.StatusRunning
	case "COMPLETED", "SUCCEEDED":
		return internal.StatusCompleted
	case "STOPPED", "CANCELLED":
		return internal.StatusIdle
	case "FAILED", "ERROR":
		return internal.StatusError
	default:
		return internal.StatusUnknown
	}
}

// prNumberFromURL parses the trailing path segment of a pull request URL.
// Anything that is not a plain integer yields nil.
func prNumberFromURL(prURL string) *int {
	if prURL == "" {
		return nil
	}
	segments := strings.Split(prURL, "/")
	n, err := strconv.Atoi(segments[len(segments)-1])
	if err != nil {
		return nil
	}
	return &n
}

func (s julesSession) agent() internal.Agent {
	prompt := s.Prompt
	if prompt == "" {
		prompt = "Unnamed"
	}

	agent := internal.Agent{
		ID:              internal.AgentID(internal.ProviderJules, "", s.ID),
		Name:            internal.TruncateString(prompt, 50),
		Provider:        internal.ProviderJules,
		Status:          julesStatus(s.Status),
		LastUpdated:     s.UpdatedAt,
		CreatedAt:       s.CreatedAt,
		RawID:           s.ID,
		TaskDescription: s.Prompt,
	}
	if s.SourceContext != nil && s.SourceContext.Github != nil {
		gh := s.SourceContext.Github
		agent.ProjectPath = fmt.Sprintf("https://github.com/%s/%s", gh.Owner, gh.Repo)
		agent.ProjectName = gh.Repo
		agent.Branch = gh.Branch
	}
	if s.Outputs != nil {
		agent.PRURL = s.Outputs.PullRequest
		agent.PRNumber = prNumberFromURL(s.Outputs.PullRequest)
	}
	return agent
}

// List follows nextPageToken until the API returns an empty one
func (a *JulesAdapter) List(ctx context.Context) ([]internal.Agent, error) {
	if err := requireKey(internal.ProviderJules, a.apiKey); err != nil {
		return nil, err
	}

	var agents []internal.Agent
	pageToken := ""
	for {
		path := fmt.Sprintf("/sessions?pageSize=%d", julesPageSize)
		if pageToken != "" {
			path += "&pageToken=" + url.QueryEscape(pageToken)
		}

		var resp struct {
			Sessions      []julesSession `json:"sessions"`
			NextPageToken string         `json:"nextPageToken"`
		}
		if err := a.api.GetJSON(ctx, path, &resp); err != nil {
			return nil, &internal.ProviderError{Provider: internal.ProviderJules, Op: "list", Err: err}
		}
		for _, s := range resp.Sessions {
			agents = append(agents, s.agent())
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return agents, nil
}

// Detail adds activities and file changes. Failing to load activities
// leaves the conversation empty.
func (a *JulesAdapter) Detail(ctx context.Context, rawID, locator string) (*internal.AgentDetail, error) {
	if err := requireKey(internal.ProviderJules, a.apiKey); err != nil {
		return nil, err
	}

	path := "/sessions/" + url.PathEscape(rawID)
	var session julesSession
	if err := a.api.GetJSON(ctx, path, &session); err != nil {
		return nil, &internal.ProviderError{Provider: internal.ProviderJules, Op: "detail", Err: err}
	}

	detail := &internal.AgentDetail{Agent: session.agent()}

	var activities struct {
		Activities []julesActivity `json:"activities"`
	}
	if err := a.api.GetJSON(ctx, path+"/activities", &activities); err != nil {
		internal.LogDebug("Failed to fetch jules activities for %s: %v", rawID, err)
	} else {
		for _, act := range activities.Activities {
			detail.Conversation = append(detail.Conversation, internal.ConversationMessage{
				Role:      act.Type,
				Content:   act.Message,
				Timestamp: act.Timestamp,
			})
		}
	}

	if session.Outputs != nil {
		for _, f := range session.Outputs.FilesChanged {
			detail.FilesChanged = append(detail.FilesChanged, internal.FileChange{
				Path:       f.Path,
				ChangeType: f.Status,
				Additions:  f.Additions,
				Deletions:  f.Deletions,
			})
		}
	}
	return detail, nil
}

type julesCreateRequest struct {
	Prompt              string              `json:"prompt"`
	SourceContext       *julesSourceContext `json:"sourceContext,omitempty"`
	AutoCreatePR        *bool               `json:"autoCreatePr,omitempty"`
	RequirePlanApproval *bool               `json:"requirePlanApproval,omitempty"`
}

// Start creates a session. Repository is "owner/repo"; a value without a
// slash is taken as the repository name with an empty owner.
func (a *JulesAdapter) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	if err := requireKey(internal.ProviderJules, a.apiKey); err != nil {
		return nil, err
	}

	payload := julesCreateRequest{
		Prompt:              req.Prompt,
		AutoCreatePR:        req.AutoCreatePR,
		RequirePlanApproval: req.RequirePlanApproval,
	}
	if req.Repository != "" {
		gh := &julesGithub{Repo: req.Repository, Branch: req.Branch}
		if owner, repo, ok := strings.Cut(req.Repository, "/"); ok {
			gh.Owner, gh.Repo = owner, repo
		}
		payload.SourceContext = &julesSourceContext{Github: gh}
	}

	var session julesSession
	if err := a.api.PostJSON(ctx, "/sessions", payload, &session); err != nil {
		return nil, &internal.ProviderError{Provider: internal.ProviderJules, Op: "start", Err: err}
	}

	agent := session.agent()
	return &StartResult{
		Success: true,
		Message: "Jules session created",
		Agent:   &agent,
	}, nil
}

func (a *JulesAdapter) Stop(ctx context.Context, rawID string) error {
	return a.postAction(ctx, rawID, "stop")
}

// ApprovePlan approves the plan of a session waiting for approval
func (a *JulesAdapter) ApprovePlan(ctx context.Context, rawID string) error {
	return a.postAction(ctx, rawID, "approve")
}

func (a *JulesAdapter) postAction(ctx context.Context, rawID, action string) error {
	if err := requireKey(internal.ProviderJules, a.apiKey); err != nil {
		return err
	}
	path := "/sessions/" + url.PathEscape(rawID) + "/" + action
	if err := a.api.PostJSON(ctx, path, struct{}{}, nil); err != nil {
		return &internal.ProviderError{Provider: internal.ProviderJules, Op: action, Err: err}
	}
	return nil
}
