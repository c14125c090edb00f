package provider

import (
	"context"

	"github.com/iksnae/agentsync/internal"
)

// GeminiAdapter discovers Gemini CLI sessions under ~/.gemini/tmp and any
// extra roots. Each project directory with a chats/ subdirectory is one
// project; project directories reachable from several roots are scanned
// once.
type GeminiAdapter struct {
	roots []string
	opts  *options
}

// NewGeminiAdapter creates an adapter scanning root followed by extraRoots
func NewGeminiAdapter(root string, extraRoots []string, opts ...Option) *GeminiAdapter {
	return &GeminiAdapter{
		roots: append([]string{root}, extraRoots...),
		opts:  buildOptions("", opts),
	}
}

func (a *GeminiAdapter) Provider() internal.Provider {
	return internal.ProviderGemini
}

func (a *GeminiAdapter) List(ctx context.Context) ([]internal.Agent, error) {
	seen := make(map[string]bool)
	var agents []internal.Agent

	for _, root := range a.roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if root == "" || !internal.DirExists(root) {
			continue
		}

		projects, err := internal.DetectProjects(root, "chats")
		if err != nil {
			return nil, &internal.ProviderError{Provider: internal.ProviderGemini, Op: "list", Err: err}
		}
		for _, project := range projects {
			if seen[project.Dir] {
				continue
			}
			seen[project.Dir] = true

			files, err := project.SessionFiles()
			if err != nil {
				internal.LogDebug("Skipping project %s: %v", project.Dir, err)
				continue
			}
			for _, path := range files {
				if agent, ok := readLocalSession(a.opts.normalizer, internal.ProviderGemini, project.Hash, path); ok {
					agents = append(agents, agent)
				}
			}
		}
	}

	agents = internal.NewDeduplicator().Deduplicate(agents)
	internal.SortByLastUpdated(agents)
	return agents, nil
}

func (a *GeminiAdapter) Detail(ctx context.Context, rawID, locator string) (*internal.AgentDetail, error) {
	return localDetail(a.opts.normalizer, internal.ProviderGemini, "", locator)
}

// Start runs `gemini -p <prompt> -y` detached in the project directory
func (a *GeminiAdapter) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	return startLocal(internal.ProviderGemini, a.opts.spawn, req, "gemini", []string{"-p", req.Prompt, "-y"})
}
