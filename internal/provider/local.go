package provider

import (
	"path/filepath"

	"github.com/iksnae/agentsync/internal"
)

// scanSessions reads every session file of the projects under root and
// normalizes it. Unreadable or invalid files are skipped.
func scanSessions(n *internal.Normalizer, provider internal.Provider, root, scopePrefix string, subdirs ...string) ([]internal.Agent, error) {
	projects, err := internal.DetectProjects(root, subdirs...)
	if err != nil {
		return nil, err
	}

	var agents []internal.Agent
	for _, project := range projects {
		files, err := project.SessionFiles()
		if err != nil {
			internal.LogDebug("Skipping project %s: %v", project.Dir, err)
			continue
		}
		for _, path := range files {
			agent, ok := readLocalSession(n, provider, scopePrefix+project.Hash, path)
			if !ok {
				continue
			}
			if agent.ProjectName == "" {
				agent.ProjectName = project.Name
			}
			agents = append(agents, agent)
		}
	}
	return agents, nil
}

func readLocalSession(n *internal.Normalizer, provider internal.Provider, scope, path string) (internal.Agent, bool) {
	session, err := internal.ReadSessionFile(path)
	if err != nil {
		internal.LogDebug("Skipping %s session %s: %v", provider, path, err)
		return internal.Agent{}, false
	}
	return n.NormalizeSession(provider, scope, path, session), true
}

// localDetail loads the session file at path as a detail record. The
// project hash is the grandparent directory of the file.
func localDetail(n *internal.Normalizer, provider internal.Provider, scopePrefix, path string) (*internal.AgentDetail, error) {
	if path == "" {
		return nil, &internal.ConfigError{Field: "file_path", Reason: "required for local sessions"}
	}
	session, err := internal.ReadSessionFile(path)
	if err != nil {
		return nil, err
	}

	projectDir := filepath.Dir(filepath.Dir(path))
	hash := filepath.Base(projectDir)
	agent := n.NormalizeSession(provider, scopePrefix+hash, path, session)
	if agent.ProjectName == "" {
		agent.ProjectName = internal.ProjectNameFromHash(hash)
	}

	return &internal.AgentDetail{
		Agent:        agent,
		Conversation: n.Conversation(provider, session),
	}, nil
}
