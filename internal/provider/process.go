package provider

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/iksnae/agentsync/internal"
)

// SpawnFunc starts program detached in dir and returns its pid
type SpawnFunc func(program string, args []string, dir string) (int, error)

// SpawnDetached starts program with stdio detached and does not wait for it
func SpawnDetached(program string, args []string, dir string) (int, error) {
	cmd := exec.Command(program, args...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to spawn %s: %w", program, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		internal.LogDebug("Failed to release process %d: %v", pid, err)
	}
	return pid, nil
}

// CLICommand returns the platform-specific executable name of a CLI
func CLICommand(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".cmd"
	}
	return base
}

func startLocal(provider internal.Provider, spawn SpawnFunc, req StartRequest, program string, args []string) (*StartResult, error) {
	if req.ProjectPath == "" {
		return nil, &internal.ConfigError{Field: "project_path", Reason: "required to start a local session"}
	}
	if !internal.DirExists(req.ProjectPath) {
		return nil, &internal.ConfigError{Field: "project_path", Reason: fmt.Sprintf("%s is not a directory", req.ProjectPath)}
	}

	pid, err := spawn(CLICommand(program), args, req.ProjectPath)
	if err != nil {
		return nil, &internal.ProviderError{Provider: provider, Op: "start", Err: err}
	}
	internal.LogWith("provider", provider, "pid", pid).Info("started local session", "dir", req.ProjectPath)

	return &StartResult{
		Success: true,
		Message: fmt.Sprintf("%s session started with PID %d", provider, pid),
		PID:     pid,
	}, nil
}
