package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iksnae/agentsync/testutil"
)

// testEnv points every agentsync path at temp directories and selects the
// SQLite KV backend
type testEnv struct {
	home       string
	geminiRoot string
	stateDir   string
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	home := testutil.CreateTempDir(t)
	env := testEnv{
		home:       home,
		geminiRoot: filepath.Join(home, ".gemini", "tmp"),
		stateDir:   filepath.Join(home, "state"),
	}

	t.Setenv("HOME", home)
	t.Setenv("AGENTSYNC_CONFIG_DIR", filepath.Join(home, "config"))
	t.Setenv("AGENTSYNC_STATE_DIR", env.stateDir)
	t.Setenv("AGENTSYNC_KV_BACKEND", "sqlite")
	t.Setenv("AGENTSYNC_KV_PATH", filepath.Join(env.stateDir, "kv.db"))
	t.Setenv("AGENTSYNC_PROVIDERS", "gemini")
	t.Setenv("AGENTSYNC_MACHINE_ID", "test-machine")
	for _, key := range []string{"ANTHROPIC_API_KEY", "CURSOR_API_KEY", "OPENAI_API_KEY", "JULES_API_KEY"} {
		t.Setenv(key, "")
	}
	return env
}

// withGeminiSession writes the sample session as gemini-p1-s1
func (e testEnv) withGeminiSession(t *testing.T) {
	t.Helper()
	testutil.CreateSessionFixture(t, e.geminiRoot, "p1", "chats", "s1", testutil.SampleSession())
}

// runCommand executes the root command with args and returns its stdout.
// Flag values are reset first since cobra keeps them between executions.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	err := rootCmd.Execute()
	return stdout.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}
