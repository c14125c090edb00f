package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/agentsync/internal"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	configPath   string
	providerList string
	version      string = "dev"
	commit       string = "unknown"
	date         string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agentsync",
	Short: "Track AI coding agents across providers and machines",
	Long: `agentsync collects the sessions of your AI coding assistants into one list
and shares their state with your other machines through a KV store.

Supported providers:
  • gemini  - local Gemini CLI sessions
  • claude  - local Claude Code sessions and Messages API conversations
  • cursor  - Cursor background agents
  • codex   - tracked OpenAI threads
  • jules   - Jules sessions

Quick Start:
  agentsync list                      # List agents from all providers
  agentsync show <agent-id>           # View an agent's conversation
  agentsync start cursor -p "..."     # Start a new agent
  agentsync daemon                    # Publish heartbeats and agent state`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		internal.PrintError(os.Stderr, fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/agentsync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&providerList, "providers", "", "Comma-separated providers to enable (overrides config)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
