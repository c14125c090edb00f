package cmd

import (
	"fmt"
	"strings"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/provider"
	"github.com/spf13/cobra"
)

var (
	startPrompt       string
	startProject      string
	startRepo         string
	startBranch       string
	startRef          string
	startModel        string
	startAutoPR       bool
	startPlanApproval bool
	startJSON         bool
)

var startCmd = &cobra.Command{
	Use:   "start <provider>",
	Short: "Start a new agent",
	Long: `Start a new agent session on a provider.

Local providers (gemini, claude with --project) spawn the CLI detached in
the project directory. Cloud providers (cursor, jules) need --repo.
Claude without --project creates a Messages API conversation that is
tracked locally; codex creates and tracks a thread.`,
	Example: `  agentsync start gemini -p "add tests for the parser" --project ~/src/api
  agentsync start cursor -p "fix the login flake" --repo acme/web --auto-pr
  agentsync start jules -p "bump deps" --repo acme/web --plan-approval`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(startPrompt) == "" {
			return &internal.ConfigError{Field: "prompt", Reason: "use --prompt"}
		}

		a, err := loadApp()
		if err != nil {
			return err
		}
		adapter, err := a.adapter(args[0])
		if err != nil {
			return err
		}

		req := provider.StartRequest{
			Prompt:      startPrompt,
			ProjectPath: startProject,
			Repository:  startRepo,
			Branch:      startBranch,
			Ref:         startRef,
			Model:       startModel,
		}
		if cmd.Flags().Changed("auto-pr") {
			req.AutoCreatePR = &startAutoPR
		}
		if cmd.Flags().Changed("plan-approval") {
			req.RequirePlanApproval = &startPlanApproval
		}

		internal.LogDebug("Starting %s agent", adapter.Provider())
		result, err := adapter.Start(cmd.Context(), req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if startJSON {
			return writeJSON(out, result)
		}

		internal.PrintSuccess(out, result.Message)
		if result.PID > 0 {
			fmt.Fprintf(out, "   PID: %d\n", result.PID)
		}
		if result.ConversationID != "" {
			fmt.Fprintf(out, "   Conversation: %s\n", result.ConversationID)
		}
		if result.Agent != nil {
			fmt.Fprintf(out, "   Agent: %s\n", result.Agent.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().StringVarP(&startPrompt, "prompt", "p", "", "Task for the agent")
	startCmd.Flags().StringVar(&startProject, "project", "", "Project directory for local CLIs")
	startCmd.Flags().StringVar(&startRepo, "repo", "", "Repository (owner/repo) for cloud agents")
	startCmd.Flags().StringVar(&startBranch, "branch", "", "Branch for the agent's work")
	startCmd.Flags().StringVar(&startRef, "ref", "", "Git ref to start from")
	startCmd.Flags().StringVar(&startModel, "model", "", "Model override")
	startCmd.Flags().BoolVar(&startAutoPR, "auto-pr", false, "Open a pull request when done (cursor, jules)")
	startCmd.Flags().BoolVar(&startPlanApproval, "plan-approval", false, "Require plan approval before work starts (jules)")
	startCmd.Flags().BoolVar(&startJSON, "json", false, "Print the start result as JSON")
}
