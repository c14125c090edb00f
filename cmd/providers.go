package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/provider"
	"github.com/spf13/cobra"
)

var (
	reposJSON        bool
	messageAssistant string
)

var approveCmd = &cobra.Command{
	Use:   "approve <agent-id>",
	Short: "Approve the plan of a Jules session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		jules, err := julesAdapter(a)
		if err != nil {
			return err
		}
		if err := jules.ApprovePlan(cmd.Context(), rawAgentID(internal.ProviderJules, args[0])); err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), "Plan approved")
		return nil
	},
}

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List repositories Cursor agents can run on",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		adapter, err := a.adapter(string(internal.ProviderCursor))
		if err != nil {
			return err
		}
		cursor, ok := adapter.(*provider.CursorAdapter)
		if !ok {
			return fmt.Errorf("unexpected cursor adapter %T", adapter)
		}

		repos, err := cursor.Repositories(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if reposJSON {
			return writeJSON(out, repos)
		}

		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📦 %d repositor(ies)", len(repos))))
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		for _, repo := range repos {
			visibility := "public"
			if repo.Private {
				visibility = "private"
			}
			name := repo.FullName
			if name == "" {
				name = repo.Name
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t\n", name, dateStyle.Render(visibility), idStyle.Render(repo.HTMLURL))
		}
		return w.Flush()
	},
}

var messageCmd = &cobra.Command{
	Use:   "message <thread-id> <content>",
	Short: "Add a message to a Codex thread",
	Long: `Append a user message to a tracked Codex thread. With --assistant, also
start an assistant run on the thread.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		codex, err := codexAdapter(a)
		if err != nil {
			return err
		}
		threadID := rawAgentID(internal.ProviderCodex, args[0])
		if err := codex.AddMessage(cmd.Context(), threadID, args[1]); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		internal.PrintSuccess(out, "Message added")

		if messageAssistant != "" {
			run, err := codex.CreateRun(cmd.Context(), threadID, messageAssistant)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "   Run: %s (%s)\n", run.ID, run.Status)
		}
		return nil
	},
}

var trackCmd = &cobra.Command{
	Use:   "track <thread-id>",
	Short: "Track an existing Codex thread",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		codex, err := codexAdapter(a)
		if err != nil {
			return err
		}
		threadID := rawAgentID(internal.ProviderCodex, args[0])
		codex.Track(threadID)
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Tracking %s (%d/%d tracked)",
			threadID, codex.Tracking().Len(), codex.Tracking().Capacity()))
		return nil
	},
}

func julesAdapter(a *app) (*provider.JulesAdapter, error) {
	adapter, err := a.adapter(string(internal.ProviderJules))
	if err != nil {
		return nil, err
	}
	jules, ok := adapter.(*provider.JulesAdapter)
	if !ok {
		return nil, fmt.Errorf("unexpected jules adapter %T", adapter)
	}
	return jules, nil
}

func codexAdapter(a *app) (*provider.CodexAdapter, error) {
	adapter, err := a.adapter(string(internal.ProviderCodex))
	if err != nil {
		return nil, err
	}
	codex, ok := adapter.(*provider.CodexAdapter)
	if !ok {
		return nil, fmt.Errorf("unexpected codex adapter %T", adapter)
	}
	return codex, nil
}

func init() {
	rootCmd.AddCommand(approveCmd, reposCmd, messageCmd, trackCmd)
	reposCmd.Flags().BoolVar(&reposJSON, "json", false, "Print repositories as JSON")
	messageCmd.Flags().StringVar(&messageAssistant, "assistant", "", "Assistant id to start a run with after adding the message")
}
