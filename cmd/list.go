package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/aggregator"
	"github.com/iksnae/agentsync/internal/provider"
	"github.com/spf13/cobra"
)

var (
	listJSON          bool
	listClearTracking bool
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	projectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)

	statusColors = map[internal.Status]lipgloss.Color{
		internal.StatusRunning:   "42",
		internal.StatusWaiting:   "214",
		internal.StatusIdle:      "39",
		internal.StatusCompleted: "243",
		internal.StatusError:     "196",
	}
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents from all enabled providers",
	Long: `List the agents of every enabled provider, newest first.

Providers that fail (missing credentials, network errors) are skipped.
Run with --verbose to see why.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}

		if listClearTracking {
			if err := a.state.ClearCache(); err != nil {
				internal.LogWarn("Failed to clear tracking state: %v", err)
			} else {
				internal.LogInfo("Tracking state cleared")
			}
			a.registry = provider.NewRegistryFromConfig(a.cfg, a.state)
			a.agg = aggregator.New(a.registry)
		}

		resp := a.agg.ListAll(cmd.Context(), a.cfg.Providers)
		out := cmd.OutOrStdout()
		if listJSON {
			return writeJSON(out, resp)
		}
		displayAgents(out, resp.Agents, time.Now())
		return nil
	},
}

func displayAgents(out io.Writer, agents []internal.Agent, now time.Time) {
	if len(agents) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 No agents found"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d agent(s)", len(agents))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Status")+"\t"+titleStyle.Render("Project")+"\t"+titleStyle.Render("Updated")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

	for _, agent := range agents {
		name := agent.Name
		if name == "" {
			name = "Untitled"
		}
		if len(name) > 50 {
			name = name[:47] + "..."
		}

		project := agent.ProjectName
		if project == "" {
			project = "—"
		}
		if len(project) > 25 {
			project = project[:22] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(agent.ID),
			name,
			renderStatus(agent.Status),
			projectStyle.Render(project),
			dateStyle.Render(relativeTime(agent.LastUpdated, now)),
		)
	}

	_ = w.Flush()
	fmt.Fprintln(out)
	fmt.Fprintln(out, idStyle.Render("💡 Tip: Use the ID with `agentsync show <id>`"))
}

func renderStatus(status internal.Status) string {
	color, ok := statusColors[status]
	if !ok {
		color = "240"
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(status))
}

// relativeTime renders an RFC3339 timestamp as "3 minutes ago"
func relativeTime(ts string, now time.Time) string {
	if ts == "" {
		return "—"
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print the aggregate response as JSON")
	listCmd.Flags().BoolVar(&listClearTracking, "clear-tracking", false, "Forget tracked cloud sessions before listing")
}
