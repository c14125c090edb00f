package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agentsync/internal"
	"github.com/spf13/cobra"
)

var (
	limit    int
	since    string
	showJSON bool
)

var (
	// Styles for show command
	agentHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	agentMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <agent-id>",
	Short: "Show the conversation of an agent",
	Long:  `Display an agent's metadata, changed files and conversation.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var sinceTime *time.Time
		if since != "" {
			parsed, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
			}
			sinceTime = &parsed
		}

		a, err := loadApp()
		if err != nil {
			return err
		}
		detail, err := a.detail(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if showJSON {
			return writeJSON(out, detail)
		}

		displayAgentHeader(out, detail)

		messages := filterMessages(detail.Conversation, sinceTime)
		total := len(messages)
		if limit > 0 && limit < total {
			messages = messages[:limit]
		}
		for i, msg := range messages {
			displayMessage(out, i+1, msg, total)
		}

		if limit > 0 && limit < total {
			fmt.Fprintln(out)
			fmt.Fprintln(out, lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Italic(true).
				Render(fmt.Sprintf("... (%d more message(s))", total-limit)))
		}
		return nil
	},
}

// filterMessages keeps messages at or after since. Messages without a
// parseable timestamp are dropped when filtering.
func filterMessages(messages []internal.ConversationMessage, since *time.Time) []internal.ConversationMessage {
	if since == nil {
		return messages
	}
	filtered := make([]internal.ConversationMessage, 0, len(messages))
	for _, msg := range messages {
		t, err := time.Parse(time.RFC3339, msg.Timestamp)
		if err != nil {
			continue
		}
		if !t.Before(*since) {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

func displayAgentHeader(out io.Writer, detail *internal.AgentDetail) {
	fmt.Fprintln(out, agentHeaderStyle.Render(fmt.Sprintf("💬 %s", detail.Name)))

	metaParts := []string{
		fmt.Sprintf("Provider: %s", detail.Provider),
		fmt.Sprintf("Status: %s", detail.Status),
	}
	if detail.CreatedAt != "" {
		metaParts = append(metaParts, fmt.Sprintf("Created: %s", detail.CreatedAt))
	}
	metaParts = append(metaParts, fmt.Sprintf("Messages: %d", len(detail.Conversation)))
	if detail.ProjectPath != "" {
		metaParts = append(metaParts, fmt.Sprintf("Project: %s", detail.ProjectPath))
	}
	if detail.Branch != "" {
		metaParts = append(metaParts, fmt.Sprintf("Branch: %s", detail.Branch))
	}
	if detail.PRURL != "" {
		metaParts = append(metaParts, fmt.Sprintf("PR: %s", detail.PRURL))
	}
	fmt.Fprintln(out, agentMetaStyle.Render(strings.Join(metaParts, " • ")))

	if len(detail.FilesChanged) > 0 {
		fmt.Fprintln(out, titleStyle.Render("Files changed"))
		for _, fc := range detail.FilesChanged {
			line := fmt.Sprintf("  %s (%s)", fc.Path, fc.ChangeType)
			if fc.Additions != nil && fc.Deletions != nil {
				line += fmt.Sprintf(" +%d -%d", *fc.Additions, *fc.Deletions)
			}
			fmt.Fprintln(out, line)
		}
	}
	fmt.Fprintln(out)
}

func displayMessage(out io.Writer, index int, msg internal.ConversationMessage, total int) {
	var actorStyle lipgloss.Style
	var actorLabel string

	switch msg.Role {
	case "user":
		actorStyle = userMessageStyle
		actorLabel = "👤 User"
	case "assistant":
		actorStyle = assistantMessageStyle
		actorLabel = "🤖 Assistant"
	default:
		actorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
		actorLabel = fmt.Sprintf("🔧 %s", msg.Role)
	}

	header := actorStyle.Render(actorLabel) + " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	if msg.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339, msg.Timestamp); err == nil {
			header += " " + timestampStyle.Render(t.Format("15:04:05"))
		} else {
			header += " " + timestampStyle.Render(msg.Timestamp)
		}
	}
	fmt.Fprintln(out, header)

	content := strings.TrimSpace(msg.Content)
	if content != "" {
		fmt.Fprintln(out, messageContentStyle.Render(wrapText(content, 80)))
	} else {
		fmt.Fprintln(out, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
	}
	fmt.Fprintln(out)
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			switch {
			case currentLine == "":
				currentLine = word
			case len(currentLine)+len(word)+1 > width:
				wrapped = append(wrapped, currentLine)
				currentLine = word
			default:
				currentLine += " " + word
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of messages to show")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (RFC3339)")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the agent detail as JSON")
}
