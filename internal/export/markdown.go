package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/agentsync/internal"
)

// MarkdownExporter renders a readable transcript
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(detail *internal.AgentDetail, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", detail.Name)

	_, _ = fmt.Fprintf(w, "**Agent:** %s  \n", detail.ID)
	_, _ = fmt.Fprintf(w, "**Provider:** %s  \n", detail.Provider)
	_, _ = fmt.Fprintf(w, "**Status:** %s  \n", detail.Status)
	if detail.ProjectPath != "" {
		_, _ = fmt.Fprintf(w, "**Project:** %s  \n", detail.ProjectPath)
	}
	if detail.Branch != "" {
		_, _ = fmt.Fprintf(w, "**Branch:** %s  \n", detail.Branch)
	}
	if detail.PRURL != "" {
		_, _ = fmt.Fprintf(w, "**Pull request:** %s  \n", detail.PRURL)
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(detail.Conversation))

	if detail.TaskDescription != "" && detail.TaskDescription != detail.Name {
		_, _ = fmt.Fprintf(w, "> %s\n\n", strings.ReplaceAll(detail.TaskDescription, "\n", "\n> "))
	}

	if len(detail.FilesChanged) > 0 {
		_, _ = fmt.Fprintf(w, "## Files changed\n\n")
		for _, f := range detail.FilesChanged {
			_, _ = fmt.Fprintf(w, "- `%s` (%s)%s\n", f.Path, f.ChangeType, lineDelta(f))
		}
		_, _ = fmt.Fprintf(w, "\n")
	}

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Conversation\n\n")

	for i, msg := range detail.Conversation {
		timestamp := ""
		if msg.Timestamp != "" {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp)
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", msg.Role, timestamp, escapeMarkdown(msg.Content))

		if i < len(detail.Conversation)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func lineDelta(f internal.FileChange) string {
	if f.Additions == nil && f.Deletions == nil {
		return ""
	}
	add, del := 0, 0
	if f.Additions != nil {
		add = *f.Additions
	}
	if f.Deletions != nil {
		del = *f.Deletions
	}
	return fmt.Sprintf(" +%d -%d", add, del)
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

func (e *MarkdownExporter) Extension() string {
	return "md"
}
