package export

import (
	"fmt"
	"io"

	"github.com/iksnae/agentsync/internal"
)

// Exporter writes an agent's detail in one format
type Exporter interface {
	Export(detail *internal.AgentDetail, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// FileName returns the export file name of detail for exporter
func FileName(detail *internal.AgentDetail, exporter Exporter) string {
	return fmt.Sprintf("%s.%s", detail.ID, exporter.Extension())
}
