package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/agentsync/internal"
)

// JSONExporter writes the whole detail record, pretty-printed
type JSONExporter struct{}

func (e *JSONExporter) Export(detail *internal.AgentDetail, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(detail)
}

func (e *JSONExporter) Extension() string {
	return "json"
}
