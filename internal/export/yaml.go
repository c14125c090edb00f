package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/iksnae/agentsync/internal"
)

// YAMLExporter writes the whole detail record as YAML
type YAMLExporter struct{}

func (e *YAMLExporter) Export(detail *internal.AgentDetail, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(detail)
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}
