package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/agentsync/internal"
)

// JSONLExporter writes one conversation message per line
type JSONLExporter struct{}

type jsonlLine struct {
	Agent     string `json:"agent"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

func (e *JSONLExporter) Export(detail *internal.AgentDetail, w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, msg := range detail.Conversation {
		line := jsonlLine{
			Agent:     detail.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}
	return nil
}

func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
