package export

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/iksnae/agentsync/internal"
)

func TestYAMLExporter_Export(t *testing.T) {
	detail := internal.CreateTestAgentDetail(internal.ProviderCodex, "thread_1")

	var buf bytes.Buffer
	if err := (&YAMLExporter{}).Export(detail, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	output := buf.String()

	var decoded internal.AgentDetail
	if err := yaml.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("Output is not valid YAML: %v\nOutput: %s", err, output)
	}
	if decoded.ID != "codex-thread_1" || decoded.Provider != internal.ProviderCodex {
		t.Errorf("decoded agent = %+v", decoded.Agent)
	}
	if len(decoded.FilesChanged) != 1 || *decoded.FilesChanged[0].Additions != 3 {
		t.Errorf("decoded files = %+v", decoded.FilesChanged)
	}
	for _, want := range []string{"id: codex-thread_1", "change_type: modified", "role: assistant"} {
		if !strings.Contains(output, want) {
			t.Errorf("Output should contain %q:\n%s", want, output)
		}
	}
}

func TestYAMLExporter_Extension(t *testing.T) {
	if got := (&YAMLExporter{}).Extension(); got != "yaml" {
		t.Errorf("Extension() = %v, want yaml", got)
	}
}
