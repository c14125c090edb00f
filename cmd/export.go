package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [agent-id...]",
	Short: "Export agent conversations to files",
	Long: `Export agent details to various formats (jsonl, md, yaml, json).

Without arguments every listed agent is exported. Agents whose detail
cannot be fetched are skipped with a warning.
Use 'agentsync list' to see available agent IDs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		a, err := loadApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var details []*internal.AgentDetail
		steps := []internal.ProgressStep{
			{
				Message: "Fetching agent details",
				Fn: func() error {
					agents := a.agg.ListAll(ctx, a.cfg.Providers).Agents
					if len(args) > 0 {
						agents, err = selectAgents(agents, args)
						if err != nil {
							return err
						}
					}
					for _, agent := range agents {
						detail, err := a.agg.Detail(ctx, agent.Provider, agent.RawID, agent.FilePath)
						if err != nil {
							internal.PrintWarning(cmd.ErrOrStderr(), fmt.Sprintf("Skipping %s: %v", agent.ID, err))
							continue
						}
						details = append(details, detail)
					}
					return nil
				},
			},
			{
				Message: fmt.Sprintf("Writing files to %s", outputDir),
				Fn: func() error {
					if err := os.MkdirAll(outputDir, 0755); err != nil {
						return fmt.Errorf("failed to create output directory: %w", err)
					}
					for _, detail := range details {
						if err := writeExport(exporter, detail, filepath.Join(outputDir, export.FileName(detail, exporter))); err != nil {
							return err
						}
					}
					return nil
				},
			},
		}
		if err := internal.ShowProgressWithSteps(ctx, steps); err != nil {
			return err
		}

		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Export complete: %d agent(s) exported to %s", len(details), outputDir))
		return nil
	},
}

// selectAgents returns the agents named by ids, in argument order
func selectAgents(agents []internal.Agent, ids []string) ([]internal.Agent, error) {
	byID := make(map[string]internal.Agent, len(agents))
	for _, agent := range agents {
		byID[agent.ID] = agent
	}
	selected := make([]internal.Agent, 0, len(ids))
	for _, id := range ids {
		agent, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("agent not found: %s", id)
		}
		selected = append(selected, agent)
	}
	return selected, nil
}

func writeExport(exporter export.Exporter, detail *internal.AgentDetail, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := exporter.Export(detail, file); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to export %s: %w", detail.ID, err)
	}
	return file.Close()
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
}
