package cmd

import (
	"fmt"
	"strings"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/provider"
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop <agent-id>",
	Short: "Stop a running cloud agent",
	Long:  `Stop a cloud agent. Supported by cursor and jules.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		p, rawID, err := splitAgentID(args[0])
		if err != nil {
			return err
		}
		adapter, err := a.adapter(string(p))
		if err != nil {
			return err
		}
		stopper, ok := adapter.(provider.Stopper)
		if !ok {
			return fmt.Errorf("provider %s does not support stopping agents", p)
		}
		if err := stopper.Stop(cmd.Context(), rawID); err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), "Stopped "+args[0])
		return nil
	},
}

// splitAgentID splits a normalized remote agent id into provider and raw id
func splitAgentID(id string) (internal.Provider, string, error) {
	name, rawID, ok := strings.Cut(id, "-")
	if !ok || rawID == "" {
		return "", "", fmt.Errorf("invalid agent id %q: expected <provider>-<id>", id)
	}
	p, err := internal.ParseProvider(name)
	if err != nil {
		return "", "", err
	}
	return p, rawID, nil
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
