package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/fleet"
	"github.com/spf13/cobra"
)

var syncJSON bool

var heartbeatCmd = &cobra.Command{
	Use:   "heartbeat",
	Short: "Send or list machine heartbeats",
}

var heartbeatSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Publish this machine's heartbeat",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		machineID, err := a.cfg.ResolveMachineID()
		if err != nil {
			return err
		}
		fc, closeFn, err := a.fleetClient()
		if err != nil {
			return err
		}
		defer closeFn()

		hb, err := fc.PublishHeartbeat(cmd.Context(), machineID)
		if err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Heartbeat sent for %s at %s", hb.MachineID, hb.Timestamp))
		return nil
	},
}

var heartbeatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List live machines",
	Long:  `List the machines whose heartbeat has not expired.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		fc, closeFn, err := a.fleetClient()
		if err != nil {
			return err
		}
		defer closeFn()

		heartbeats, err := fc.Heartbeats(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if syncJSON {
			return writeJSON(out, heartbeats)
		}
		if len(heartbeats) == 0 {
			fmt.Fprintln(out, headerStyle.Render("🖥  No live machines"))
			return nil
		}
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("🖥  %d live machine(s)", len(heartbeats))))
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("Machine")+"\t"+titleStyle.Render("Hostname")+"\t"+titleStyle.Render("Last seen")+"\t")
		now := time.Now()
		for _, hb := range heartbeats {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t\n", idStyle.Render(hb.MachineID), hb.Hostname, dateStyle.Render(relativeTime(hb.Timestamp, now)))
		}
		return w.Flush()
	},
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Publish or read agent state shared between machines",
}

var agentsPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish this machine's agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		machineID, err := a.cfg.ResolveMachineID()
		if err != nil {
			return err
		}
		fc, closeFn, err := a.fleetClient()
		if err != nil {
			return err
		}
		defer closeFn()

		resp := a.agg.ListAll(cmd.Context(), a.cfg.Providers)
		if err := fc.PublishAgents(cmd.Context(), machineID, fleet.StatesFromAgents(resp.Agents)); err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Published %d agent(s) for %s", resp.Total, machineID))
		return nil
	},
}

var agentsRemoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Show the agents published by every machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		fc, closeFn, err := a.fleetClient()
		if err != nil {
			return err
		}
		defer closeFn()

		machines, err := fc.AgentStates(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if syncJSON {
			return writeJSON(out, machines)
		}
		displayMachines(out, machines, time.Now())
		return nil
	},
}

func displayMachines(out io.Writer, machines []fleet.MachineAgents, now time.Time) {
	if len(machines) == 0 {
		fmt.Fprintln(out, headerStyle.Render("🖥  No published agent state"))
		return
	}
	for _, m := range machines {
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("🖥  %s (%d agent(s))", m.MachineID, len(m.Agents))))
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		for _, agent := range m.Agents {
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t\n",
				idStyle.Render(agent.ID), agent.Status, dateStyle.Render(relativeTime(agent.UpdatedAt, now)))
		}
		_ = w.Flush()
		fmt.Fprintln(out)
	}
}

var machineIDCmd = &cobra.Command{
	Use:   "machine-id",
	Short: "Print this machine's id, generating it on first use",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		id, err := a.cfg.ResolveMachineID()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	heartbeatCmd.AddCommand(heartbeatSendCmd, heartbeatListCmd)
	agentsCmd.AddCommand(agentsPublishCmd, agentsRemoteCmd)
	rootCmd.AddCommand(heartbeatCmd, agentsCmd, machineIDCmd)

	heartbeatListCmd.Flags().BoolVar(&syncJSON, "json", false, "Print as JSON")
	agentsRemoteCmd.Flags().BoolVar(&syncJSON, "json", false, "Print as JSON")
}
