package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/daemon"
	"github.com/iksnae/agentsync/internal/tasks"
	"github.com/spf13/cobra"
)

var daemonOnce bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Keep this machine's heartbeat and agent state published",
	Long: `Publish a heartbeat every heartbeat_interval and the aggregated agent
list every refresh_interval. Changes to local Gemini and Claude session
files trigger an early publish. Stops on SIGINT or SIGTERM.`,
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

		tasksPath := a.cfg.Paths.TasksFile()
		registry, err := tasks.Load(tasksPath)
		if err != nil {
			internal.LogWarn("Starting with an empty task list: %v", err)
			registry = tasks.NewRegistry()
		}

		d := daemon.New(daemonConfig(a.cfg, machineID, tasksPath), a.agg, fc, registry)

		if daemonOnce {
			if err := d.RunOnce(cmd.Context()); err != nil {
				return err
			}
			internal.PrintSuccess(cmd.OutOrStdout(), "Heartbeat and agent state published for "+machineID)
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		internal.LogInfo("Daemon started for %s (refresh %s, heartbeat %s)",
			machineID, a.cfg.RefreshInterval, a.cfg.HeartbeatInterval)
		err = d.Run(ctx)
		internal.LogInfo("Daemon stopped")
		return err
	},
}

func daemonConfig(cfg *internal.Config, machineID, tasksPath string) daemon.Config {
	watch := []string{cfg.Gemini.Root, cfg.Claude.Root}
	watch = append(watch, cfg.Gemini.ExtraRoots...)
	return daemon.Config{
		MachineID:         machineID,
		Providers:         cfg.Providers,
		RefreshInterval:   cfg.RefreshInterval,
		HeartbeatInterval: cfg.HeartbeatInterval,
		WatchDirs:         watch,
		TasksPath:         tasksPath,
	}
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().BoolVar(&daemonOnce, "once", false, "Publish once and exit")
}
