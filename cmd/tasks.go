package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agentsync/internal"
	"github.com/iksnae/agentsync/internal/tasks"
	"github.com/spf13/cobra"
)

var tasksJSON bool

var taskStateColors = map[tasks.State]lipgloss.Color{
	tasks.StatePending:   "243",
	tasks.StateRunning:   "39",
	tasks.StateCompleted: "42",
	tasks.StateFailed:    "196",
	tasks.StateCancelled: "214",
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List background tasks recorded by the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, registry, err := loadTasks()
		if err != nil {
			return err
		}
		list := registry.List()

		out := cmd.OutOrStdout()
		if tasksJSON {
			return writeJSON(out, list)
		}
		if len(list) == 0 {
			fmt.Fprintln(out, headerStyle.Render("🗂  No tasks"))
			return nil
		}

		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("🗂  %d task(s)", len(list))))
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Status")+"\t"+titleStyle.Render("Started")+"\t"+titleStyle.Render("Message")+"\t")
		now := time.Now()
		for _, task := range list {
			state := lipgloss.NewStyle().Foreground(taskStateColors[task.State]).Render(string(task.State))
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
				idStyle.Render(task.ID), task.Name, state, dateStyle.Render(relativeTime(task.StartedAt, now)), task.Message)
		}
		return w.Flush()
	},
}

var tasksCancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Mark a pending or running task as cancelled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, registry, err := loadTasks()
		if err != nil {
			return err
		}
		if _, ok := registry.Get(args[0]); !ok {
			return fmt.Errorf("task not found: %s", args[0])
		}
		if !registry.Cancel(args[0]) {
			return fmt.Errorf("task %s has already finished", args[0])
		}
		if err := registry.Save(path); err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), "Cancelled "+args[0])
		return nil
	},
}

var tasksClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove finished tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, registry, err := loadTasks()
		if err != nil {
			return err
		}
		removed := registry.ClearFinished()
		if err := registry.Save(path); err != nil {
			return err
		}
		internal.PrintInfo(cmd.OutOrStdout(), fmt.Sprintf("Removed %d finished task(s)", removed))
		return nil
	},
}

func loadTasks() (string, *tasks.Registry, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return "", nil, err
	}
	path := cfg.Paths.TasksFile()
	registry, err := tasks.Load(path)
	if err != nil {
		return "", nil, err
	}
	return path, registry, nil
}

func init() {
	tasksCmd.AddCommand(tasksCancelCmd, tasksClearCmd)
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.Flags().BoolVar(&tasksJSON, "json", false, "Print tasks as JSON")
}
