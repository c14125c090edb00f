package cmd

import (
	"fmt"
	"time"

	"github.com/iksnae/agentsync/internal"
	"github.com/spf13/cobra"
)

var (
	kvTTL    time.Duration
	kvPrefix string
	kvLimit  int
)

var kvCmd = &cobra.Command{
	Use:   "kv",
	Short: "Read and write raw keys in the sync store",
	Long: `Low-level access to the KV store used for heartbeats and agent state.
The backend is selected by kv.backend in the config (cloudflare or sqlite).`,
}

var kvGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		store, closeFn, err := a.openStore()
		if err != nil {
			return err
		}
		defer closeFn()

		value, ok, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("key not found: %s", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var kvSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		store, closeFn, err := a.openStore()
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.Set(cmd.Context(), args[0], args[1], kvTTL); err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), "Set "+args[0])
		return nil
	},
}

var kvDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		store, closeFn, err := a.openStore()
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), "Deleted "+args[0])
		return nil
	},
}

var kvListCmd = &cobra.Command{
	Use:   "list",
	Short: "List keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		store, closeFn, err := a.openStore()
		if err != nil {
			return err
		}
		defer closeFn()

		keys, err := store.ListKeys(cmd.Context(), kvPrefix, kvLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, key := range keys {
			if key.Expiration > 0 {
				fmt.Fprintf(out, "%s\t%s\n", key.Name, dateStyle.Render("expires "+time.Unix(key.Expiration, 0).UTC().Format(time.RFC3339)))
				continue
			}
			fmt.Fprintln(out, key.Name)
		}
		return nil
	},
}

func init() {
	kvCmd.AddCommand(kvGetCmd, kvSetCmd, kvDeleteCmd, kvListCmd)
	rootCmd.AddCommand(kvCmd)

	kvSetCmd.Flags().DurationVar(&kvTTL, "ttl", 0, "Expire the key after this duration (0 keeps it)")
	kvListCmd.Flags().StringVar(&kvPrefix, "prefix", "", "Only list keys with this prefix")
	kvListCmd.Flags().IntVar(&kvLimit, "limit", 100, "Maximum number of keys")
}
