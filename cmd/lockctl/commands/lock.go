package commands

import (
	"fmt"

	"github.com/pixperk/lockcache/pkg/types"
	"github.com/spf13/cobra"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire <lock-id>",
	Short: "Acquire a lock once; prints OK or RETRY",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lockID, err := parseLockID(args[0])
		if err != nil {
			return err
		}

		c, ctx, cancel, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cancel()
		defer c.Stop()

		res, err := c.Acquire(ctx, lockID)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s waiters=%v client=%s\n", res.Result, res.Waiters, c.ID())
		return nil
	},
}

var releaseCmd = &cobra.Command{
	Use:   "release <lock-id> <client-id>",
	Short: "Release a lock on behalf of the client that holds it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lockID, err := parseLockID(args[0])
		if err != nil {
			return err
		}

		c, ctx, cancel, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cancel()
		defer c.Stop()

		if err := c.ReleaseAs(ctx, lockID, types.ClientID(args[1])); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "OK")
		return nil
	},
}

var statCmd = &cobra.Command{
	Use:   "stat <lock-id>",
	Short: "Print how many times a lock has been granted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lockID, err := parseLockID(args[0])
		if err != nil {
			return err
		}

		c, ctx, cancel, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cancel()
		defer c.Stop()

		count, err := c.Stat(ctx, lockID)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), count)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print server status and lock table statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, ctx, cancel, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cancel()
		defer c.Stop()

		st, err := c.Status(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "node:     %s\n", st.NodeId)
		fmt.Fprintf(out, "uptime:   %ds\n", st.UptimeSeconds)
		if st.Stats != nil {
			fmt.Fprintf(out, "locks:    %d (free %d, lent %d, revoked %d)\n",
				st.Stats.Locks, st.Stats.Free, st.Stats.Lent, st.Stats.Revoked)
			fmt.Fprintf(out, "waiters:  %d\n", st.Stats.Waiters)
			fmt.Fprintf(out, "grants:   %d\n", st.Stats.Grants)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(acquireCmd, releaseCmd, statCmd, statusCmd)
}
