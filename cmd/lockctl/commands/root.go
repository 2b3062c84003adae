package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pixperk/lockcache/pkg/client"
	"github.com/pixperk/lockcache/pkg/types"
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "lockctl",
	Short: "Command line client for the lockcache server",
	Long: `lockctl talks to a lockcache server. Every invocation runs its own
callback listener, whose address is the client id the server sees.`,
	SilenceUsage: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().String("server", "localhost:9000", "lockcache gRPC address")
	RootCmd.PersistentFlags().String("callback-addr", "127.0.0.1:0", "Address to receive revoke/retry callbacks on")
	RootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Overall deadline for the command")
}

// builds a client from the persistent flags
func newClient(cmd *cobra.Command) (*client.Client, context.Context, context.CancelFunc, error) {
	server, _ := cmd.Flags().GetString("server")
	callbackAddr, _ := cmd.Flags().GetString("callback-addr")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	c, err := client.NewClient(server, callbackAddr)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return c, ctx, cancel, nil
}

func parseLockID(arg string) (types.LockID, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid lock id %q: %w", arg, err)
	}
	return types.LockID(id), nil
}
