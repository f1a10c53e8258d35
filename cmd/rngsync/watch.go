package main

import (
	"fmt"
	"os"

	"github.com/aretw0/rngsync/internal/cli"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the push channel and print every new result",
	Long: `Reconciles the local history with the node snapshot, opens the push channel
and prints each result as it arrives. Stops on SIGINT/SIGTERM or when the node
closes the channel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("metrics-addr") {
			cfg.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
		}
		quiet, _ := cmd.Flags().GetBool("quiet")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		err = cli.RunWatch(ctx, cfg, logger, cmd.OutOrStdout(), cli.WatchOptions{Banner: !quiet})
		if sig := ctx.Signal(); sig != nil {
			fmt.Fprintf(os.Stderr, "\nstopped by %v\n", sig)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	watchCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
