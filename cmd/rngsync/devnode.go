package main

import (
	"fmt"

	"github.com/aretw0/rngsync/internal/cli"
	"github.com/spf13/cobra"
)

var devnodeCmd = &cobra.Command{
	Use:   "devnode",
	Short: "Run a local node for development",
	Long: `Starts a single-process node that answers generation requests, serves the
results snapshot and pushes NewRandom frames to connected watchers. It is mounted
under the path of --node, so 'rngsync watch' connects to it with no extra flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		persist, _ := cmd.Flags().GetBool("persist")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		fmt.Fprintf(cmd.OutOrStdout(), "devnode listening on %s\n", addr)
		return cli.RunDevNode(ctx, cfg, logger, cli.DevNodeOptions{Addr: addr, Persist: persist})
	},
}

func init() {
	rootCmd.AddCommand(devnodeCmd)
	devnodeCmd.Flags().String("addr", ":8080", "Address to listen on")
	devnodeCmd.Flags().Bool("persist", false, "Keep results in the configured store")
}
