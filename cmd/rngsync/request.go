package main

import (
	"github.com/aretw0/rngsync/internal/cli"
	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/spf13/cobra"
)

var requestCmd = &cobra.Command{
	Use:   "request <target> <min> <max>",
	Short: "Ask a peer to generate a random number in [min, max]",
	Long: `Submits a generation request to the node. The value is not printed here:
it arrives on the push channel, where 'rngsync watch' shows it.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		r, err := cli.ParseRange(args[1], args[2])
		if err != nil {
			return err
		}
		tag, _ := cmd.Flags().GetString("context")

		spec := domain.RequestSpec{TargetPeer: args[0], Range: r, Context: tag}
		return cli.RunRequest(cmd.Context(), cfg, logger, cmd.OutOrStdout(), spec)
	},
}

func init() {
	rootCmd.AddCommand(requestCmd)
	requestCmd.Flags().StringP("context", "c", "", "Correlation tag attached to the result")
}
