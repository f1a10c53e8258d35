package main

import (
	"github.com/aretw0/rngsync/internal/cli"
	"github.com/aretw0/rngsync/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the persisted result history",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sync, _ := cmd.Flags().GetBool("sync")
		plain, _ := cmd.Flags().GetBool("plain")

		renderer := tui.NewRenderer()
		if plain {
			renderer = tui.NewPlainRenderer()
		}
		return cli.RunHistory(cmd.Context(), cfg, logger, cmd.OutOrStdout(), renderer, sync)
	},
}

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Toggle the persisted light/dark theme",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		_, err = cli.RunToggleTheme(cmd.Context(), cfg, logger, cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCmd.AddCommand(historyCmd, themeCmd)
	historyCmd.Flags().Bool("sync", false, "Replace the local entries with the node snapshot first")
	historyCmd.Flags().Bool("plain", false, "Disable styling")
}
