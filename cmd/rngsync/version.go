package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/rngsync"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of rngsync",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rngsync version %s\n", strings.TrimSpace(rngsync.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
