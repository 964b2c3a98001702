package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akashsiripuram/Nexus/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nexus %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
