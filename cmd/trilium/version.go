package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dominic-sylvester/trilium"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of trilium",
	// Skip config loading.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "trilium version %s\n", strings.TrimSpace(trilium.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
