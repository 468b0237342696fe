package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/liveparams"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of liveparams",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "liveparams version %s\n", strings.TrimSpace(liveparams.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
