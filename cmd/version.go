// File: cmd/version.go
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is overridden at build time via -ldflags.
var Version = "0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the webpilot version.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("webpilot", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
