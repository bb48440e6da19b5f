// Package cmd holds the taskboard-api command line
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appName = "taskboard-api"

// Version is set at build time with -ldflags
var Version = "dev"

// Execute runs the root command and exits non-zero on error
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Task board API",
		Long: `taskboard-api serves boards, columns and cards over HTTP, pushes
board invitations over a websocket and repairs card ordering in the
background.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().Bool("in-memory", false, "Keep all data in process memory instead of MongoDB")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(reconcileCmd())
	cmd.AddCommand(hashPasswordCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})
	return cmd
}
