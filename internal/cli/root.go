// Package cli implements the coachbridge command tree.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/CoachBridge/CoachBridge/internal/cli.version=1.2.3"
	version = "0.4.0"
	logo    = "\n" +
		"   ____                 _     ____       _     _\n" +
		"  / ___|___   __ _  ___| |__ | __ ) _ __(_) __| | __ _  ___\n" +
		" | |   / _ \\ / _` |/ __| '_ \\|  _ \\| '__| |/ _` |/ _` |/ _ \\\n" +
		" | |__| (_) | (_| | (__| | | | |_) | |  | | (_| | (_| |  __/\n" +
		"  \\____\\___/ \\__,_|\\___|_| |_|____/|_|  |_|\\__,_|\\__, |\\___|\n" +
		"                                                 |___/\n"
)

var rootCmd = &cobra.Command{
	Use:   "coachbridge",
	Short: "CoachBridge - conversational sync client for the coaching backend",
	Long:  color.CyanString(logo) + "\nOptimistic chat with authoritative-transcript reconciliation.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the coachbridge version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("coachbridge " + version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(statusCmd)
}
