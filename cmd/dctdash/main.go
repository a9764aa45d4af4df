// Dctdash is a terminal dashboard for OpenDCT network capture devices.
//
// It lists every capture device an OpenDCT server knows about together with
// its status, lock, channel lineup and encoder pool, and can mirror the same
// dashboard to a browser.
//
// Usage:
//
//	dctdash [command] [flags]
//
// Running without arguments launches the interactive dashboard.
// See 'dctdash --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/dctdash/internal/logging"
	"github.com/muurk/dctdash/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dctdash",
	Short: "OpenDCT capture device dashboard",
	Long: `A dashboard for the capture devices of an OpenDCT server.

Shows each device's status, lock, channel lineup and pool, grouped views
by lineup and pool, and an optional live web mirror.

If no command is specified, the interactive dashboard will launch automatically.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runTUI,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// No settings or logging needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dctdash %s (commit: %s)\n", version.Version, version.Commit)
	},
}
