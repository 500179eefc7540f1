// Growdeck is an operator dashboard for automated growing chambers
// managed through Home Assistant.
//
// It connects to a Home Assistant instance over its websocket API,
// discovers grow box devices, and presents a live terminal panel with
// climate gauges, light schedules, configuration editing, and an event
// log per chamber.
//
// Usage:
//
//	growdeck [command] [flags]
//
// Running without arguments launches the panel against the default
// instance. See 'growdeck --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openkairo/growdeck/internal/logging"
	"github.com/openkairo/growdeck/internal/version"
)

func main() {
	logging.InitializeFromEnv()
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "growdeck",
	Short: "Grow box operator panel for Home Assistant",
	Long: `A terminal dashboard for automated growing chambers.

Connects to a Home Assistant instance, finds every grow box device the
growdeck integration manages, and shows live climate readings, light
schedules, and growth phase state. Configuration edits are staged
locally and applied as merge patches.

If no command is specified, the panel launches against the default
instance (or the only known one).`,
	Version: version.Version,
	RunE:    runPanel,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("growdeck %s (commit: %s)\n", version.Version, version.Commit)
	},
}
