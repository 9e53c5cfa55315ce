// Package purge implements purge engine commands.
package purge

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for the purge engine.
var Cmd = &cobra.Command{
	Use:   "purge",
	Short: "Purge engine status and control",
	Long: `Inspect and control the running purge engine.

Examples:
  # Show the engine state and free space
  artifactguard purge status

  # Start a purge run now, regardless of free space
  artifactguard purge trigger

  # Show the last 10 runs as JSON
  artifactguard purge runs --limit 10 -o json`,
}

func init() {
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(triggerCmd)
	Cmd.AddCommand(runsCmd)
}
