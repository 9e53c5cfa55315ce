// Package protect implements pipeline/stage protection commands.
package protect

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/artifactguard/cmd/artifactguard/cmdutil"
	"github.com/marmos91/artifactguard/pkg/apiclient"
)

// Cmd is the parent command for protections.
var Cmd = &cobra.Command{
	Use:   "protect",
	Short: "Protect pipeline stages from purging",
	Long: `A protection excludes every run of a pipeline/stage pair from purging.

Changes made while a purge run is in progress are applied before its next
pass, so a stage protected mid-run may still lose artifacts that were
already selected.

Examples:
  artifactguard protect list
  artifactguard protect add release publish
  artifactguard protect remove release publish`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(removeCmd)
}

func changeMessage(c *apiclient.ProtectionChange) string {
	verb := "unprotected"
	if c.Protected {
		verb = "protected"
	}
	msg := fmt.Sprintf("%s/%s %s", c.Pipeline, c.Stage, verb)
	if c.Pending {
		msg += " (queued, applied at the next purge pass)"
	}
	return msg
}

func printChange(c *apiclient.ProtectionChange) error {
	if c.Pending {
		cmdutil.PrintWarning(changeMessage(c))
		return cmdutil.PrintResult(c, "")
	}
	return cmdutil.PrintResult(c, changeMessage(c))
}
