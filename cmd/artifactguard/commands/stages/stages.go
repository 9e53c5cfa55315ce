// Package stages implements stage catalog commands.
package stages

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for catalogued stages.
var Cmd = &cobra.Command{
	Use:   "stages",
	Short: "Stage catalog management",
	Long: `List and register pipeline stages and pin individual runs.

A stage is purge-eligible once it has completed, still has artifacts,
is not pinned with 'keep', and its pipeline/stage pair is not protected.

Examples:
  # Stages of one pipeline that still have artifacts
  artifactguard stages list --pipeline build --with-artifacts

  # Record a finished stage
  artifactguard stages register --pipeline build --pipeline-counter 42 \
      --stage compile --counter 1 --result passed --completed

  # Never purge one run
  artifactguard stages keep <id>`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(registerCmd)
	Cmd.AddCommand(keepCmd)
}
