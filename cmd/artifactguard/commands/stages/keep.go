package stages

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/artifactguard/cmd/artifactguard/cmdutil"
)

var keepUnset bool

var keepCmd = &cobra.Command{
	Use:   "keep <id>",
	Short: "Pin a stage run so it is never purged",
	Long: `Pin a single stage run. Use --unset to make it purge-eligible again.

Examples:
  artifactguard stages keep 3f2a...
  artifactguard stages keep 3f2a... --unset`,
	Args: cobra.ExactArgs(1),
	RunE: runKeep,
}

func init() {
	keepCmd.Flags().BoolVar(&keepUnset, "unset", false, "Remove the pin")
}

func runKeep(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	stage, err := client.SetKeep(args[0], !keepUnset)
	if err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
	}

	msg := fmt.Sprintf("Stage %s pinned", stage.Identifier())
	if keepUnset {
		msg = fmt.Sprintf("Stage %s unpinned", stage.Identifier())
	}
	return cmdutil.PrintResult(stage, msg)
}
