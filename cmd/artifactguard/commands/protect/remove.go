package protect

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/artifactguard/cmd/artifactguard/cmdutil"
	"github.com/marmos91/artifactguard/internal/cli/prompt"
)

var forceRemove bool

var removeCmd = &cobra.Command{
	Use:   "remove <pipeline> <stage>",
	Short: "Make a pipeline stage purge-eligible again",
	Long: `Remove a protection. Old runs of the stage become eligible for the
next purge run.

Examples:
  artifactguard protect remove release publish
  artifactguard protect remove release publish --force`,
	Args: cobra.ExactArgs(2),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVarP(&forceRemove, "force", "f", false, "Skip confirmation prompt")
}

func runRemove(cmd *cobra.Command, args []string) error {
	pipeline, stage := args[0], args[1]

	confirmed, err := prompt.ConfirmWithForce(
		fmt.Sprintf("Unprotect %s/%s? Its old runs may be purged.", pipeline, stage),
		forceRemove,
	)
	if err != nil {
		return cmdutil.HandleAbort(err)
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}

	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	change, err := client.Unprotect(pipeline, stage)
	if err != nil {
		return fmt.Errorf("failed to unprotect %s/%s: %w", pipeline, stage, err)
	}
	return printChange(change)
}
