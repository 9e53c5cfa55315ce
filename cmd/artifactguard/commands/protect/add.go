package protect

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/artifactguard/cmd/artifactguard/cmdutil"
)

var addCmd = &cobra.Command{
	Use:   "add <pipeline> <stage>",
	Short: "Protect every run of a pipeline stage",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	change, err := client.Protect(args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to protect %s/%s: %w", args[0], args[1], err)
	}
	return printChange(change)
}
