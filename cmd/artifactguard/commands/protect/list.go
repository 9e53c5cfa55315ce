package protect

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/artifactguard/cmd/artifactguard/cmdutil"
	"github.com/marmos91/artifactguard/pkg/catalog"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List protected pipeline stages",
	RunE:  runList,
}

// ProtectionList renders protections as a table.
type ProtectionList []catalog.Protection

// Headers implements TableRenderer.
func (pl ProtectionList) Headers() []string {
	return []string{"PIPELINE", "STAGE", "SINCE"}
}

// Rows implements TableRenderer.
func (pl ProtectionList) Rows() [][]string {
	rows := make([][]string, 0, len(pl))
	for _, p := range pl {
		rows = append(rows, []string{p.Pipeline, p.Stage, cmdutil.FormatTime(p.CreatedAt)})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	protections, err := client.ListProtections()
	if err != nil {
		return fmt.Errorf("failed to list protections: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, protections, len(protections) == 0, "No protected stages.", ProtectionList(protections))
}
