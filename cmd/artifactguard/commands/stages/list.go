package stages

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/artifactguard/cmd/artifactguard/cmdutil"
	"github.com/marmos91/artifactguard/pkg/catalog"
)

var listFilter catalog.StageFilter

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued stages",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listFilter.Pipeline, "pipeline", "", "Only stages of this pipeline")
	listCmd.Flags().StringVar(&listFilter.Stage, "stage", "", "Only stages with this name")
	listCmd.Flags().BoolVar(&listFilter.OnlyWithArtifacts, "with-artifacts", false, "Hide stages whose artifacts were purged")
	listCmd.Flags().IntVar(&listFilter.Limit, "limit", 0, "Maximum number of stages (0 = all)")
}

// StageList renders stages as a table.
type StageList []catalog.Stage

// Headers implements TableRenderer.
func (sl StageList) Headers() []string {
	return []string{"ID", "STAGE", "RESULT", "COMPLETED", "ARTIFACTS", "KEEP"}
}

// Rows implements TableRenderer.
func (sl StageList) Rows() [][]string {
	rows := make([][]string, 0, len(sl))
	for _, s := range sl {
		artifacts := "present"
		if s.ArtifactsDeleted {
			artifacts = "purged " + cmdutil.FormatOptionalTime(s.DeletedAt)
		}
		completed := "running"
		if s.Completed() {
			completed = cmdutil.FormatOptionalTime(s.CompletedAt)
		}
		rows = append(rows, []string{
			s.ID,
			s.Identifier(),
			cmdutil.EmptyOr(s.Result, catalog.ResultUnknown),
			completed,
			artifacts,
			cmdutil.BoolToYesNo(s.Keep),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	stages, err := client.ListStages(listFilter)
	if err != nil {
		return fmt.Errorf("failed to list stages: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, stages, len(stages) == 0, "No stages found.", StageList(stages))
}
