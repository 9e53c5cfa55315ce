package purge

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/artifactguard/cmd/artifactguard/cmdutil"
	"github.com/marmos91/artifactguard/pkg/catalog"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent purge runs",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to show")
}

// RunList renders purge runs as a table.
type RunList []catalog.RunRecord

// Headers implements TableRenderer.
func (rl RunList) Headers() []string {
	return []string{"STARTED", "OUTCOME", "PURGED", "FAILURES", "PASSES", "FREE BEFORE", "FREE AFTER"}
}

// Rows implements TableRenderer.
func (rl RunList) Rows() [][]string {
	rows := make([][]string, 0, len(rl))
	for _, r := range rl {
		rows = append(rows, []string{
			cmdutil.FormatTime(r.StartedAt),
			r.Outcome,
			fmt.Sprint(r.UnitsPurged),
			fmt.Sprint(r.Failures),
			fmt.Sprint(r.Passes),
			cmdutil.FormatBytes(r.SpaceBefore),
			cmdutil.FormatBytes(r.SpaceAfter),
		})
	}
	return rows
}

func runRuns(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	runs, err := client.ListRuns(runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list purge runs: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, runs, len(runs) == 0, "No purge runs recorded.", RunList(runs))
}
