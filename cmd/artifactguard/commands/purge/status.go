package purge

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/artifactguard/cmd/artifactguard/cmdutil"
	"github.com/marmos91/artifactguard/internal/cli/output"
	"github.com/marmos91/artifactguard/pkg/apiclient"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show purge engine state",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	status, err := client.PurgeStatus()
	if err != nil {
		return fmt.Errorf("failed to get purge status: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return output.NewPrinter(os.Stdout, format).Print(status)
	}
	return output.PrintKeyValues(os.Stdout, statusPairs(status))
}

func statusPairs(s *apiclient.PurgeStatus) [][2]string {
	pairs := [][2]string{
		{"State", s.State},
		{"Free space", cmdutil.FormatOptionalBytes(s.FreeBytes, "not measured yet")},
	}
	if s.Policy.Enabled {
		pairs = append(pairs,
			[2]string{"Start below", cmdutil.FormatBytes(s.Policy.StartThresholdBytes)},
			[2]string{"Target", cmdutil.FormatBytes(s.Policy.TargetThresholdBytes)},
		)
	} else {
		pairs = append(pairs, [2]string{"Policy", "disabled"})
	}

	if r := s.LastRun; r != nil {
		pairs = append(pairs,
			[2]string{"Last run", fmt.Sprintf("%s (%s)", r.Outcome, cmdutil.FormatTime(r.FinishedAt))},
			[2]string{"Last purged", fmt.Sprintf("%d stages, %d failures", r.UnitsPurged, r.Failures)},
		)
	} else {
		pairs = append(pairs, [2]string{"Last run", "never"})
	}
	return pairs
}
