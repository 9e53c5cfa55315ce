package stages

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/artifactguard/cmd/artifactguard/cmdutil"
	"github.com/marmos91/artifactguard/pkg/apiclient"
	"github.com/marmos91/artifactguard/pkg/catalog"
)

var (
	registerReq         apiclient.RegisterStageRequest
	registerCompleted   bool
	registerCompletedAt string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Record a pipeline stage",
	Long: `Record a stage run in the catalog. CI servers normally call the API
directly; this command is for backfills and scripts.

--completed marks the stage finished now; --completed-at takes an RFC 3339
timestamp. A stage without either is treated as running and never purged.`,
	RunE: runRegister,
}

func init() {
	f := registerCmd.Flags()
	f.StringVar(&registerReq.Pipeline, "pipeline", "", "Pipeline name")
	f.IntVar(&registerReq.PipelineCounter, "pipeline-counter", 0, "Pipeline run counter")
	f.StringVar(&registerReq.Name, "stage", "", "Stage name")
	f.IntVar(&registerReq.Counter, "counter", 1, "Stage run counter")
	f.StringVar(&registerReq.Result, "result", catalog.ResultUnknown, "Stage result (passed|failed|cancelled|unknown)")
	f.BoolVar(&registerReq.Keep, "keep", false, "Never purge this run")
	f.BoolVar(&registerCompleted, "completed", false, "Mark the stage completed now")
	f.StringVar(&registerCompletedAt, "completed-at", "", "Completion time (RFC 3339)")
	_ = registerCmd.MarkFlagRequired("pipeline")
	_ = registerCmd.MarkFlagRequired("pipeline-counter")
	_ = registerCmd.MarkFlagRequired("stage")
	registerCmd.MarkFlagsMutuallyExclusive("completed", "completed-at")
}

func runRegister(cmd *cobra.Command, args []string) error {
	req := registerReq
	completedAt, err := parseCompletion(registerCompleted, registerCompletedAt, time.Now())
	if err != nil {
		return err
	}
	req.CompletedAt = completedAt

	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	stage, err := client.RegisterStage(req)
	if err != nil {
		return fmt.Errorf("failed to register stage: %w", err)
	}

	return cmdutil.PrintResult(stage, fmt.Sprintf("Stage %s registered (id %s)", stage.Identifier(), stage.ID))
}

func parseCompletion(now bool, at string, clock time.Time) (*time.Time, error) {
	switch {
	case now:
		t := clock.UTC()
		return &t, nil
	case at != "":
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return nil, fmt.Errorf("invalid --completed-at: %w", err)
		}
		return &t, nil
	}
	return nil, nil
}
