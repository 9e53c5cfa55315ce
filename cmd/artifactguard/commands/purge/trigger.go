package purge

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/artifactguard/cmd/artifactguard/cmdutil"
	"github.com/marmos91/artifactguard/internal/cli/prompt"
)

var forceTrigger bool

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Start a purge run now",
	Long: `Ask the engine to start a purge run immediately, even if free space
is above the start threshold. The run still stops once free space reaches
the target threshold.

If a run is already pending the request is merged into it.

Examples:
  artifactguard purge trigger
  artifactguard purge trigger --force`,
	RunE: runTrigger,
}

func init() {
	triggerCmd.Flags().BoolVarP(&forceTrigger, "force", "f", false, "Skip confirmation prompt")
}

// TriggerResult is printed for JSON and YAML output.
type TriggerResult struct {
	Accepted bool `json:"accepted" yaml:"accepted"`
}

func runTrigger(cmd *cobra.Command, args []string) error {
	confirmed, err := prompt.ConfirmWithForce("Start a purge run? Artifacts of old stages will be deleted.", forceTrigger)
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

	accepted, err := client.TriggerPurge()
	if err != nil {
		return fmt.Errorf("failed to trigger purge: %w", err)
	}

	msg := "Purge run requested"
	if !accepted {
		msg = "A purge run is already pending"
	}
	return cmdutil.PrintResult(TriggerResult{Accepted: accepted}, msg)
}
