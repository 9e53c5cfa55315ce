package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/artifactguard/cmd/artifactguard/cmdutil"
	"github.com/marmos91/artifactguard/internal/cli/output"
)

var statusPidFile string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Show whether the artifactguard server is running and healthy, along
with the purge engine's state and current free space.

Examples:
  artifactguard status
  artifactguard status --server http://ci-host:8080
  artifactguard status -o json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/artifactguard/artifactguard.pid)")
}

// ServerStatus is the combined process and API status.
type ServerStatus struct {
	Running    bool    `json:"running" yaml:"running"`
	PID        int     `json:"pid,omitempty" yaml:"pid,omitempty"`
	Healthy    bool    `json:"healthy" yaml:"healthy"`
	Message    string  `json:"message" yaml:"message"`
	PurgeState string  `json:"purge_state,omitempty" yaml:"purge_state,omitempty"`
	FreeBytes  *uint64 `json:"free_bytes,omitempty" yaml:"free_bytes,omitempty"`
	LimitBytes *uint64 `json:"limit_bytes,omitempty" yaml:"limit_bytes,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	status := ServerStatus{Message: "Server is not running"}

	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}
	if pid, running := isProcessRunning(pidPath); running {
		status.Running = true
		status.PID = pid
	}

	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	// the health endpoint also covers servers started in the foreground
	// without a PID file
	if err := client.Health(); err == nil {
		status.Running = true
		status.Healthy = true
		status.Message = "Server is running and healthy"
	} else if status.Running {
		status.Message = fmt.Sprintf("Server process exists but is unhealthy: %v", err)
	}

	if status.Healthy {
		if ps, err := client.PurgeStatus(); err == nil {
			status.PurgeState = ps.State
			status.FreeBytes = ps.FreeBytes
			status.LimitBytes = ps.LimitBytes
		}
	}

	if format != output.FormatTable {
		return output.NewPrinter(os.Stdout, format).Print(status)
	}
	return printStatusTable(status)
}

func printStatusTable(s ServerStatus) error {
	state := "stopped"
	switch {
	case s.Running && s.Healthy:
		state = "running"
	case s.Running:
		state = "running (unhealthy)"
	}

	pairs := [][2]string{{"Status", state}}
	if s.PID != 0 {
		pairs = append(pairs, [2]string{"PID", fmt.Sprint(s.PID)})
	}
	if s.PurgeState != "" {
		pairs = append(pairs,
			[2]string{"Purge", s.PurgeState},
			[2]string{"Free space", cmdutil.FormatOptionalBytes(s.FreeBytes, "not measured yet")},
			[2]string{"Purge below", cmdutil.FormatOptionalBytes(s.LimitBytes, "disabled")},
		)
	}
	if err := output.PrintKeyValues(os.Stdout, pairs); err != nil {
		return err
	}
	fmt.Printf("\n%s\n", s.Message)
	return nil
}
