package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/artifactguard/cmd/artifactguard/cmdutil"
	"github.com/marmos91/artifactguard/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the artifactguard configuration file.

Checks for syntax errors, missing required fields, invalid values and
inconsistent purge thresholds.

Examples:
  artifactguard config validate
  artifactguard config validate --config /etc/artifactguard/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath := cmdutil.Flags.ConfigFile
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := config.Warnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintln(out, "\nConfiguration summary:")
	if cfg.Purge.Enabled {
		_, _ = fmt.Fprintf(out, "  Purge:          below %s free, until %s free\n", cfg.Purge.StartThreshold, cfg.Purge.TargetThreshold)
	} else {
		_, _ = fmt.Fprintln(out, "  Purge:          disabled")
	}
	_, _ = fmt.Fprintf(out, "  Artifacts:      %s\n", cfg.Artifacts.Type)
	_, _ = fmt.Fprintf(out, "  Catalog:        %s\n", cfg.Catalog.Type)
	_, _ = fmt.Fprintf(out, "  Check interval: %s\n", cfg.Monitor.Interval)
	if cfg.API.Enabled {
		_, _ = fmt.Fprintf(out, "  API port:       %d\n", cfg.API.Port)
	}
	return nil
}
