package config

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/artifactguard/cmd/artifactguard/cmdutil"
	"github.com/marmos91/artifactguard/internal/cli/output"
	"github.com/marmos91/artifactguard/pkg/config"
)

const redacted = "<redacted>"

var showSecrets bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Display the configuration after defaults and environment overrides
are applied. Secrets are redacted unless --show-secrets is set.

Examples:
  artifactguard config show
  artifactguard config show -o json
  ARTIFACTGUARD_PURGE_START_THRESHOLD=50GiB artifactguard config show`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secrets in clear text")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}
	if !showSecrets {
		redact(cfg)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if format == output.FormatJSON {
		return output.PrintJSON(os.Stdout, cfg)
	}
	return output.PrintYAML(os.Stdout, cfg)
}

func redact(cfg *config.Config) {
	if cfg.API.JWT.Secret != "" {
		cfg.API.JWT.Secret = redacted
	}
	if cfg.Artifacts.S3.SecretAccessKey != "" {
		cfg.Artifacts.S3.SecretAccessKey = redacted
	}
	if cfg.Catalog.Postgres.Password != "" {
		cfg.Catalog.Postgres.Password = redacted
	}
}
