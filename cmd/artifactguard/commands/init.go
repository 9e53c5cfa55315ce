package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/artifactguard/pkg/api"
	"github.com/marmos91/artifactguard/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Write a sample artifactguard configuration file.

By default the file is created at $XDG_CONFIG_HOME/artifactguard/config.yaml.
Use --config to choose another path.

Examples:
  artifactguard init
  artifactguard init --config /etc/artifactguard/config.yaml
  artifactguard init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()

	var err error
	if configPath != "" {
		err = config.InitConfigToPath(configPath, initForce)
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set purge.start_threshold and purge.target_threshold for your disk")
	fmt.Println("  2. Point artifacts.filesystem.root at the CI server's artifact directory")
	fmt.Println("  3. Start the server with: artifactguard start")
	fmt.Println("\nA random API secret was generated. In production, supply it via:")
	fmt.Printf("    export %s=$(openssl rand -hex 32)\n", api.EnvAPISecret)
	return nil
}
