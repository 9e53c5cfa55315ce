// Package commands implements the artifactguard command-line interface.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/artifactguard/cmd/artifactguard/cmdutil"
	configcmd "github.com/marmos91/artifactguard/cmd/artifactguard/commands/config"
	protectcmd "github.com/marmos91/artifactguard/cmd/artifactguard/commands/protect"
	purgecmd "github.com/marmos91/artifactguard/cmd/artifactguard/commands/purge"
	stagescmd "github.com/marmos91/artifactguard/cmd/artifactguard/commands/stages"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "artifactguard",
	Short: "Disk-space driven artifact cleanup for CI servers",
	Long: `artifactguard watches free space on a CI server's artifact store and
deletes the artifacts of old, finished pipeline stages when space runs low.

Server commands (init, start, stop, status) manage the local daemon.
Client commands (purge, stages, protect) talk to its REST API.

Use "artifactguard [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.ConfigFile, _ = cmd.Flags().GetString("config")
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Token, _ = cmd.Flags().GetString("token")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/artifactguard/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "API server URL (default: http://localhost:<api.port>)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (default: minted from the configured API secret)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(purgecmd.Cmd)
	rootCmd.AddCommand(stagescmd.Cmd)
	rootCmd.AddCommand(protectcmd.Cmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the --config flag value.
func GetConfigFile() string {
	return cmdutil.Flags.ConfigFile
}
