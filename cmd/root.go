// Package cmd implements the command-line interface for the sponsored
// articles proxy.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	infraconfig "github.com/cybersalt/cs-sponsored-articles/infrastructure/config"
	"github.com/cybersalt/cs-sponsored-articles/internal/config"
)

// Version is overridden at build time with -ldflags "-X ...cmd.Version=...".
var Version = config.DefaultVersion

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:           "sponsored-articles",
		Short:         "Highlight sponsored articles in CMS blog views",
		Long:          `A reverse proxy that marks sponsored article containers in rendered CMS pages.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		infraconfig.GetConfigPath("config.yml"),
		"config file (env CONFIG_PATH)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newServeCommand(),
		newProvisionCommand(),
		newPatchCommand(),
		newDetectCommand(),
		newTokenCommand(),
		newVersionCommand(),
	)
}
