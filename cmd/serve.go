package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cybersalt/cs-sponsored-articles/internal/bootstrap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the tagging proxy in front of the CMS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return bootstrap.Serve(cmd.Context(), cfgFile, debug)
		},
	}
}
