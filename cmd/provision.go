package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/cybersalt/cs-sponsored-articles/internal/bootstrap"
	"github.com/cybersalt/cs-sponsored-articles/internal/provision"
)

func newProvisionCommand() *cobra.Command {
	var action string

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the sponsor custom field and its group",
		Long: `Ensures the "Sponsored?" field group and field exist in the CMS.
Failures are logged as warnings; the command still exits successfully.

Example:
  sponsored-articles provision --action update`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := provision.ParseAction(action)
			if err != nil {
				return err
			}

			outcome, err := bootstrap.Provision(cmd.Context(), cfgFile, debug, a)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(outcome)
		},
	}

	cmd.Flags().StringVarP(&action, "action", "a", string(provision.ActionInstall),
		"lifecycle action: install, update or uninstall")
	return cmd
}
