package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	infrahttp "github.com/cybersalt/cs-sponsored-articles/infrastructure/http"
	"github.com/cybersalt/cs-sponsored-articles/internal/bootstrap"
	"github.com/cybersalt/cs-sponsored-articles/internal/detect"
)

func newDetectCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Suggest a template setting by inspecting a page on the CMS",
		Long: `Fetches a page from the configured upstream and reports which known
container classes and permalinks it carries.

Example:
  sponsored-articles detect --path /blog`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig(cfgFile, debug)
			if err != nil {
				return err
			}
			log, err := bootstrap.CreateLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			client := infrahttp.NewClient(infrahttp.ClientConfig{Timeout: cfg.Upstream.Timeout})
			report, err := detect.New(client, cfg.UpstreamURL(), log).Detect(cmd.Context(), path)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "/", "site-relative page path")
	return cmd
}
