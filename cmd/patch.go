package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	infralogger "github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	"github.com/cybersalt/cs-sponsored-articles/internal/bootstrap"
	"github.com/cybersalt/cs-sponsored-articles/internal/lookup"
	"github.com/cybersalt/cs-sponsored-articles/internal/tagger"
)

func newPatchCommand() *cobra.Command {
	var (
		input   string
		aliases []string
	)

	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Patch an HTML file offline with a given alias list",
		Long: `Reads HTML from a file (or stdin with "-"), marks the containers of the
given sponsored aliases and writes the result to stdout. No database is used.

Example:
  sponsored-articles patch --file blog.html --alias my-sponsored-post`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig(cfgFile, debug)
			if err != nil {
				return err
			}

			body, err := readInput(cmd, input)
			if err != nil {
				return err
			}

			t := tagger.New(lookup.Static(aliases), bootstrap.NewCandidates(cfg),
				bootstrap.NewPatcher(cfg), infralogger.NewNop(), nil)
			out, result, outcome := t.Render(context.Background(), string(body))

			if _, err = io.WriteString(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(),
				"outcome=%s containers=%d anchors=%d marked=%d style=%t\n",
				outcome, result.Containers, result.Anchors, result.Marked, result.StyleInjected)
			return err
		},
	}

	cmd.Flags().StringVarP(&input, "file", "f", "-", "HTML file to patch, - for stdin")
	cmd.Flags().StringSliceVar(&aliases, "alias", nil, "sponsored article alias (repeatable)")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return body, nil
}
