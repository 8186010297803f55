package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cybersalt/cs-sponsored-articles/infrastructure/jwt"
	"github.com/cybersalt/cs-sponsored-articles/internal/bootstrap"
)

const defaultTokenTTL = 24 * time.Hour

var errNoSecret = errors.New("auth.jwt_secret is not set; the admin API is disabled")

func newTokenCommand() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the admin API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig(cfgFile, debug)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errNoSecret
			}

			token, err := jwt.Sign(cfg.Auth.JWTSecret, subject, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", defaultTokenTTL, "token lifetime")
	return cmd
}
