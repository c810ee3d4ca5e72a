package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	iauth "github.com/charlesng35/mediaplatform/internal/auth"
	"github.com/charlesng35/mediaplatform/pkg/validator"
)

func newTokenCmd(c *cli) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <crsid>",
		Short: "Issue a bearer token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			crsid := strings.ToLower(strings.TrimSpace(args[0]))
			if !validator.IsCRSID(crsid) {
				return fmt.Errorf("invalid crsid %q", args[0])
			}

			cfg, err := c.config()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
				return fmt.Errorf("auth.jwt.secret must be configured to issue tokens")
			}

			jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
			if err != nil {
				return err
			}
			token, err := jwtSvc.GenerateAccessToken(iauth.AccessTokenInput{CRSID: crsid, TTL: ttl})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime; defaults to auth.jwt.access_token_ttl")
	return cmd
}
