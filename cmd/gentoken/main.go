// Command gentoken prints a signed token for calling the chat routes locally.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/katakuxiko/deenbot/internal/auth"
	"github.com/katakuxiko/deenbot/internal/config"
)

type gentokenCommander struct {
	configDir string
	secret    string
	subject   string
	roles     []string
	ttl       time.Duration
}

const gentokenLongDesc string = `Print an HS256 token for local testing.

The signing secret is taken from --secret, or from auth.jwt_secret
(DEENBOT_AUTH_JWT_SECRET) when the flag is not set.`

func newGentokenCmd() *cobra.Command {
	cmder := &gentokenCommander{}

	cmd := &cobra.Command{
		Use:          "gentoken",
		Short:        "Print a signed test token",
		Long:         gentokenLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := cmder.run()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cmder.configDir, "config", "c", "", "Directory containing config.toml")
	cmd.Flags().StringVar(&cmder.secret, "secret", "", "HMAC secret used to sign the token")
	cmd.Flags().StringVarP(&cmder.subject, "subject", "s", auth.DefaultSubject, "Token subject")
	cmd.Flags().StringSliceVarP(&cmder.roles, "role", "r", []string{auth.DefaultRole}, "Role claim, repeatable")
	cmd.Flags().DurationVar(&cmder.ttl, "ttl", auth.DefaultTTL, "Token lifetime")

	return cmd
}

func (c *gentokenCommander) run() (string, error) {
	secret := c.secret
	if secret == "" {
		cfg, err := config.Load(c.configDir)
		if err != nil {
			return "", err
		}
		secret = cfg.Auth.JWTSecret
	}
	if secret == "" {
		return "", errors.New("no secret: pass --secret or set DEENBOT_AUTH_JWT_SECRET")
	}

	return auth.Issue(secret, c.subject, c.roles, c.ttl)
}

func main() {
	if err := newGentokenCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
