// Command tokengen issues handshake tokens signed with the relay's JWT_SECRET.
// Credential issuance proper lives outside the relay; this is for local
// development and smoke tests.
package main

import (
	"fmt"
	"os"
	"time"

	"dm-relay/internal/auth"
	"dm-relay/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:          "tokengen",
		Short:        "Print a signed handshake token for a user",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			token, err := auth.NewService(cfg.JWT).NewToken(userID, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id to embed in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_EXPIRES_IN)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
