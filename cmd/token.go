package cmd

import (
	"fmt"
	"time"

	"booking-engine/pkg/auth"
	"booking-engine/pkg/utils"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var (
		subject, role, email string
		ttl                  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator bearer token for the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := utils.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if _, ok := config.Authz.Roles[role]; !ok {
				return fmt.Errorf("role %q has no permissions configured", role)
			}

			token, err := auth.CreateAccessToken(config.JWT.Secret, config.JWT.Issuer, subject, role, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "operator id recorded in audit entries")
	cmd.Flags().StringVar(&role, "role", "admin", "role claim")
	cmd.Flags().StringVar(&email, "email", "", "operator email")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
