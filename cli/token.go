package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpupo63/collage-backend/auth"
	"github.com/rpupo63/collage-backend/config"
	"github.com/rpupo63/collage-backend/errs"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed admin token",
	Long:  `Sign an HS256 admin token with ADMIN_JWT_SECRET. Use --ttl 0 for a token without expiry.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := config.GetString(cfg, "ADMIN_JWT_SECRET", "")
		if secret == "" {
			return errs.NewConfigMissingError("ADMIN_JWT_SECRET")
		}

		token, err := auth.Issue(secret, tokenSubject, tokenTTL)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "sub claim of the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")
}
