package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/junaidrashid-git/yar-marketplace/auth"
	"github.com/junaidrashid-git/yar-marketplace/models"
)

var (
	tokenRole     string
	tokenVendorID string
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue a bearer token for local testing",
	Long: `Signs a bearer token with the configured jwt.secret.

Examples:
  yarmarket token buyer-1
  yarmarket token user-7 --role vendor --vendor v-3
  yarmarket token admin-1 --role admin --ttl 1h`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ttl := tokenTTL
		if ttl == 0 {
			ttl = cfg.JWT.TTL
		}
		iss := auth.NewIssuer(cfg.JWT.Secret, ttl, nil)
		token, exp, err := iss.Issue(args[0], models.Role(tokenRole), tokenVendorID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.UTC().Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(models.RoleBuyer), "buyer, vendor or admin")
	tokenCmd.Flags().StringVar(&tokenVendorID, "vendor", "", "vendor id, required for --role vendor")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default jwt.ttl)")
}
