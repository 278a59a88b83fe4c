package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoacl/internal/cli/output"
	"github.com/marmos91/dittoacl/pkg/api/auth"
	"github.com/marmos91/dittoacl/pkg/config"
)

var tokenSubject string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token",
	Long: `Issue an API bearer token signed with api.jwt.secret.

Examples:
  dfsacl token --subject ops
  curl -H "Authorization: Bearer $(dfsacl token -o json | jq -r .token)" ...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.MustLoad(GetConfigFile())
		if err != nil {
			return err
		}
		if cfg.API.JWT.Secret == "" {
			return fmt.Errorf("api.jwt.secret is not configured")
		}

		svc, err := auth.NewJWTService(auth.JWTConfig{
			Secret:   cfg.API.JWT.Secret,
			Issuer:   cfg.API.JWT.Issuer,
			TokenTTL: cfg.API.JWT.TokenTTL,
		})
		if err != nil {
			return err
		}
		token, expiresAt, err := svc.IssueToken(tokenSubject)
		if err != nil {
			return err
		}

		p, err := printer()
		if err != nil {
			return err
		}
		if p.Format() != output.FormatTable {
			return p.Print(map[string]any{"token": token, "expires_at": expiresAt.UTC().Format(time.RFC3339)})
		}
		p.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "Subject recorded in the token")
}
