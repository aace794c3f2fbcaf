package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/infrastructure/auth"
)

func newTokenCmd(app *cli) *cobra.Command {
	var (
		username string
		role     string
		userID   string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with the configured secret",
		Example: `  docctl token --user pat --role project_manager
  curl -H "Authorization: Bearer $(docctl token --user alice --role admin)" localhost:8080/api/v1/finance/requests`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.cfg.App.Env == "production" {
				return fmt.Errorf("refusing to mint tokens in production")
			}
			id := uuid.New()
			if userID != "" {
				parsed, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("invalid --user-id: %w", err)
				}
				id = parsed
			}

			jwtCfg := app.cfg.JWT
			if ttl > 0 {
				jwtCfg.AccessTokenExpiration = ttl
			}
			token, expiresAt, err := auth.NewJWTService(jwtCfg).GenerateToken(finance.Actor{
				UserID:   id,
				Username: username,
				Role:     finance.Role(role),
			})
			if err != nil {
				return err
			}
			app.log.Info("token minted")
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "Username carried by the token")
	cmd.Flags().StringVar(&role, "role", string(finance.RoleTeamMember), "admin, project_manager, finance or team_member")
	cmd.Flags().StringVar(&userID, "user-id", "", "User UUID (random when empty)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to jwt.access_token_expiration)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
