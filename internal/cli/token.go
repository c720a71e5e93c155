package cli

import (
	"fmt"

	"github.com/ZJUSCT/CSArena/internal/auth"
	"github.com/ZJUSCT/CSArena/internal/config"
	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/spf13/cobra"
)

// newTokenCmd issues a bearer token for an existing user. Login flows live
// outside this service; operators use this to hand out access.
func newTokenCmd(configPath *string) *cobra.Command {
	var hours int
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a JWT for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.Storage)
			if err != nil {
				return err
			}
			user, err := database.GetUserByID(db, args[0])
			if err != nil {
				return fmt.Errorf("failed to find user %s: %w", args[0], err)
			}

			if hours <= 0 {
				hours = cfg.Auth.JWT.ExpireHours
			}
			token, err := auth.GenerateJWT(user.ID, cfg.Auth.JWT.Secret, hours)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 0, "token lifetime in hours (defaults to auth.jwt.expire_hours)")
	return cmd
}
