package cli

import (
	"github.com/ZJUSCT/CSArena/internal/config"
	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newMigrateCmd creates or updates the schema without starting the servers.
func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			flush, err := setupLogger(cfg.Logger)
			if err != nil {
				return err
			}
			defer flush()

			db, err := database.Open(cfg.Storage)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			zap.S().Infof("migrations applied to %s database", cfg.Storage.Driver)
			return nil
		},
	}
}
