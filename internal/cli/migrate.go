package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"RfpIntel/internal/infrastructure/storage"
	"RfpIntel/internal/logging"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := rt.config()
			if cfg.Database.InMemory {
				return errors.New("database.inMemory is set; nothing to migrate")
			}
			logger := logging.Component(rt.logger(cfg, cmd), "postgres")
			if err := storage.Migrate(cfg.Database.DSN, logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
