package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/duynhne/peek-service/internal/di"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, cleanup, err := di.InitStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}
		log.Info().Str("driver", cfg.Database.Driver).Msg("Schema migrations applied")
		return nil
	},
}
