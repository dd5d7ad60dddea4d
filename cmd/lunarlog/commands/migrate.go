package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Open the database, apply any pending migrations and print the
resulting schema version.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			version, dirty, err := store.SchemaVersion()
			if err != nil {
				return err
			}

			log.Info().
				Str("db", cfg.Database.Path).
				Uint("version", version).
				Bool("dirty", dirty).
				Msg("Migrations applied")
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%v)\n", version, dirty)
			return nil
		},
	}
}
