package main

import (
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/persistence/gormstore"
)

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|status|down]",
		Short:     "Apply, inspect or roll back database migrations",
		Long:      "up applies pending migrations, status lists them and down rolls back the latest one.",
		ValidArgs: []string{gormstore.MigrateUp, gormstore.MigrateStatus, gormstore.MigrateDown},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.profile)
			if err != nil {
				return err
			}

			logger := newLogger(cfg)

			store, err := openStore(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer store.Close()

			return store.Migrate(cmd.Context(), args[0], logger)
		},
	}
}
