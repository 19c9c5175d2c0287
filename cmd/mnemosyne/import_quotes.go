package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/mnemosyne/internal/adapters/flags"
	"github.com/jsamuelsen/mnemosyne/internal/adapters/persistence/gormstore"
	"github.com/jsamuelsen/mnemosyne/internal/app"
)

type importOptions struct {
	count  int
	userID string
}

func newImportQuotesCmd(opts *globalOptions) *cobra.Command {
	in := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import-quotes",
		Short: "Import random quotes from the upstream provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(opts.profile)
			if err != nil {
				return err
			}

			logger := newLogger(cfg)

			store, err := openStore(ctx, cfg, logger, cfg.Database.AutoMigrate)
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := gormstore.NewUserRepository(store).Get(ctx, in.userID); err != nil {
				return fmt.Errorf("loading importing user: %w", err)
			}

			state, err := newSharedState(ctx, cfg)
			if err != nil {
				return err
			}
			defer state.Close()

			source, err := quoteSource(cfg, logger)
			if err != nil {
				return err
			}

			tokens, err := newTokenIssuer(cfg)
			if err != nil {
				return err
			}

			services := newServices(cfg, store, serviceDeps{
				tokens:      tokens,
				revocations: state.revocations,
				source:      source,
				flags:       flags.NewStatic(cfg.Features),
				logger:      logger,
			})

			result, err := services.Quotes.ImportQuotes(ctx, in.userID, in.count)
			if err != nil {
				return err
			}

			logger.Info("import finished",
				slog.Int("requested", result.Requested),
				slog.Int("received", result.Received),
				slog.Int("imported", len(result.Quotes)),
				slog.Int("skipped", result.Skipped),
			)

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d quotes (%d skipped)\n",
				len(result.Quotes), result.Received, result.Skipped)

			return nil
		},
	}

	cmd.Flags().IntVar(&in.count, "count", 10, fmt.Sprintf("number of quotes to fetch (1-%d)", app.MaxImportCount))
	cmd.Flags().StringVar(&in.userID, "user", "", "id of the user the import is attributed to")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
