package main

import (
	"os"

	"github.com/spf13/cobra"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	profile string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "mnemosyne",
		Short:         "Quote sharing API",
		Long:          "Mnemosyne serves the quote sharing REST API and manages its database.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.profile, "profile", defaultProfile(),
		"configuration profile, loaded from configs/<profile>.yaml")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newImportQuotesCmd(opts),
	)

	return cmd
}

// defaultProfile falls back to APP_ENVIRONMENT, then "local".
func defaultProfile() string {
	if profile := os.Getenv("APP_ENVIRONMENT"); profile != "" {
		return profile
	}

	return "local"
}
