package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Personalised gifts storefront: catalog, carts, checkout and admin console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newCreateAdminCmd())

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("storefront exited")
	}
}
