package main

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"storefront-service/internal/config"
	"storefront-service/internal/repository"
	"storefront-service/internal/service"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing catalog and order tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			catalogDB, err := config.ConnectDB(cfg.CatalogDSN, connectAttempts, connectWait)
			if err != nil {
				return err
			}
			defer catalogDB.Close()
			shards, err := config.ConnectShards(cfg.OrderShardDSNs, connectAttempts, connectWait)
			if err != nil {
				return err
			}
			defer closeAll(shards)

			if err := runMigrations(catalogDB, shards); err != nil {
				return err
			}
			log.Info().Int("shards", len(shards)).Msg("migrations applied")
			return nil
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Provision an admin console account",
		Long:  "Provision an admin console account. The password is read from ADMIN_PASSWORD.",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("ADMIN_PASSWORD")
			if password == "" {
				return errors.New("ADMIN_PASSWORD must be set")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			catalogDB, err := config.ConnectDB(cfg.CatalogDSN, connectAttempts, connectWait)
			if err != nil {
				return err
			}
			defer catalogDB.Close()
			rdb := config.NewRedisClient(cfg)
			defer rdb.Close()

			auth := service.NewAuthService(repository.NewAdminRepository(catalogDB), repository.NewAdminSessionRepository(rdb), cfg.JWTSecret, cfg.JWTTTL)
			admin, err := auth.CreateAdmin(context.Background(), email, name, password)
			if err != nil {
				return err
			}
			log.Info().Int64("id", admin.ID).Str("email", admin.Email).Msg("admin created")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
