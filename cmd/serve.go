package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"storefront-service/internal/api"
	"storefront-service/internal/config"
	"storefront-service/internal/consumer"
	"storefront-service/internal/payment"
	"storefront-service/internal/repository"
	"storefront-service/internal/service"
	"storefront-service/internal/sharding"
	"storefront-service/migrations"
)

const (
	connectAttempts = 10
	connectWait     = 3 * time.Second
	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	var migrate, warmCache bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the order event consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(migrate, warmCache)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create missing tables before serving")
	cmd.Flags().BoolVar(&warmCache, "warm-cache", true, "load active products into the cache at startup")
	return cmd
}

func serve(migrate, warmCache bool) error {
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

	if migrate {
		if err := runMigrations(catalogDB, shards); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient(cfg)
	defer rdb.Close()

	orderWriter := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.OrderTopic)
	defer orderWriter.Close()
	notificationWriter := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.NotificationTopic)
	defer notificationWriter.Close()

	productRepo := repository.NewProductRepository(catalogDB)
	categoryRepo := repository.NewCategoryRepository(catalogDB)
	adminRepo := repository.NewAdminRepository(catalogDB)
	orderRepo := repository.NewOrderRepository(shards, sharding.NewShardRouter(len(shards)))
	cartRepo := repository.NewCartRepository(rdb, cfg.CartTTL)

	catalogService := service.NewCatalogService(productRepo, categoryRepo, rdb)
	cartService := service.NewCartService(cartRepo, catalogService, service.BundleConfig{
		DiscountPercentage: cfg.BundleDiscountPercentage,
		MinItems:           cfg.BundleMinItems,
	})
	orderService := service.NewOrderService(
		orderRepo,
		cartRepo,
		catalogService,
		payment.NewTelrClient(cfg.Telr, &http.Client{Timeout: 15 * time.Second}),
		service.NewKafkaPublisher(orderWriter, notificationWriter),
		repository.NewIdempotencyRepository(rdb),
		service.OrderConfig{Currency: cfg.Currency, StoreName: cfg.StoreName},
	)
	authService := service.NewAuthService(adminRepo, repository.NewAdminSessionRepository(rdb), cfg.JWTSecret, cfg.JWTTTL)

	e := api.NewRouter(api.RouterConfig{
		Catalog:       catalogService,
		Carts:         cartService,
		Orders:        orderService,
		Auth:          authService,
		Currency:      cfg.Currency,
		SessionTTL:    cfg.CartTTL,
		SecureCookies: cfg.Env == "production",
		RateLimit:     cfg.RateLimit,
		RateBurst:     cfg.RateBurst,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if warmCache {
		if _, err := catalogService.PreWarmCache(ctx); err != nil {
			log.Warn().Err(err).Msg("cache warm-up failed")
		}
	}

	stockConsumer := consumer.NewConsumer(config.NewKafkaReader(cfg.KafkaBrokers, cfg.OrderTopic, cfg.ConsumerGroup), catalogService)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return stockConsumer.Start(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("storefront listening")
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info().Msg("storefront stopped")
	return err
}

func runMigrations(catalogDB *sql.DB, shards []*sql.DB) error {
	if err := migrations.AutoMigrateCatalog(3, catalogDB); err != nil {
		return err
	}
	return migrations.AutoMigrateOrders(3, shards...)
}

func closeAll(dbs []*sql.DB) {
	for _, db := range dbs {
		db.Close()
	}
}
