package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	CatalogDSN     string
	OrderShardDSNs []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers      []string
	OrderTopic        string
	NotificationTopic string
	ConsumerGroup     string

	JWTSecret string
	JWTTTL    time.Duration

	StoreName                string
	CartTTL                  time.Duration
	Currency                 string
	BundleDiscountPercentage float64
	BundleMinItems           int

	RateLimit float64
	RateBurst int

	Telr TelrConfig
}

type TelrConfig struct {
	StoreID       int
	AuthKey       string
	APIURL        string
	TestMode      bool
	AuthorisedURL string
	DeclinedURL   string
	CancelledURL  string
}

// Load reads configuration from the environment, after merging an optional
// .env file in the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		CatalogDSN: getEnv("CATALOG_DSN", "root:@tcp(127.0.0.1:3306)/storefront?parseTime=true&clientFoundRows=true"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		KafkaBrokers:      getList("KAFKA_BROKERS", []string{"localhost:9092", "localhost:9093", "localhost:9094"}),
		OrderTopic:        getEnv("ORDER_TOPIC", "order-topic"),
		NotificationTopic: getEnv("NOTIFICATION_TOPIC", "notification-topic"),
		ConsumerGroup:     getEnv("CONSUMER_GROUP", "storefront-stock-group"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		StoreName: getEnv("STORE_NAME", "Storefront"),
		Currency:  strings.ToUpper(getEnv("CURRENCY", "AED")),

		Telr: TelrConfig{
			AuthKey:       os.Getenv("TELR_AUTH_KEY"),
			APIURL:        getEnv("TELR_API_URL", "https://secure.telr.com/gateway/order.json"),
			AuthorisedURL: os.Getenv("TELR_SUCCESS_URL"),
			DeclinedURL:   os.Getenv("TELR_FAILURE_URL"),
			CancelledURL:  os.Getenv("TELR_CANCEL_URL"),
		},
	}
	cfg.OrderShardDSNs = getList("ORDER_SHARD_DSNS", []string{cfg.CatalogDSN})

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 12*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CartTTL, err = getDuration("CART_TTL", 72*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BundleDiscountPercentage, err = getFloat("BUNDLE_DISCOUNT_PERCENTAGE", 10); err != nil {
		return nil, err
	}
	if cfg.BundleMinItems, err = getInt("BUNDLE_MIN_ITEMS", 2); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getFloat("RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.RateBurst, err = getInt("RATE_BURST", 30); err != nil {
		return nil, err
	}
	if cfg.Telr.StoreID, err = getInt("TELR_STORE_ID", 0); err != nil {
		return nil, err
	}
	mode := os.Getenv("TELR_MODE")
	cfg.Telr.TestMode = mode == "sandbox" || mode == "dev"

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if c.Env == "production" {
			return errors.New("JWT_SECRET is required in production")
		}
		c.JWTSecret = "development-secret"
	}
	if len(c.OrderShardDSNs) == 0 {
		return errors.New("at least one order shard is required")
	}
	if c.BundleDiscountPercentage < 0 || c.BundleDiscountPercentage > 100 {
		return fmt.Errorf("BUNDLE_DISCOUNT_PERCENTAGE must be within 0..100, got %v", c.BundleDiscountPercentage)
	}
	if c.BundleMinItems < 1 {
		return fmt.Errorf("BUNDLE_MIN_ITEMS must be positive, got %d", c.BundleMinItems)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("CURRENCY must be an ISO 4217 code, got %q", c.Currency)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
