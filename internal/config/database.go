package config

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
)

// ConnectDB opens a MySQL pool and pings it, retrying while the server
// comes up.
func ConnectDB(dsn string, attempts int, wait time.Duration) (*sql.DB, error) {
	var err error
	for i := 0; i < attempts; i++ {
		var db *sql.DB
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				db.SetMaxOpenConns(25)
				db.SetMaxIdleConns(25)
				db.SetConnMaxLifetime(5 * time.Minute)
				return db, nil
			}
			db.Close()
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("database not ready")
		time.Sleep(wait)
	}
	return nil, fmt.Errorf("connect database after %d attempts: %w", attempts, err)
}

// ConnectShards opens one pool per order shard, closing any already opened
// pools on failure.
func ConnectShards(dsns []string, attempts int, wait time.Duration) ([]*sql.DB, error) {
	shards := make([]*sql.DB, 0, len(dsns))
	for i, dsn := range dsns {
		db, err := ConnectDB(dsn, attempts, wait)
		if err != nil {
			for _, s := range shards {
				s.Close()
			}
			return nil, fmt.Errorf("order shard %d: %w", i, err)
		}
		shards = append(shards, db)
	}
	return shards, nil
}

func NewRedisClient(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
