package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// AdminSessionRepository tracks live admin tokens by token id so a logout
// revokes a token before it expires.
type AdminSessionRepository struct {
	rdb *redis.Client
}

func NewAdminSessionRepository(rdb *redis.Client) *AdminSessionRepository {
	return &AdminSessionRepository{rdb: rdb}
}

func adminSessionKey(tokenID string) string {
	return fmt.Sprintf("admin-session:%s", tokenID)
}

func (r *AdminSessionRepository) Create(ctx context.Context, tokenID string, adminID int64, ttl time.Duration) error {
	return r.rdb.Set(ctx, adminSessionKey(tokenID), strconv.FormatInt(adminID, 10), ttl).Err()
}

func (r *AdminSessionRepository) Exists(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, adminSessionKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *AdminSessionRepository) Delete(ctx context.Context, tokenID string) error {
	return r.rdb.Del(ctx, adminSessionKey(tokenID)).Err()
}

// IdempotencyRepository remembers request keys for a while so retried
// checkouts are not processed twice.
type IdempotencyRepository struct {
	rdb *redis.Client
}

func NewIdempotencyRepository(rdb *redis.Client) *IdempotencyRepository {
	return &IdempotencyRepository{rdb: rdb}
}

// Reserve claims key for ttl. It reports false when the key was already
// claimed.
func (r *IdempotencyRepository) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.rdb.SetNX(ctx, fmt.Sprintf("idempotent-key:%s", key), "exists", ttl).Result()
}

// Release frees a key whose request failed before doing any work.
func (r *IdempotencyRepository) Release(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, fmt.Sprintf("idempotent-key:%s", key)).Err()
}
