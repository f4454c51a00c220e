package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"storefront-service/internal/cart"
)

const maxCartUpdateAttempts = 5

// CartSnapshot is what is stored per session.
type CartSnapshot struct {
	Version   int64      `json:"version"`
	Cart      *cart.Cart `json:"cart"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartRepository keeps session carts in Redis. Writes are optimistic: the key
// is watched while the cart is rebuilt and the transaction is retried when
// another request wins the race.
type CartRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCartRepository(rdb *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{rdb: rdb, ttl: ttl}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func decodeSnapshot(raw []byte) (*CartSnapshot, error) {
	snap := &CartSnapshot{}
	if err := json.Unmarshal(raw, snap); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	if snap.Cart == nil {
		snap.Cart = cart.New()
	}
	if snap.Cart.Items == nil {
		snap.Cart.Items = []cart.LineItem{}
	}
	return snap, nil
}

// Get returns the session's cart, or an empty version-0 cart when none is
// stored. Reading a stored cart renews its TTL.
func (r *CartRepository) Get(ctx context.Context, sessionID string) (*CartSnapshot, error) {
	raw, err := r.rdb.GetEx(ctx, cartKey(sessionID), r.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return &CartSnapshot{Cart: cart.New()}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(raw)
}

// Update loads the session cart, applies fn and stores the result with a
// bumped version. If fn returns an error nothing is written.
func (r *CartRepository) Update(ctx context.Context, sessionID string, fn func(*cart.Cart) error) (*CartSnapshot, error) {
	key := cartKey(sessionID)

	var result *CartSnapshot
	txf := func(tx *redis.Tx) error {
		snap := &CartSnapshot{Cart: cart.New()}
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if snap, err = decodeSnapshot(raw); err != nil {
				return err
			}
		}

		if err := fn(snap.Cart); err != nil {
			return err
		}
		snap.Version++
		snap.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		result = snap
		return nil
	}

	for i := 0; i < maxCartUpdateAttempts; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, ErrConflict
}

func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, cartKey(sessionID)).Err()
}
