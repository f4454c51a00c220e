package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminSessionRepository(t *testing.T) {
	mr, rdb := newTestRedis(t)
	repo := NewAdminSessionRepository(rdb)
	ctx := context.Background()

	ok, err := repo.Exists(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Create(ctx, "jti-1", 42, time.Minute))
	ok, err = repo.Exists(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = repo.Exists(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Create(ctx, "jti-2", 42, time.Minute))
	require.NoError(t, repo.Delete(ctx, "jti-2"))
	ok, err = repo.Exists(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdempotencyRepository(t *testing.T) {
	mr, rdb := newTestRedis(t)
	repo := NewIdempotencyRepository(rdb)
	ctx := context.Background()

	ok, err := repo.Reserve(ctx, "abc", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Reserve(ctx, "abc", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Release(ctx, "abc"))
	ok, err = repo.Reserve(ctx, "abc", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Hour)
	ok, err = repo.Reserve(ctx, "abc", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}
