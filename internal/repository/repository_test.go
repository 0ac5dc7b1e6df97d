package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *RedisSessionRepository) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisSessionRepository(client)
}

func TestRedisSessionLifecycle(t *testing.T) {
	mr, repo := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateSession(ctx, "tok-1", time.Hour))

	exists, err := repo.SessionExists(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SessionExists(ctx, "tok-unknown")
	require.NoError(t, err)
	assert.False(t, exists)

	// TTL expiry.
	mr.FastForward(2 * time.Hour)
	exists, err = repo.SessionExists(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisSessionDelete(t *testing.T) {
	_, repo := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateSession(ctx, "tok-1", time.Hour))
	require.NoError(t, repo.DeleteSession(ctx, "tok-1"))

	exists, err := repo.SessionExists(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemorySessionLifecycle(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateSession(ctx, "tok-1", time.Hour))

	exists, err := repo.SessionExists(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.DeleteSession(ctx, "tok-1"))
	exists, err = repo.SessionExists(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemorySessionExpiry(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateSession(ctx, "tok-1", -time.Second))

	exists, err := repo.SessionExists(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFailoverSwitchesToFallback(t *testing.T) {
	mr, primary := setupRedis(t)
	fallback := NewMemorySessionRepository()
	logger := zerolog.Nop()
	repo := NewFailoverSessionRepository(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, repo.CreateSession(ctx, "tok-1", time.Hour))

	// Kill Redis: reads go to the fallback instead of erroring.
	mr.Close()

	exists, err := repo.SessionExists(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, exists)

	// Writes keep working through the fallback.
	require.NoError(t, repo.CreateSession(ctx, "tok-2", time.Hour))
	exists, err = repo.SessionExists(ctx, "tok-2")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFailoverDeleteClearsFallback(t *testing.T) {
	_, primary := setupRedis(t)
	fallback := NewMemorySessionRepository()
	logger := zerolog.Nop()
	repo := NewFailoverSessionRepository(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, fallback.CreateSession(ctx, "tok-1", time.Hour))
	require.NoError(t, repo.DeleteSession(ctx, "tok-1"))

	exists, err := fallback.SessionExists(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, exists)
}
