package cache

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type modelsEntry struct {
	IDs []string `json:"ids"`
}

func setupRedisCacheTest(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := NewRedisCache(context.Background(), "redis://"+mr.Addr(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	t.Run("Miss", func(t *testing.T) {
		_, err := c.Get(ctx, "absent")
		assert.ErrorIs(t, err, ErrMiss)
	})

	t.Run("SetGetDelete", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
		v, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), v)

		require.NoError(t, c.Delete(ctx, "k"))
		_, err = c.Get(ctx, "k")
		assert.ErrorIs(t, err, ErrMiss)
	})

	t.Run("JSON", func(t *testing.T) {
		require.NoError(t, SetJSON(ctx, c, "models", modelsEntry{IDs: []string{"openai", "gemini"}}, time.Minute))
		var got modelsEntry
		require.NoError(t, GetJSON(ctx, c, "models", &got))
		assert.Equal(t, []string{"openai", "gemini"}, got.IDs)
	})

	t.Run("CorruptJSONIsAMiss", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "bad", []byte("{"), time.Minute))
		var got modelsEntry
		assert.ErrorIs(t, GetJSON(ctx, c, "bad", &got), ErrMiss)
		_, err := c.Get(ctx, "bad")
		assert.ErrorIs(t, err, ErrMiss)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		assert.NoError(t, RoundTrip(ctx, c))
	})
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCacheTest(t)

	t.Run("PrefixedKeys", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
		got, err := mr.Get("test:k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Second))
		mr.FastForward(2 * time.Second)
		_, err := c.Get(ctx, "short")
		assert.ErrorIs(t, err, ErrMiss)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		assert.NoError(t, RoundTrip(ctx, c))
	})

	t.Run("ServerDown", func(t *testing.T) {
		mr.Close()
		_, err := c.Get(ctx, "k")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMiss)
	})
}

func TestNewSelectsImplementation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	c, err := New(context.Background(), "", logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	_, err = New(context.Background(), "://not-a-url", logger)
	assert.Error(t, err)
}
