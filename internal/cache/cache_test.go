package cache

import (
	"context"
	"testing"
	"time"

	"badgehub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := newMemoryCache(zap.NewNop())
	ctx := context.Background()

	type payload struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	}

	require.NoError(t, c.Set(ctx, "credential:slug:gsp", payload{Slug: "gsp", Name: "Green Software Practitioner"}, time.Minute))

	var got payload
	require.True(t, c.Get(ctx, "credential:slug:gsp", &got))
	assert.Equal(t, "Green Software Practitioner", got.Name)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := newMemoryCache(zap.NewNop())

	var got string
	assert.False(t, c.Get(context.Background(), "absent", &got))
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := newMemoryCache(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	var got string
	assert.False(t, c.Get(ctx, "key", &got))
}

func TestMemoryCacheDelete(t *testing.T) {
	c := newMemoryCache(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", 0))
	require.NoError(t, c.Delete(ctx, "key"))

	var got string
	assert.False(t, c.Get(ctx, "key", &got))
}

func TestNewCacheUnknownProvider(t *testing.T) {
	_, err := NewCache(&config.CacheConfig{Provider: "memcached"}, zap.NewNop())
	assert.Error(t, err)
}
