package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodlog/moodlog-backend/internal/config"
)

type testStruct struct {
	Name string
	Age  int
}

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)

	expected := testStruct{Name: "Alice", Age: 30}
	err := cache.Set("insight:1", expected, time.Minute)
	require.NoError(t, err)

	var actual testStruct
	found, err := cache.Get("insight:1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache := setupTestCache(t)

	var out testStruct
	found, err := cache.Get("no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	require.NoError(t, cache.Set("plan:user1", testStruct{Name: "Bob"}, time.Minute))
	require.NoError(t, cache.Invalidate("plan:user1"))

	var out testStruct
	found, err := cache.Get("plan:user1", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAllowDaily(t *testing.T) {
	cache := setupTestCache(t)

	for i := 0; i < 3; i++ {
		ok, err := cache.AllowDaily("questions:user1", 3)
		require.NoError(t, err)
		assert.True(t, ok, "вызов %d должен укладываться в лимит", i+1)
	}

	ok, err := cache.AllowDaily("questions:user1", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = cache.AllowDaily("questions:user2", 3)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInvalidatePrefix(t *testing.T) {
	cache := setupTestCache(t)

	require.NoError(t, cache.Set("analytics:user1:trend", testStruct{Age: 1}, time.Minute))
	require.NoError(t, cache.Set("analytics:user1:themes", testStruct{Age: 2}, time.Minute))
	require.NoError(t, cache.Set("analytics:user2:trend", testStruct{Age: 3}, time.Minute))

	require.NoError(t, cache.InvalidatePrefix("analytics:user1:"))

	var out testStruct
	found, err := cache.Get("analytics:user1:trend", &out)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = cache.Get("analytics:user2:trend", &out)
	require.NoError(t, err)
	assert.True(t, found)
}
