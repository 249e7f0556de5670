package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedStore_RedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })

	primary := NewMemoryStore()
	store := NewCachedStore(primary, rdb, time.Minute, nil)
	ctx := context.Background()

	b := testBook(t)
	require.NoError(t, store.Save(ctx, "main", b))

	loaded, err := store.Load(ctx, "main", nil)
	require.NoError(t, err)
	requireSameView(t, b.Snapshot(), loaded.Snapshot())

	_, err = store.Load(ctx, "missing", nil)
	require.ErrorIs(t, err, ErrBookNotFound)
}

func TestBookKey(t *testing.T) {
	assert.Equal(t, "fintrack:book:retirement", bookKey("retirement"))
}

func TestCachedStore_Redis(t *testing.T) {
	url := os.Getenv("FINTRACK_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FINTRACK_TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	name := "cached-" + time.Now().Format("150405.000000")
	key := bookKey(name)
	t.Cleanup(func() { rdb.Del(context.Background(), key) })

	primary := NewMemoryStore()
	store := NewCachedStore(primary, rdb, time.Minute, nil)

	b := testBook(t)
	require.NoError(t, store.Save(ctx, name, b))
	n, err := rdb.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Zero(t, n, "save must not populate the cache")

	_, err = store.Load(ctx, name, nil)
	require.NoError(t, err)
	n, err = rdb.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "load must populate the cache")

	ttl, err := rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	// A hit is served from Redis even when the primary changed behind it.
	require.NoError(t, b.Withdraw(d("1000")))
	require.NoError(t, primary.Save(ctx, name, b))
	cached, err := store.Load(ctx, name, nil)
	require.NoError(t, err)
	assert.True(t, cached.Cash().Equal(d("14317.25")), "cash %s", cached.Cash())

	// Saving through the cache invalidates the entry.
	require.NoError(t, store.Save(ctx, name, b))
	fresh, err := store.Load(ctx, name, nil)
	require.NoError(t, err)
	assert.True(t, fresh.Cash().Equal(d("13317.25")), "cash %s", fresh.Cash())

	// An unreadable entry is dropped and the primary is used.
	require.NoError(t, rdb.Set(ctx, key, "garbage", time.Minute).Err())
	loaded, err := store.Load(ctx, name, nil)
	require.NoError(t, err)
	assert.True(t, loaded.Cash().Equal(d("13317.25")), "cash %s", loaded.Cash())
}
