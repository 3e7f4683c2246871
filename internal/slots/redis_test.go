package slots

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore backed by it
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client, 24*time.Hour)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func TestRedisGet_Success(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set(slotKey("s1", Cart), `[{"id":"1"}]`))

	data, err := store.Get(context.Background(), "s1", Cart)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, string(data))
}

func TestRedisGet_Empty(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	data, err := store.Get(context.Background(), "s1", Cart)
	assert.ErrorIs(t, err, ErrSlotEmpty)
	assert.Nil(t, data)
}

func TestRedisSet_AppliesTTL(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	err := store.Set(context.Background(), "s1", Shipping, []byte(`{"city":"San José"}`))
	require.NoError(t, err)

	assert.True(t, mr.Exists(slotKey("s1", Shipping)))
	ttl := mr.TTL(slotKey("s1", Shipping))
	assert.GreaterOrEqual(t, ttl, 24*time.Hour)
	assert.Less(t, ttl, 25*time.Hour)
}

func TestRedisDelete_Many(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", Cart, []byte(`[]`)))
	require.NoError(t, store.Set(ctx, "s1", CheckoutStep, []byte(`{}`)))
	require.NoError(t, store.Set(ctx, "s2", Cart, []byte(`[]`)))

	require.NoError(t, store.Delete(ctx, "s1", Cart, CheckoutStep))

	assert.False(t, mr.Exists(slotKey("s1", Cart)))
	assert.False(t, mr.Exists(slotKey("s1", CheckoutStep)))
	assert.True(t, mr.Exists(slotKey("s2", Cart)))
}

func TestRedisGet_ServerDown(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Close()

	_, err := store.Get(context.Background(), "s1", Cart)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotEmpty)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "s1", Order("A1"))
	assert.ErrorIs(t, err, ErrSlotEmpty)

	require.NoError(t, store.Set(ctx, "s1", Order("A1"), []byte(`{"orderId":"A1"}`)))
	data, err := store.Get(ctx, "s1", Order("A1"))
	require.NoError(t, err)
	assert.Equal(t, `{"orderId":"A1"}`, string(data))

	require.NoError(t, store.Delete(ctx, "s1", Order("A1")))
	_, err = store.Get(ctx, "s1", Order("A1"))
	assert.ErrorIs(t, err, ErrSlotEmpty)
}
