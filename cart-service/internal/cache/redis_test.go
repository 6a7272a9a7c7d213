package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zahran001/e-commerce/cart-service/internal/domain"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	c := NewRedisCache(client, Options{})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return c, mr, cleanup
}

func testCart(userID string) *domain.Cart {
	return &domain.Cart{
		Header: domain.CartHeader{ID: 1, UserID: userID, CouponCode: "10OFF"},
		Lines: []domain.CartLine{
			{ID: 1, HeaderID: 1, ProductID: 10, Quantity: 2},
			{ID: 2, HeaderID: 1, ProductID: 20, Quantity: 1},
		},
	}
}

func TestCacheGet_Success(t *testing.T) {
	c, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	cart := testCart("user123")
	cartJSON, err := json.Marshal(cart)
	require.NoError(t, err)
	require.NoError(t, mr.Set(c.key("user123"), string(cartJSON)))

	result, err := c.Get(context.Background(), "user123")
	require.NoError(t, err)
	assert.Equal(t, "user123", result.Header.UserID)
	require.Len(t, result.Lines, 2)
	assert.Equal(t, int64(10), result.Lines[0].ProductID)
}

func TestCacheGet_Miss(t *testing.T) {
	c, _, cleanup := setupTestRedis(t)
	defer cleanup()

	_, err := c.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheGet_CorruptPayload(t *testing.T) {
	c, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set(c.key("user123"), "{not json"))

	_, err := c.Get(context.Background(), "user123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestCacheSet_RoundTrip(t *testing.T) {
	c, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	cart := testCart("user123")
	require.NoError(t, c.Set(context.Background(), "user123", cart))

	assert.True(t, mr.Exists(c.key("user123")))

	result, err := c.Get(context.Background(), "user123")
	require.NoError(t, err)
	assert.Equal(t, cart.Header.CouponCode, result.Header.CouponCode)
	assert.Equal(t, cart.Lines, result.Lines)
}

func TestCacheDelete(t *testing.T) {
	c, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, c.Set(context.Background(), "user123", testCart("user123")))
	require.NoError(t, c.Delete(context.Background(), "user123"))

	assert.False(t, mr.Exists(c.key("user123")))

	_, err := c.Get(context.Background(), "user123")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheSet_HonorsConfiguredTTLAndPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewRedisCache(client, Options{BaseTTL: time.Minute, KeyPrefix: "cart-v2"})

	require.NoError(t, c.Set(context.Background(), "user123", testCart("user123")))

	assert.True(t, mr.Exists("cart-v2:user123"))
	assert.Equal(t, time.Minute, mr.TTL("cart-v2:user123"))
}

func TestCacheSet_JitterStaysWithinBound(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewRedisCache(client, Options{BaseTTL: time.Minute, TTLJitter: 30 * time.Second})

	for i := 0; i < 20; i++ {
		require.NoError(t, c.Set(context.Background(), "user123", testCart("user123")))
		ttl := mr.TTL(c.key("user123"))
		assert.GreaterOrEqual(t, ttl, time.Minute)
		assert.Less(t, ttl, 90*time.Second)
	}
}

func TestCacheDelete_MissingKeyIsNoError(t *testing.T) {
	c, _, cleanup := setupTestRedis(t)
	defer cleanup()

	assert.NoError(t, c.Delete(context.Background(), "nobody"))
}
