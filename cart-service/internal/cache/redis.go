package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zahran001/e-commerce/cart-service/internal/domain"
)

const (
	defaultBaseTTL   = 15 * time.Minute
	defaultTTLJitter = 5 * time.Minute
	defaultKeyPrefix = "cart"
)

// Options tunes the cache per deployment; it is populated from the service
// configuration rather than process-wide constants. A zero BaseTTL selects
// the defaults, including jitter. An explicit BaseTTL with zero TTLJitter
// yields deterministic expirations.
type Options struct {
	BaseTTL   time.Duration
	TTLJitter time.Duration
	KeyPrefix string
}

type RedisCache struct {
	client *redis.Client
	opts   Options
}

func NewRedisCache(client *redis.Client, opts Options) *RedisCache {
	if opts.BaseTTL <= 0 {
		opts.BaseTTL = defaultBaseTTL
		if opts.TTLJitter == 0 {
			opts.TTLJitter = defaultTTLJitter
		}
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	return &RedisCache{client: client, opts: opts}
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cached cart: %w", err)
	}
	return &cart, nil
}

func (r *RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, r.key(userID), payload, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) key(userID string) string {
	return r.opts.KeyPrefix + ":" + userID
}

// ttl spreads expirations so carts cached in a burst do not all expire
// together.
func (r *RedisCache) ttl() time.Duration {
	if r.opts.TTLJitter <= 0 {
		return r.opts.BaseTTL
	}
	return r.opts.BaseTTL + time.Duration(rand.Int63n(int64(r.opts.TTLJitter)))
}
