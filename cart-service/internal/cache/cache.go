package cache

import (
	"context"
	"errors"

	"github.com/zahran001/e-commerce/cart-service/internal/domain"
)

// CartCache caches unpriced cart state keyed by user. Mutating operations
// invalidate synchronously before their response is returned, so the
// stale-read window is bounded by the mutation itself.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
