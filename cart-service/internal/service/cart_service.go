package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/zahran001/e-commerce/cart-service/internal/cache"
	"github.com/zahran001/e-commerce/cart-service/internal/domain"
	"github.com/zahran001/e-commerce/cart-service/internal/repository"
	"github.com/zahran001/e-commerce/internal/events"
)

// Pricer attaches product snapshots, totals and discounts to a cart at read
// time.
type Pricer interface {
	Price(ctx context.Context, cart *domain.Cart)
}

// EventPublisher hands domain events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

type CartService struct {
	repo      repository.CartRepository
	cache     cache.CartCache
	pricer    Pricer
	publisher EventPublisher
	logger    zerolog.Logger
	sfg       singleflight.Group // Prevents cache stampede
}

func NewCartService(
	repo repository.CartRepository,
	cartCache cache.CartCache,
	pricer Pricer,
	publisher EventPublisher,
	logger zerolog.Logger,
) *CartService {
	return &CartService{
		repo:      repo,
		cache:     cartCache,
		pricer:    pricer,
		publisher: publisher,
		logger:    logger,
	}
}

// GetCart returns the user's cart with pricing resolved. The stored aggregate
// is cached; pricing always runs against the current catalog so a cached cart
// never pins stale prices.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}

	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("cache get failed, falling back to repository")
		}

		cart, errGet := s.repo.GetCart(ctx, userID)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			errSet := s.cache.Set(context.Background(), userID, cart)
			if errSet != nil {
				s.logger.Warn().Err(errSet).Str("user_id", userID).Msg("cache set failed")
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	// Price a copy so the cached aggregate stays free of transient fields.
	cart := *v.(*domain.Cart)
	cart.Lines = append([]domain.CartLine(nil), cart.Lines...)
	s.pricer.Price(ctx, &cart)
	return &cart, nil
}

// UpsertItem adds quantity of a product to the user's cart, creating the
// header and line as needed. Repeat adds accumulate.
func (s *CartService) UpsertItem(ctx context.Context, userID string, productID int64, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUserID
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("upsert %d of product %d: %w", quantity, productID, domain.ErrInvalidQuantity)
	}

	cart, err := s.repo.UpsertItem(ctx, userID, productID, quantity)
	if err != nil {
		return nil, err
	}

	s.invalidateCache(userID)

	s.pricer.Price(ctx, cart)
	return cart, nil
}

// RemoveLine deletes a cart line; removing the last line removes the cart.
// Removing an unknown line is a no-op.
func (s *CartService) RemoveLine(ctx context.Context, lineID int64) error {
	userID, deleted, err := s.repo.RemoveLine(ctx, lineID)
	if err != nil {
		return err
	}
	if !deleted {
		return nil
	}

	s.invalidateCache(userID)
	return nil
}

// ApplyCoupon sets the coupon code on the user's cart header.
func (s *CartService) ApplyCoupon(ctx context.Context, userID, couponCode string) error {
	return s.setCoupon(ctx, userID, couponCode)
}

// RemoveCoupon clears the coupon code on the user's cart header.
func (s *CartService) RemoveCoupon(ctx context.Context, userID string) error {
	return s.setCoupon(ctx, userID, "")
}

func (s *CartService) setCoupon(ctx context.Context, userID, couponCode string) error {
	if userID == "" {
		return domain.ErrInvalidUserID
	}

	if err := s.repo.SetCoupon(ctx, userID, couponCode); err != nil {
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// RequestCartEmail publishes the priced cart snapshot for the email service.
// Publish failure is logged but never fails the request: the user keeps their
// cart either way.
func (s *CartService) RequestCartEmail(ctx context.Context, userID, email string) error {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return err
	}

	event := events.CartEmailRequested{
		CartHeader: events.CartHeader{
			UserID:     cart.Header.UserID,
			Email:      email,
			CouponCode: cart.Header.CouponCode,
			CartTotal:  cart.Header.CartTotal,
			Discount:   cart.Header.Discount,
		},
	}
	for _, line := range cart.Lines {
		event.CartLines = append(event.CartLines, events.CartLine{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		})
	}

	if err := s.publisher.Publish(ctx, events.TopicCartEmail, event); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("cart email publish failed")
	}
	return nil
}

// invalidateCache runs synchronously: by the time a mutation returns, the
// cache no longer serves the pre-mutation cart.
func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("cache invalidate failed")
	}
}
