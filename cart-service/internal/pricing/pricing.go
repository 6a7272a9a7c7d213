package pricing

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/zahran001/e-commerce/cart-service/internal/catalog"
	"github.com/zahran001/e-commerce/cart-service/internal/domain"
)

// Engine computes a presentable cart total at read time. Nothing it produces
// is persisted: totals, resolved names and discounts live only on the
// returned cart.
type Engine struct {
	products catalog.ProductCatalog
	coupons  catalog.CouponCatalog
	logger   zerolog.Logger
}

func NewEngine(products catalog.ProductCatalog, coupons catalog.CouponCatalog, logger zerolog.Logger) *Engine {
	return &Engine{
		products: products,
		coupons:  coupons,
		logger:   logger,
	}
}

// Price resolves product snapshots in one batch call, attaches them to the
// lines and applies the header's coupon. Collaborator failures degrade the
// result instead of failing the cart read: unresolved lines are flagged and
// contribute zero, and an unreachable coupon service means no discount.
func (e *Engine) Price(ctx context.Context, cart *domain.Cart) {
	byID := e.fetchProducts(ctx)

	subtotal := 0.0
	for i := range cart.Lines {
		line := &cart.Lines[i]
		product, ok := byID[line.ProductID]
		if !ok {
			// Product removed upstream; the line stays visible but
			// priced at zero.
			line.ProductMissing = true
			line.ProductName = ""
			line.UnitPrice = 0
			e.logger.Warn().
				Int64("product_id", line.ProductID).
				Str("user_id", cart.Header.UserID).
				Msg("cart line references unknown product, pricing as zero")
			continue
		}
		line.ProductMissing = false
		line.ProductName = product.Name
		line.UnitPrice = product.Price
		subtotal += float64(line.Quantity) * product.Price
	}

	cart.Header.CartTotal = subtotal
	cart.Header.Discount = 0

	if cart.Header.CouponCode == "" {
		return
	}

	coupon, err := e.coupons.GetCoupon(ctx, cart.Header.CouponCode)
	if err != nil {
		// Missing or unreachable coupon means no discount, never a failed
		// read.
		e.logger.Warn().Err(err).
			Str("coupon_code", cart.Header.CouponCode).
			Msg("coupon lookup failed, skipping discount")
		return
	}

	// The minimum is checked against the pre-discount subtotal.
	if subtotal > coupon.MinimumAmount {
		cart.Header.Discount = coupon.DiscountAmount
		cart.Header.CartTotal = subtotal - coupon.DiscountAmount
	}
}

func (e *Engine) fetchProducts(ctx context.Context) map[int64]catalog.Product {
	products, err := e.products.GetProducts(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("product catalog unavailable, pricing degraded")
		return nil
	}

	byID := make(map[int64]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID
}
