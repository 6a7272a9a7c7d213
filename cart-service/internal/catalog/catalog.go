package catalog

import (
	"context"
	"errors"
)

// Product is a read-time snapshot from the product service. It is merged into
// cart lines during pricing and never persisted, so prices are current as of
// the read, not as of the add.
type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Coupon is a read-time snapshot from the coupon service.
type Coupon struct {
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discount_amount"`
	MinimumAmount  float64 `json:"minimum_amount"`
}

var (
	ErrProductNotFound = errors.New("product not found")
	ErrCouponNotFound  = errors.New("coupon not found")
)

// ProductCatalog is the product service consumed as a lookup collaborator.
// GetProducts exists so pricing can resolve a whole cart in one round trip.
type ProductCatalog interface {
	GetProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
}

type CouponCatalog interface {
	GetCoupon(ctx context.Context, code string) (*Coupon, error)
}
