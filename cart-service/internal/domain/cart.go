package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidUserID   = errors.New("user id must not be empty")
)

// CartHeader is the per-user cart root. CartTotal and Discount are computed
// at read time by the pricing engine and never persisted.
type CartHeader struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	CouponCode string    `json:"coupon_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	CartTotal float64 `json:"cart_total"`
	Discount  float64 `json:"discount"`
}

// CartLine is one product line owned by exactly one header. There is at most
// one line per (header, product); repeat adds accumulate into Quantity.
// ProductName, UnitPrice and ProductMissing are resolved from the product
// catalog on read and are not stored.
type CartLine struct {
	ID        int64 `json:"id"`
	HeaderID  int64 `json:"header_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`

	ProductName    string  `json:"product_name,omitempty"`
	UnitPrice      float64 `json:"unit_price"`
	ProductMissing bool    `json:"product_missing,omitempty"`
}

// Cart bundles a header with its lines. A cart with no lines is never
// materialized: the header is deleted together with its last line.
type Cart struct {
	Header CartHeader `json:"header"`
	Lines  []CartLine `json:"lines"`
}
