package events

import (
	"context"

	"github.com/google/uuid"
)

// Topic names shared by the publishing services and the email consumer.
const (
	TopicCartEmail      = "cart-email"
	TopicUserRegistered = "user-registered"

	// TopicPoison collects messages that exhausted broker redelivery.
	TopicPoison = "notifications-poison"
)

// CartEmailRequested carries a full priced cart snapshot. Prices and names
// are resolved at publish time; the consumer renders them as-is.
type CartEmailRequested struct {
	CartHeader CartHeader `json:"cart_header"`
	CartLines  []CartLine `json:"cart_lines"`
}

type CartHeader struct {
	UserID     string  `json:"user_id"`
	Email      string  `json:"email"`
	CouponCode string  `json:"coupon_code,omitempty"`
	CartTotal  float64 `json:"cart_total"`
	Discount   float64 `json:"discount"`
}

type CartLine struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
}

type UserRegistered struct {
	Email string `json:"email"`
}

type correlationIDKey struct{}

// WithCorrelationID stores a correlation id in the context for downstream
// publishes.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext returns the request's correlation id, generating
// one when the context carries none.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
