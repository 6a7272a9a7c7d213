package repository

import (
	"context"
	"errors"

	"github.com/zahran001/e-commerce/cart-service/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrLineNotFound = errors.New("cart line not found")
)

// CartRepository owns the header+line aggregate. Mutations are transactional:
// a header is never observable without at least one line.
type CartRepository interface {
	// GetCart returns the header and all lines, or ErrCartNotFound when no
	// header exists for the user. An empty cart is represented by absence.
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)

	// UpsertItem creates the header and first line, adds a new line, or
	// accumulates quantity into an existing (header, product) line. The
	// check-and-increment is atomic; concurrent adds never lose updates.
	UpsertItem(ctx context.Context, userID string, productID int64, quantity int) (*domain.Cart, error)

	// RemoveLine deletes the line and, when it was the header's last line,
	// the header too, in one transaction. Returns the owning user id so the
	// caller can invalidate its cache, and false when no such line existed;
	// deleting a missing line is not an error.
	RemoveLine(ctx context.Context, lineID int64) (userID string, deleted bool, err error)

	// SetCoupon overwrites the header's coupon code; an empty code clears it.
	// Returns ErrCartNotFound when the user has no cart.
	SetCoupon(ctx context.Context, userID, couponCode string) error

	Close() error
}

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}
