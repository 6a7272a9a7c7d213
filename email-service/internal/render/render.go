package render

import (
	"fmt"
	"strings"

	"github.com/zahran001/e-commerce/internal/events"
)

const (
	CartSubject         = "Your cart summary"
	RegistrationSubject = "Welcome aboard"
)

// CartEmail renders the plain-text body for a cart summary email. Lines
// whose product could not be resolved at publish time arrive with an empty
// name; they are listed as unavailable instead of being dropped, so the
// email matches what the customer saw.
func CartEmail(event *events.CartEmailRequested) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Cart summary for %s\n\n", event.CartHeader.UserID)
	for _, line := range event.CartLines {
		if line.ProductName == "" {
			fmt.Fprintf(&b, "  (no longer available) x %d\n", line.Quantity)
			continue
		}
		fmt.Fprintf(&b, "  %s x %d @ %.2f\n", line.ProductName, line.Quantity, line.UnitPrice)
	}

	if event.CartHeader.Discount > 0 {
		fmt.Fprintf(&b, "\nCoupon %s applied: -%.2f\n", event.CartHeader.CouponCode, event.CartHeader.Discount)
	}
	fmt.Fprintf(&b, "\nTotal: %.2f\n", event.CartHeader.CartTotal)

	return b.String()
}

// RegistrationEmail renders the body of the signup confirmation.
func RegistrationEmail(event *events.UserRegistered) string {
	return fmt.Sprintf("Welcome! Your account %s has been registered successfully.\n", event.Email)
}
