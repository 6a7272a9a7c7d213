package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zahran001/e-commerce/internal/events"
)

func TestCartEmail_ListsLinesAndTotal(t *testing.T) {
	event := &events.CartEmailRequested{
		CartHeader: events.CartHeader{
			UserID:    "user-1",
			Email:     "user@example.com",
			CartTotal: 25,
		},
		CartLines: []events.CartLine{
			{ProductID: 10, ProductName: "Espresso Beans", UnitPrice: 10, Quantity: 2},
			{ProductID: 11, ProductName: "Filter Paper", UnitPrice: 5, Quantity: 1},
		},
	}

	body := CartEmail(event)

	assert.Contains(t, body, "Espresso Beans x 2 @ 10.00")
	assert.Contains(t, body, "Filter Paper x 1 @ 5.00")
	assert.Contains(t, body, "Total: 25.00")
	assert.NotContains(t, body, "Coupon")
}

func TestCartEmail_ShowsCouponDiscount(t *testing.T) {
	event := &events.CartEmailRequested{
		CartHeader: events.CartHeader{
			UserID:     "user-1",
			CouponCode: "10OFF",
			CartTotal:  15,
			Discount:   10,
		},
		CartLines: []events.CartLine{
			{ProductID: 10, ProductName: "Espresso Beans", UnitPrice: 25, Quantity: 1},
		},
	}

	body := CartEmail(event)

	assert.Contains(t, body, "Coupon 10OFF applied: -10.00")
	assert.Contains(t, body, "Total: 15.00")
}

func TestCartEmail_MissingProductListedAsUnavailable(t *testing.T) {
	event := &events.CartEmailRequested{
		CartHeader: events.CartHeader{UserID: "user-1", CartTotal: 10},
		CartLines: []events.CartLine{
			{ProductID: 10, ProductName: "Espresso Beans", UnitPrice: 10, Quantity: 1},
			{ProductID: 99, Quantity: 3},
		},
	}

	body := CartEmail(event)

	assert.Contains(t, body, "(no longer available) x 3")
	assert.Contains(t, body, "Espresso Beans x 1")
}

func TestRegistrationEmail(t *testing.T) {
	body := RegistrationEmail(&events.UserRegistered{Email: "new@example.com"})
	assert.Contains(t, body, "new@example.com")
}
