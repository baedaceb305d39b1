package types

import "fmt"

// OrderStatus represents the lifecycle state of an order.
// Payment itself is recorded, not processed, so new orders start at
// OrderStatusPaymentComplete.
type OrderStatus string

const (
	OrderStatusPaymentComplete OrderStatus = "PAYMENT_COMPLETE"
	OrderStatusShipping        OrderStatus = "SHIPPING"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
)

// ParseOrderStatus validates and converts a string into an OrderStatus
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusPaymentComplete, OrderStatusShipping, OrderStatusDelivered:
		return OrderStatus(s), nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

const (
	// VIPDiscount is the price multiplier applied when the ordering
	// user holds the VIP role at creation time.
	VIPDiscount = 0.9

	// NoDiscount is the multiplier for every other role.
	NoDiscount = 1.0

	// MaxQuantityPerLine caps a single line item's quantity for
	// non-VIP, non-admin users.
	MaxQuantityPerLine = 5
)
