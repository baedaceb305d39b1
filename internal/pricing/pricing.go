// Package pricing computes order totals. Pure functions, no I/O.
package pricing

import "github.com/dkim-labs/shopcore/pkg/types"

// Line pairs a unit price with a requested quantity
type Line struct {
	UnitPrice float64
	Quantity  int
}

// Total sums unit price times quantity across all lines and applies
// the discount multiplier. Prices are the caller's snapshots taken at
// order-creation time, so later catalog changes never affect a stored
// total.
func Total(lines []Line, discount float64) float64 {
	var total float64
	for _, line := range lines {
		total += line.UnitPrice * float64(line.Quantity)
	}
	return total * discount
}

// DiscountFor returns the multiplier for the ordering user's role at
// creation time. Stored on the order and never re-derived, so a role
// change later does not alter past orders.
func DiscountFor(role types.Role) float64 {
	if role == types.RoleVIP {
		return types.VIPDiscount
	}
	return types.NoDiscount
}
