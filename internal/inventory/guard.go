// Package inventory validates stock sufficiency and sale status for
// product snapshots before the order workflow mutates anything.
package inventory

import (
	"errors"
	"fmt"

	"github.com/dkim-labs/shopcore/internal/storage"
	"github.com/dkim-labs/shopcore/pkg/types"
)

var (
	// ErrSoldOut is returned when a product's sale status rejects
	// further ordering regardless of any other field.
	ErrSoldOut = errors.New("product sold out")
	// ErrInsufficientStock is returned when the requested quantity
	// exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Reservation is the outcome of a stock check for one line
type Reservation struct {
	ProductID int64
	Remaining int
	// SoldOut reports that this reservation drains the product to
	// zero, which must flip the sale status in the same transaction.
	SoldOut bool
}

// Reserve checks a product snapshot against a requested quantity and
// computes the remaining stock. It never mutates anything; the caller
// applies the decrement inside its transaction.
func Reserve(product *storage.Product, qty int) (Reservation, error) {
	if product.SaleStatus == types.SaleStatusSoldOut {
		return Reservation{}, fmt.Errorf("product %d: %w", product.ID, ErrSoldOut)
	}
	remaining := product.Quantity - qty
	if remaining < 0 {
		return Reservation{}, fmt.Errorf("product %d has %d of %d requested: %w",
			product.ID, product.Quantity, qty, ErrInsufficientStock)
	}
	return Reservation{
		ProductID: product.ID,
		Remaining: remaining,
		SoldOut:   remaining == 0,
	}, nil
}
