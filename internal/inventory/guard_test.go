package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkim-labs/shopcore/internal/storage"
	"github.com/dkim-labs/shopcore/pkg/types"
)

func onSale(id int64, qty int) *storage.Product {
	return &storage.Product{ID: id, Quantity: qty, SaleStatus: types.SaleStatusOnSale}
}

func TestReserve(t *testing.T) {
	res, err := Reserve(onSale(1, 10), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ProductID)
	assert.Equal(t, 7, res.Remaining)
	assert.False(t, res.SoldOut)
}

func TestReserve_DrainsToZero(t *testing.T) {
	res, err := Reserve(onSale(1, 3), 3)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Remaining)
	assert.True(t, res.SoldOut)
}

func TestReserve_Insufficient(t *testing.T) {
	_, err := Reserve(onSale(1, 2), 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestReserve_SoldOut(t *testing.T) {
	product := &storage.Product{ID: 1, Quantity: 5, SaleStatus: types.SaleStatusSoldOut}

	// Sold out rejects regardless of remaining quantity
	_, err := Reserve(product, 1)
	assert.ErrorIs(t, err, ErrSoldOut)
}
