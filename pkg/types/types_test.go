package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"USER", "VIP", "ADMIN"} {
		role, err := ParseRole(valid)
		assert.NoError(t, err)
		assert.Equal(t, Role(valid), role)
	}

	_, err := ParseRole("SUPERUSER")
	assert.Error(t, err)
	_, err = ParseRole("admin") // case sensitive
	assert.Error(t, err)
}

func TestParseSaleStatus(t *testing.T) {
	for _, valid := range []string{"ON_SALE", "SOLD_OUT"} {
		status, err := ParseSaleStatus(valid)
		assert.NoError(t, err)
		assert.Equal(t, SaleStatus(valid), status)
	}

	_, err := ParseSaleStatus("BACKORDER")
	assert.Error(t, err)
}

func TestParseOrderStatus(t *testing.T) {
	for _, valid := range []string{"PAYMENT_COMPLETE", "SHIPPING", "DELIVERED"} {
		status, err := ParseOrderStatus(valid)
		assert.NoError(t, err)
		assert.Equal(t, OrderStatus(valid), status)
	}

	_, err := ParseOrderStatus("REFUNDED")
	assert.Error(t, err)
}

func TestActorIsAdmin(t *testing.T) {
	assert.True(t, Actor{ID: 1, Role: RoleAdmin}.IsAdmin())
	assert.False(t, Actor{ID: 1, Role: RoleVIP}.IsAdmin())
	assert.False(t, Actor{ID: 1, Role: RoleUser}.IsAdmin())
}
